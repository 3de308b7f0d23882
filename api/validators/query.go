package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
)

// ParseQueryInt reads an optional bounded integer, defaulting when absent.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badQuery(key, "must be an integer")
	}
	if value < min || value > max {
		return 0, badQuery(key, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return value, nil
}

// ParseQueryBool reads an optional boolean filter. A missing key yields nil.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badQuery(key, "must be true or false")
	}
	return &value, nil
}

// ParseQueryString returns a trimmed, length-capped query value.
func ParseQueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}

func queryValue(r *http.Request, key string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func badQuery(key, reason string) error {
	return pkgerrors.Invalid("invalid query parameter", pkgerrors.FieldViolation{Field: key, Reason: reason})
}
