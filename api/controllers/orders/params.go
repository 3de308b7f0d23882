package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cafemuji/cafemuji-backend/api/validators"
	internalorders "github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	maxFilterLength  = 40
)

// parseKind reads the {kind} path segment and tags the log context with it.
func parseKind(r *http.Request, logg *logger.Logger) (*http.Request, enums.ItemKind, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "kind"))
	kind, err := enums.ParseItemKind(raw)
	if err != nil {
		return r, "", pkgerrors.NotFound("station", raw)
	}
	if logg != nil {
		r = r.WithContext(logg.WithKind(r.Context(), kind.String()))
	}
	return r, kind, nil
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return id, nil
}

func parseGroupID(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "groupID"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "group id is required")
	}
	return raw, nil
}

// buildListFilter maps the item list query string onto a repository filter.
func buildListFilter(r *http.Request, kind enums.ItemKind) (internalorders.ListFilter, error) {
	filter := internalorders.ListFilter{
		Kind:    kind,
		GroupID: validators.ParseQueryString(r, "group_id", 128),
		Menu:    validators.ParseQueryString(r, "menu", maxFilterLength),
		Flavor:  validators.ParseQueryString(r, "flavor", maxFilterLength),
	}

	limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	completed, err := validators.ParseQueryBool(r, "is_completed")
	if err != nil {
		return filter, err
	}
	filter.IsCompleted = completed

	if raw := validators.ParseQueryString(r, "status", maxFilterLength); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.Invalid("invalid status filter", pkgerrors.FieldViolation{Field: "status", Reason: "must be ok, stop or hold"})
		}
		filter.Status = &status
	}

	if raw := validators.ParseQueryString(r, "size", maxFilterLength); raw != "" {
		size, err := enums.ParseIceSize(raw)
		if err != nil {
			return filter, pkgerrors.Invalid("invalid size filter", pkgerrors.FieldViolation{Field: "size", Reason: "unknown size"})
		}
		filter.Size = &size
	}

	return filter, nil
}
