package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	Passcode string `json:"passcode" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=register kitchen"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"passcode":"1234","role":"kitchen"}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	require.Equal(t, "kitchen", body.Role)
}

func TestDecodeJSONBodyRejects(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty", ``, ""},
		{"unknown field", `{"passcode":"1234","role":"kitchen","extra":1}`, ""},
		{"short passcode", `{"passcode":"12","role":"kitchen"}`, "passcode"},
		{"bad role", `{"passcode":"1234","role":"owner"}`, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var body sampleBody
			err := DecodeJSONBody(req, &body)
			require.Error(t, err)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			if tt.field != "" {
				violations, ok := pkgerrors.As(err).Details().([]pkgerrors.FieldViolation)
				require.True(t, ok)
				require.Len(t, violations, 1)
				require.Equal(t, tt.field, violations[0].Field)
			}
		})
	}
}

type line struct {
	Menu     string `json:"menu" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=5"`
}

type ticketBody struct {
	Items []line `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyNestedFieldPaths(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"items":[{"menu":"curry","quantity":1},{"menu":"","quantity":9}]}`))
	var body ticketBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	violations := pkgerrors.As(err).Details().([]pkgerrors.FieldViolation)
	fields := map[string]string{}
	for _, v := range violations {
		fields[v.Field] = v.Reason
	}
	require.Equal(t, "is required", fields["items[1].menu"])
	require.Equal(t, "must be at most 5", fields["items[1].quantity"])

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"items":[]}`))
	err = DecodeJSONBody(req, &body)
	violations = pkgerrors.As(err).Details().([]pkgerrors.FieldViolation)
	require.Equal(t, "must contain at least 1 entries", violations[0].Reason)
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	big := `{"passcode":"` + strings.Repeat("9", MaxBodyBytes) + `","role":"kitchen"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(big))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=20&bad=x&big=1000", nil)

	v, err := ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	require.Equal(t, 20, v)

	v, err = ParseQueryInt(req, "missing", 50, 1, 200)
	require.NoError(t, err)
	require.Equal(t, 50, v)

	_, err = ParseQueryInt(req, "bad", 50, 1, 200)
	require.Error(t, err)
	_, err = ParseQueryInt(req, "big", 50, 1, 200)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, []pkgerrors.FieldViolation{{Field: "big", Reason: "must be between 1 and 200"}}, typed.Details())
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest("GET", "/?is_completed=true&flag=nope", nil)

	v, err := ParseQueryBool(req, "is_completed")
	require.NoError(t, err)
	require.NotNil(t, v)
	require.True(t, *v)

	v, err = ParseQueryBool(req, "missing")
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = ParseQueryBool(req, "flag")
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	require.Equal(t, "abc", SanitizeString(" abc ", 0))
	require.Equal(t, "抹茶", SanitizeString("抹茶ミルク", 2))
	require.Equal(t, "no onion", SanitizeString("no\x00 onion\n", 0))
}
