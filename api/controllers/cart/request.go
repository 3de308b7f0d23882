package cart

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cafemuji/cafemuji-backend/api/middleware"
	internalcart "github.com/cafemuji/cafemuji-backend/internal/cart"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

type clipRequest struct {
	ClipColor  string `json:"clip_color" validate:"required"`
	ClipNumber *int   `json:"clip_number" validate:"required"`
	Note       string `json:"note"`
}

type submitRequest struct {
	ClipColor  *string `json:"clip_color,omitempty"`
	ClipNumber *int    `json:"clip_number,omitempty"`
	Note       *string `json:"note,omitempty"`
}

func (r submitRequest) input() internalcart.SubmitInput {
	in := internalcart.SubmitInput{ClipNumber: r.ClipNumber, Note: r.Note}
	if r.ClipColor != nil {
		color := enums.ClipColor(*r.ClipColor)
		in.ClipColor = &color
	}
	return in
}

// scope resolves the session and station a cart request addresses.
func scope(r *http.Request, logg *logger.Logger) (*http.Request, string, enums.ItemKind, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return r, "", "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	raw := strings.TrimSpace(chi.URLParam(r, "kind"))
	kind, err := enums.ParseItemKind(raw)
	if err != nil {
		return r, "", "", pkgerrors.NotFound("station", raw)
	}
	if logg != nil {
		r = r.WithContext(logg.WithKind(r.Context(), kind.String()))
	}
	return r, sessionID, kind, nil
}

func parseIndex(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart index must be numeric")
	}
	return index, nil
}
