package orders

import (
	"net/http"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/api/validators"
	internalorders "github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

type mobileFoodRequest struct {
	Menu       string `json:"menu" validate:"required,max=40"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=5"`
	EatIn      *bool  `json:"eat_in"`
	ClipColor  string `json:"clip_color" validate:"required"`
	ClipNumber *int   `json:"clip_number" validate:"required"`
	Note       string `json:"note"`
}

// MobileFoodOrder takes a single-menu food order from the handheld form and
// stores one row per plate.
func MobileFoodOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		kind := enums.ItemKindFood
		if logg != nil {
			r = r.WithContext(logg.WithKind(r.Context(), kind.String()))
		}

		var body mobileFoodRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := internalorders.ExpandUnits(kind, []internalorders.Payload{{
			Menu:     body.Menu,
			Quantity: body.Quantity,
			EatIn:    body.EatIn,
		}})
		result, err := svc.SubmitOrderGroup(r.Context(), kind, internalorders.SubmitInput{
			Items:      items,
			ClipColor:  enums.ClipColor(body.ClipColor),
			ClipNumber: *body.ClipNumber,
			Note:       body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
