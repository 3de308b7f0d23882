package orders

import (
	"net/http"
	"time"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/api/validators"
	internalorders "github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

type itemStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ok stop hold"`
}

type itemList struct {
	Items []internalorders.ItemView `json:"items"`
}

// ListItems lists a station's items with optional filters.
func ListItems(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, kind, err := parseKind(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := buildListFilter(r, kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListItems(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		now := time.Now()
		out := itemList{Items: make([]internalorders.ItemView, 0, len(items))}
		for _, item := range items {
			out.Items = append(out.Items, internalorders.NewItemView(item, now))
		}
		responses.WriteSuccess(w, out)
	}
}

func GetItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, kind, err := parseKind(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), kind, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewItemView(*item, time.Now()))
	}
}

// CompleteItem marks one item complete. Repeating the call is harmless.
func CompleteItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, kind, err := parseKind(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CompleteItem(r.Context(), kind, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewItemView(*item, time.Now()))
	}
}

// SetItemStatus changes the status of one open item, hold included.
func SetItemStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, kind, err := parseKind(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body itemStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetItemStatus(r.Context(), kind, itemID, enums.OrderStatus(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewItemView(*item, time.Now()))
	}
}
