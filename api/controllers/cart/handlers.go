package cart

import (
	"net/http"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/api/validators"
	internalcart "github.com/cafemuji/cafemuji-backend/internal/cart"
	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
}

// CartFetch returns the session's staging cart for a station.
func CartFetch(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.List(r.Context(), sessionID, kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddItem appends one draft line.
func CartAddItem(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.Payload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Add(r.Context(), sessionID, kind, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

func CartRemoveItem(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := parseIndex(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveAt(r.Context(), sessionID, kind, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartClear(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), sessionID, kind); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// CartSetClip stores the clip the cart will be submitted on.
func CartSetClip(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body clipRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SetPendingClip(r.Context(), sessionID, kind, internalcart.ClipInput{
			ClipColor:  enums.ClipColor(body.ClipColor),
			ClipNumber: *body.ClipNumber,
			Note:       body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartRemovePuddings drops every pudding draft from the cart.
func CartRemovePuddings(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemovePuddings(r.Context(), sessionID, kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartSubmit flushes the cart into a new order group. The body is optional.
func CartSubmit(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		r, sessionID, kind, err := scope(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		outcome, err := svc.Submit(r.Context(), sessionID, kind, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if outcome.Submitted {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, outcome)
	}
}
