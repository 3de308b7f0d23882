package orders

import (
	"net/http"
	"time"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	internalorders "github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

type boardCounts struct {
	Kind         enums.ItemKind `json:"kind"`
	ActiveGroups int            `json:"active_groups"`
	ActiveItems  int            `json:"active_items"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
}

// Board renders the active and recently completed groups of a station.
func Board(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		board, err := svc.ListActiveAndCompletedGroups(r.Context(), kind, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}

// BoardCounts returns the open group and item counts used by polling clients.
func BoardCounts(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		groups, err := svc.ActiveGroupCount(r.Context(), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ActiveItemCount(r.Context(), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, boardCounts{Kind: kind, ActiveGroups: groups, ActiveItems: items})
	}
}

// RecomputeAdmission re-evaluates the hold queue of an admission-controlled station.
func RecomputeAdmission(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.RecomputeAdmissionControl(r.Context(), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Statistics summarizes the station's day.
func Statistics(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		stats, err := svc.Statistics(r.Context(), kind, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
