package orders

import (
	"net/http"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/api/validators"
	internalorders "github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

type submitGroupRequest struct {
	ClipColor  string                   `json:"clip_color" validate:"required"`
	ClipNumber *int                     `json:"clip_number" validate:"required"`
	Note       string                   `json:"note"`
	Items      []internalorders.Payload `json:"items" validate:"required,min=1"`
}

type groupStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ok stop"`
}

type groupActionResponse struct {
	GroupID string            `json:"group_id"`
	Updated int64             `json:"updated,omitempty"`
	Status  enums.OrderStatus `json:"status,omitempty"`
	Deleted bool              `json:"deleted,omitempty"`
}

// SubmitGroup persists one ticket of items on a clip.
func SubmitGroup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body submitGroupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitOrderGroup(r.Context(), kind, internalorders.SubmitInput{
			Items:      body.Items,
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

// CompleteGroup marks every open item of a group complete.
func CompleteGroup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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
		groupID, err := parseGroupID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.CompleteGroup(r.Context(), kind, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groupActionResponse{GroupID: groupID, Updated: updated})
	}
}

// SetGroupStatus applies a manual ok/stop override to a group.
func SetGroupStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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
		groupID, err := parseGroupID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body groupStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.OrderStatus(body.Status)
		if err := svc.SetGroupStatus(r.Context(), kind, groupID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groupActionResponse{GroupID: groupID, Status: status})
	}
}

// DeleteGroup removes a group and all of its items.
func DeleteGroup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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
		groupID, err := parseGroupID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteGroup(r.Context(), kind, groupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groupActionResponse{GroupID: groupID, Deleted: true})
	}
}
