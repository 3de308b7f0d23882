package orders

import "github.com/cafemuji/cafemuji-backend/pkg/enums"

// AdmissionResult reports one admission control recompute.
type AdmissionResult struct {
	Kind         enums.ItemKind    `json:"kind"`
	Enabled      bool              `json:"enabled"`
	HoldGroups   int               `json:"hold_groups"`
	Status       enums.OrderStatus `json:"status,omitempty"`
	UpdatedItems int64             `json:"updated_items"`
}

// AdmissionStatus is the status every waiting hold group receives when
// holdGroups of them are waiting.
func AdmissionStatus(holdGroups, threshold int) enums.OrderStatus {
	if holdGroups <= threshold {
		return enums.OrderStatusOK
	}
	return enums.OrderStatusStop
}

// birthStatus decides how a new group enters production: stopped, and
// flagged as auto-stopped, while any open group of the station is stopped.
func birthStatus(policy KindPolicy, stationStopped bool) (enums.OrderStatus, bool) {
	if policy.AdmissionControl && stationStopped {
		return enums.OrderStatusStop, true
	}
	return enums.OrderStatusOK, false
}
