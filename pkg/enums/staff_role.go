package enums

import "fmt"

// StaffRole is the station a terminal signs in as.
type StaffRole string

const (
	StaffRoleRegister StaffRole = "register"
	StaffRoleKitchen  StaffRole = "kitchen"
)

var validStaffRoles = []StaffRole{StaffRoleRegister, StaffRoleKitchen}

func (r StaffRole) String() string {
	return string(r)
}

func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
