package enums

import "fmt"

// ShavedIceFlavor is a syrup offered at the shaved ice station.
type ShavedIceFlavor string

const (
	ShavedIceFlavorMatcha  ShavedIceFlavor = "matcha"
	ShavedIceFlavorIchigo  ShavedIceFlavor = "ichigo"
	ShavedIceFlavorYuzu    ShavedIceFlavor = "yuzu"
	ShavedIceFlavorHojicha ShavedIceFlavor = "hojicha"
)

var validShavedIceFlavors = []ShavedIceFlavor{
	ShavedIceFlavorMatcha,
	ShavedIceFlavorIchigo,
	ShavedIceFlavorYuzu,
	ShavedIceFlavorHojicha,
}

// String implements fmt.Stringer.
func (f ShavedIceFlavor) String() string {
	return string(f)
}

// IsValid reports whether the value is a known ShavedIceFlavor.
func (f ShavedIceFlavor) IsValid() bool {
	for _, candidate := range validShavedIceFlavors {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseShavedIceFlavor converts raw input into a ShavedIceFlavor.
func ParseShavedIceFlavor(value string) (ShavedIceFlavor, error) {
	for _, candidate := range validShavedIceFlavors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shaved ice flavor %q", value)
}
