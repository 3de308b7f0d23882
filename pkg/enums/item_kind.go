package enums

import "fmt"

// ItemKind identifies the ordering station an item belongs to.
type ItemKind string

const (
	ItemKindFood      ItemKind = "food"
	ItemKindIce       ItemKind = "ice"
	ItemKindShavedIce ItemKind = "shavedice"
)

var validItemKinds = []ItemKind{
	ItemKindFood,
	ItemKindIce,
	ItemKindShavedIce,
}

// AllItemKinds returns every station kind in display order.
func AllItemKinds() []ItemKind {
	out := make([]ItemKind, len(validItemKinds))
	copy(out, validItemKinds)
	return out
}

// String implements fmt.Stringer.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemKind.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseItemKind converts raw input into an ItemKind.
func ParseItemKind(value string) (ItemKind, error) {
	for _, candidate := range validItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
