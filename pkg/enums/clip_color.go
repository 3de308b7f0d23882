package enums

import "fmt"

// ClipColor is the color of the physical ticket clip.
type ClipColor string

const (
	ClipColorYellow ClipColor = "yellow"
	ClipColorWhite  ClipColor = "white"
)

const (
	MinClipNumber = 0
	MaxClipNumber = 16
)

var validClipColors = []ClipColor{
	ClipColorYellow,
	ClipColorWhite,
}

// String implements fmt.Stringer.
func (c ClipColor) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClipColor.
func (c ClipColor) IsValid() bool {
	for _, candidate := range validClipColors {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClipColor converts raw input into a ClipColor.
func ParseClipColor(value string) (ClipColor, error) {
	for _, candidate := range validClipColors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid clip color %q", value)
}
