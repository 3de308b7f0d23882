package enums

import "fmt"

// IceSize is the scoop count of an ice cream; W is a double.
type IceSize string

const (
	IceSizeSingle IceSize = "S"
	IceSizeDouble IceSize = "W"
)

var validIceSizes = []IceSize{IceSizeSingle, IceSizeDouble}

func (s IceSize) String() string {
	return string(s)
}

func (s IceSize) IsValid() bool {
	for _, candidate := range validIceSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseIceSize(value string) (IceSize, error) {
	for _, candidate := range validIceSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ice size %q", value)
}

type IceContainer string

const (
	IceContainerCup  IceContainer = "cup"
	IceContainerCone IceContainer = "cone"
)

var validIceContainers = []IceContainer{IceContainerCup, IceContainerCone}

func (c IceContainer) String() string {
	return string(c)
}

func (c IceContainer) IsValid() bool {
	for _, candidate := range validIceContainers {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseIceContainer(value string) (IceContainer, error) {
	for _, candidate := range validIceContainers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ice container %q", value)
}

// IceFlavor is a scoop flavor from the ice cream case.
type IceFlavor string

const (
	IceFlavorJersey     IceFlavor = "jersey"
	IceFlavorOcha       IceFlavor = "ocha"
	IceFlavorMango      IceFlavor = "mango"
	IceFlavorMint       IceFlavor = "mint"
	IceFlavorCaramel    IceFlavor = "caramel"
	IceFlavorStrawberry IceFlavor = "strawberry"
	IceFlavorTachibana  IceFlavor = "tachibana"
	IceFlavorIdashio    IceFlavor = "idashio"
	IceFlavorCassis     IceFlavor = "cassis"
	IceFlavorChocolate  IceFlavor = "chocolate"
	IceFlavorCoffee     IceFlavor = "coffee"
	IceFlavorLemon      IceFlavor = "lemon"
)

var validIceFlavors = []IceFlavor{
	IceFlavorJersey,
	IceFlavorOcha,
	IceFlavorMango,
	IceFlavorMint,
	IceFlavorCaramel,
	IceFlavorStrawberry,
	IceFlavorTachibana,
	IceFlavorIdashio,
	IceFlavorCassis,
	IceFlavorChocolate,
	IceFlavorCoffee,
	IceFlavorLemon,
}

func (f IceFlavor) String() string {
	return string(f)
}

func (f IceFlavor) IsValid() bool {
	for _, candidate := range validIceFlavors {
		if candidate == f {
			return true
		}
	}
	return false
}

func ParseIceFlavor(value string) (IceFlavor, error) {
	for _, candidate := range validIceFlavors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ice flavor %q", value)
}
