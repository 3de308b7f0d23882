package orders

import (
	"strings"
	"unicode/utf8"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
)

const (
	maxMenuLength = 40
	maxQuantity   = 99
	maxNoteLength = 500
)

// Payload is the kind-specific content of one line item. Which fields apply
// depends on the station kind the payload is submitted to:
//
//	food:      Menu, Quantity, EatIn
//	ice:       Size, Container, Flavor1, Flavor2 (double only), or IsPudding
//	shavedice: Flavor
type Payload struct {
	Menu     string `json:"menu,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	EatIn    *bool  `json:"eat_in,omitempty"`

	Size      enums.IceSize      `json:"size,omitempty"`
	Container enums.IceContainer `json:"container,omitempty"`
	Flavor1   enums.IceFlavor    `json:"flavor1,omitempty"`
	Flavor2   enums.IceFlavor    `json:"flavor2,omitempty"`
	IsPudding bool               `json:"is_pudding,omitempty"`

	Flavor enums.ShavedIceFlavor `json:"flavor,omitempty"`
}

// MissingFields lists the required fields absent for kind. It is the only
// check applied while an item sits in a staging cart.
func (p Payload) MissingFields(kind enums.ItemKind) []string {
	var missing []string
	switch kind {
	case enums.ItemKindFood:
		if strings.TrimSpace(p.Menu) == "" {
			missing = append(missing, "menu")
		}
	case enums.ItemKindIce:
		if p.IsPudding {
			return nil
		}
		if p.Size == "" {
			missing = append(missing, "size")
		}
		if p.Container == "" {
			missing = append(missing, "container")
		}
		if p.Flavor1 == "" {
			missing = append(missing, "flavor1")
		}
	case enums.ItemKindShavedIce:
		if p.Flavor == "" {
			missing = append(missing, "flavor")
		}
	}
	return missing
}

// Validate runs the submit-time checks for kind. index locates the payload
// inside a multi-item submission.
func (p Payload) Validate(kind enums.ItemKind, index int) []pkgerrors.FieldViolation {
	var out []pkgerrors.FieldViolation
	reject := func(field, reason string) {
		idx := index
		out = append(out, pkgerrors.FieldViolation{Field: field, Index: &idx, Reason: reason})
	}

	switch kind {
	case enums.ItemKindFood:
		menu := strings.TrimSpace(p.Menu)
		switch {
		case menu == "":
			reject("menu", "required")
		case utf8.RuneCountInString(menu) > maxMenuLength:
			reject("menu", "too long")
		}
		if p.Quantity <= 0 {
			reject("quantity", "must be greater than zero")
		} else if p.Quantity > maxQuantity {
			reject("quantity", "too large")
		}
	case enums.ItemKindIce:
		if p.IsPudding {
			return nil
		}
		if !p.Size.IsValid() {
			reject("size", "must be S or W")
		}
		if !p.Container.IsValid() {
			reject("container", "must be cup or cone")
		}
		if !p.Flavor1.IsValid() {
			reject("flavor1", "unknown flavor")
		}
		if p.Size == enums.IceSizeDouble {
			switch {
			case p.Flavor2 == "":
				reject("flavor2", "required for double size")
			case !p.Flavor2.IsValid():
				reject("flavor2", "unknown flavor")
			}
		}
	case enums.ItemKindShavedIce:
		if !p.Flavor.IsValid() {
			reject("flavor", "unknown flavor")
		}
	default:
		reject("kind", "unknown item kind")
	}
	return out
}

// Normalized drops fields that do not belong to kind.
func (p Payload) Normalized(kind enums.ItemKind) Payload {
	switch kind {
	case enums.ItemKindFood:
		return Payload{Menu: strings.TrimSpace(p.Menu), Quantity: p.Quantity, EatIn: p.EatIn}
	case enums.ItemKindIce:
		if p.IsPudding {
			return Payload{IsPudding: true}
		}
		out := Payload{Size: p.Size, Container: p.Container, Flavor1: p.Flavor1}
		if p.Size == enums.IceSizeDouble {
			out.Flavor2 = p.Flavor2
		}
		return out
	case enums.ItemKindShavedIce:
		return Payload{Flavor: p.Flavor}
	}
	return p
}

func (p Payload) applyTo(item *models.OrderItem) {
	item.Quantity = 1
	switch item.Kind {
	case enums.ItemKindFood:
		menu := p.Menu
		item.Menu = &menu
		item.Quantity = p.Quantity
		eatIn := true
		if p.EatIn != nil {
			eatIn = *p.EatIn
		}
		item.EatIn = &eatIn
	case enums.ItemKindIce:
		item.IsPudding = p.IsPudding
		if p.IsPudding {
			return
		}
		size, container, flavor1 := p.Size, p.Container, p.Flavor1
		item.Size, item.Container, item.Flavor1 = &size, &container, &flavor1
		if p.Flavor2 != "" {
			flavor2 := p.Flavor2
			item.Flavor2 = &flavor2
		}
	case enums.ItemKindShavedIce:
		flavor := p.Flavor
		item.Flavor = &flavor
	}
}

// PayloadOf reads the kind payload back out of a stored item.
func PayloadOf(item models.OrderItem) Payload {
	var p Payload
	switch item.Kind {
	case enums.ItemKindFood:
		if item.Menu != nil {
			p.Menu = *item.Menu
		}
		p.Quantity = item.Quantity
		p.EatIn = item.EatIn
	case enums.ItemKindIce:
		p.IsPudding = item.IsPudding
		if item.Size != nil {
			p.Size = *item.Size
		}
		if item.Container != nil {
			p.Container = *item.Container
		}
		if item.Flavor1 != nil {
			p.Flavor1 = *item.Flavor1
		}
		if item.Flavor2 != nil {
			p.Flavor2 = *item.Flavor2
		}
	case enums.ItemKindShavedIce:
		if item.Flavor != nil {
			p.Flavor = *item.Flavor
		}
	}
	return p
}

// validateSubmit checks a whole submission and reports every violation.
func validateSubmit(kind enums.ItemKind, input SubmitInput) error {
	var violations []pkgerrors.FieldViolation
	if len(input.Items) == 0 {
		violations = append(violations, pkgerrors.FieldViolation{Field: "items", Reason: "at least one item is required"})
	}
	if !input.ClipColor.IsValid() {
		violations = append(violations, pkgerrors.FieldViolation{Field: "clip_color", Reason: "must be yellow or white"})
	}
	if input.ClipNumber < enums.MinClipNumber || input.ClipNumber > enums.MaxClipNumber {
		violations = append(violations, pkgerrors.FieldViolation{Field: "clip_number", Reason: "must be between 0 and 16"})
	}
	if utf8.RuneCountInString(input.Note) > maxNoteLength {
		violations = append(violations, pkgerrors.FieldViolation{Field: "note", Reason: "too long"})
	}
	for i, payload := range input.Items {
		violations = append(violations, payload.Validate(kind, i)...)
	}
	if len(violations) > 0 {
		return pkgerrors.Invalid("order group rejected", violations...)
	}
	return nil
}

// ExpandUnits splits every food line of quantity n into n lines of one so
// each plate can be completed on its own.
func ExpandUnits(kind enums.ItemKind, payloads []Payload) []Payload {
	if kind != enums.ItemKindFood {
		return payloads
	}
	out := make([]Payload, 0, len(payloads))
	for _, p := range payloads {
		if p.Quantity <= 1 {
			out = append(out, p)
			continue
		}
		for i := 0; i < p.Quantity; i++ {
			unit := p
			unit.Quantity = 1
			out = append(out, unit)
		}
	}
	return out
}
