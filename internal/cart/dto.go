package cart

import (
	"time"

	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
)

// Item is one draft line waiting in a cart.
type Item struct {
	orders.Payload
	AddedAt time.Time `json:"added_at"`
}

// Cart is a session's staging area for one station.
type Cart struct {
	Kind       enums.ItemKind  `json:"kind"`
	Items      []Item          `json:"items"`
	ClipColor  enums.ClipColor `json:"clip_color,omitempty"`
	ClipNumber *int            `json:"clip_number,omitempty"`
	Note       string          `json:"note,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func newCart(kind enums.ItemKind) *Cart {
	return &Cart{Kind: kind, Items: []Item{}}
}

// Payloads returns the draft payloads in cart order.
func (c *Cart) Payloads() []orders.Payload {
	out := make([]orders.Payload, 0, len(c.Items))
	for _, item := range c.Items {
		out = append(out, item.Payload)
	}
	return out
}

// PuddingCount counts the pudding drafts in the cart.
func (c *Cart) PuddingCount() int {
	n := 0
	for _, item := range c.Items {
		if item.IsPudding {
			n++
		}
	}
	return n
}

// ClipInput sets the clip a cart will be submitted on.
type ClipInput struct {
	ClipColor  enums.ClipColor
	ClipNumber int
	Note       string
}

// SubmitInput overrides the pending clip when set.
type SubmitInput struct {
	ClipColor  *enums.ClipColor
	ClipNumber *int
	Note       *string
}

// SubmitOutcome reports a cart flush. Submitted is false for an empty cart.
type SubmitOutcome struct {
	Submitted bool                 `json:"submitted"`
	Group     *orders.SubmitResult `json:"group,omitempty"`
}
