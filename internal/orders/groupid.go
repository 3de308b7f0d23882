package orders

import (
	"fmt"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/google/uuid"
)

// newGroupID mints the id shared by every item of one submission. The clip
// and submit time stay readable at the front; the uuid suffix keeps two
// submits on the same clip in the same millisecond apart.
func newGroupID(color enums.ClipColor, number int, at time.Time) (id, label string) {
	label = fmt.Sprintf("%s-%d", color, number)
	id = fmt.Sprintf("%s-%d-%s", label, at.UnixMilli(), uuid.NewString())
	return id, label
}
