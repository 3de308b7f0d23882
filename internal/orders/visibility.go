package orders

import "time"

const DefaultCompletedTTL = 30 * time.Second

// Partition splits groups into the active bucket and the recently completed
// bucket. A complete group stays visible while now minus its latest
// completion is within ttl; older complete groups land in neither bucket.
// Partition has no side effects.
func Partition(groups []Group, now time.Time, ttl time.Duration) (active, completed []Group) {
	active = make([]Group, 0)
	completed = make([]Group, 0)
	for _, group := range groups {
		if !group.IsComplete() {
			active = append(active, group)
			continue
		}
		latest := group.LatestCompletion()
		if latest == nil {
			continue
		}
		if now.Sub(*latest) <= ttl {
			completed = append(completed, group)
		}
	}
	return active, completed
}
