package balance

import "time"

// ResolveCutoff determines the settlement cutoff date for a group's
// settlement history: the creation time of the most recently created
// completed settlement. Events before the cutoff are fully settled and stay
// out of the active balance.
//
// Returns nil when no settlement is completed, or when a still-open
// settlement predates the newest completed one: an older unresolved
// settlement means the history before it must remain visible. The cutoff
// therefore only ever moves forward as settlements complete.
func ResolveCutoff(settlements []Settlement) *time.Time {
	var newest *Settlement
	for i := range settlements {
		s := &settlements[i]
		if !s.Completed() {
			continue
		}
		if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
			newest = s
		}
	}
	if newest == nil {
		return nil
	}
	for i := range settlements {
		s := &settlements[i]
		if !s.Completed() && s.CreatedAt.Before(newest.CreatedAt) {
			return nil
		}
	}
	cutoff := newest.CreatedAt
	return &cutoff
}
