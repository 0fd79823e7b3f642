// Package family derives the grouping key that partitions conversational
// memory between households. Calendar logic never depends on it; the key only
// tags the agent runtime's session storage.
package family

import "fmt"

// ID computes an order-independent grouping key for a user and their linked
// partner. Both partners resolve to the same key regardless of which of them
// is asking: the smaller actor id always comes first. A user without a
// partner gets a single-member key.
func ID(actorID int64, partnerActorID *int64) string {
	if partnerActorID == nil || *partnerActorID == 0 {
		return fmt.Sprintf("family_%d", actorID)
	}

	lo, hi := actorID, *partnerActorID
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("family_%d_%d", lo, hi)
}
