// Package reconcile diffs an old ordered child-id list against a new one.
//
// Because element identity is already explicit (position ids and keys), no
// LCS computation is needed: an id either survives or it does not. The
// algorithm is O(n) for the common append/prepend/unchanged cases and
// degrades to O(n) set lookups for arbitrary reorders.
package reconcile

import "github.com/vk/weft/internal/elemid"

// Result partitions the ids of one reconciliation.
//
// Every id of the new list appears exactly once across Added and Matched;
// every id of the old list appears exactly once across Removed and Matched.
type Result struct {
	// Added lists new ids absent from the old list, in new-list order.
	Added []elemid.ID
	// Removed lists old ids absent from the new list, in old-list order.
	Removed []elemid.ID
	// Matched holds ids present in both lists, including ones that moved.
	Matched map[elemid.ID]struct{}
	// ChildOrder is the new list, preserved for the container's patch.
	ChildOrder []elemid.ID
}

// Reconcile computes the diff between two ordered id lists.
func Reconcile(oldIDs, newIDs []elemid.ID) Result {
	res := Result{
		Matched:    make(map[elemid.ID]struct{}),
		ChildOrder: newIDs,
	}

	// Matching prefix.
	head := 0
	for head < len(oldIDs) && head < len(newIDs) && oldIDs[head] == newIDs[head] {
		res.Matched[oldIDs[head]] = struct{}{}
		head++
	}

	// Matching suffix, bounded by the unmatched middle region.
	oldTail, newTail := len(oldIDs)-1, len(newIDs)-1
	for oldTail >= head && newTail >= head && oldIDs[oldTail] == newIDs[newTail] {
		res.Matched[oldIDs[oldTail]] = struct{}{}
		oldTail--
		newTail--
	}

	// Middle window: anything still present in the old list moved,
	// anything else is new.
	oldMiddle := make(map[elemid.ID]struct{}, oldTail-head+1)
	for i := head; i <= oldTail; i++ {
		oldMiddle[oldIDs[i]] = struct{}{}
	}
	for i := head; i <= newTail; i++ {
		id := newIDs[i]
		if _, ok := oldMiddle[id]; ok {
			res.Matched[id] = struct{}{}
		} else {
			res.Added = append(res.Added, id)
		}
	}

	// Whatever was never matched is gone.
	for i := head; i <= oldTail; i++ {
		if _, ok := res.Matched[oldIDs[i]]; !ok {
			res.Removed = append(res.Removed, oldIDs[i])
		}
	}

	return res
}
