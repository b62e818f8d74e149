package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/weft/internal/elemid"
)

func ids(ss ...string) []elemid.ID {
	out := make([]elemid.ID, len(ss))
	for i, s := range ss {
		out[i] = elemid.ID(s)
	}
	return out
}

func matchedSet(ss ...string) map[elemid.ID]struct{} {
	out := make(map[elemid.ID]struct{}, len(ss))
	for _, s := range ss {
		out[elemid.ID(s)] = struct{}{}
	}
	return out
}

func TestReconcile(t *testing.T) {
	testCases := []struct {
		name    string
		old     []elemid.ID
		new     []elemid.ID
		added   []elemid.ID
		removed []elemid.ID
		matched map[elemid.ID]struct{}
	}{
		{
			name:    "both empty",
			matched: matchedSet(),
		},
		{
			name:    "unchanged",
			old:     ids("a", "b", "c"),
			new:     ids("a", "b", "c"),
			matched: matchedSet("a", "b", "c"),
		},
		{
			name:    "append",
			old:     ids("a", "b"),
			new:     ids("a", "b", "c"),
			added:   ids("c"),
			matched: matchedSet("a", "b"),
		},
		{
			name:    "prepend",
			old:     ids("b", "c"),
			new:     ids("a", "b", "c"),
			added:   ids("a"),
			matched: matchedSet("b", "c"),
		},
		{
			name:    "full reorder",
			old:     ids("a", "b", "c"),
			new:     ids("c", "a", "b"),
			matched: matchedSet("a", "b", "c"),
		},
		{
			name:    "shrink to head",
			old:     ids("a", "b", "c"),
			new:     ids("a"),
			removed: ids("b", "c"),
			matched: matchedSet("a"),
		},
		{
			name:    "replace middle",
			old:     ids("a", "x", "c"),
			new:     ids("a", "y", "c"),
			added:   ids("y"),
			removed: ids("x"),
			matched: matchedSet("a", "c"),
		},
		{
			name:    "all new",
			old:     nil,
			new:     ids("a", "b"),
			added:   ids("a", "b"),
			matched: matchedSet(),
		},
		{
			name:    "all removed",
			old:     ids("a", "b"),
			new:     nil,
			removed: ids("a", "b"),
			matched: matchedSet(),
		},
		{
			name:    "swap with churn",
			old:     ids("a", "b", "c", "d", "e"),
			new:     ids("a", "d", "x", "b", "e"),
			added:   ids("x"),
			removed: ids("c"),
			matched: matchedSet("a", "b", "d", "e"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Reconcile(tc.old, tc.new)

			assert.Equal(t, tc.added, res.Added)
			assert.Equal(t, tc.removed, res.Removed)
			assert.Empty(t, cmp.Diff(tc.matched, res.Matched))
			assert.Equal(t, tc.new, res.ChildOrder)

			assertPartitionLaw(t, tc.old, tc.new, res)
		})
	}
}

// assertPartitionLaw checks the invariant that Added plus the matched
// members of new reconstructs new exactly, and Removed plus the matched
// members of old reconstructs old exactly.
func assertPartitionLaw(t *testing.T, old, new []elemid.ID, res Result) {
	t.Helper()

	var rebuiltNew []elemid.ID
	for _, id := range new {
		_, m := res.Matched[id]
		added := contains(res.Added, id)
		require.True(t, m != added, "id %s must be matched xor added", id)
		rebuiltNew = append(rebuiltNew, id)
	}
	assert.Equal(t, new, rebuiltNew)

	var rebuiltOld []elemid.ID
	for _, id := range old {
		_, m := res.Matched[id]
		removed := contains(res.Removed, id)
		assert.True(t, m != removed, "id %s must be matched xor removed", id)
		rebuiltOld = append(rebuiltOld, id)
	}
	assert.Equal(t, old, rebuiltOld)
}

func contains(list []elemid.ID, id elemid.ID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func TestReconcileReorderExample(t *testing.T) {
	// reconcile([a b c], [c a b]): nothing added or removed, everything
	// matched, child order follows the new list.
	res := Reconcile(ids("a", "b", "c"), ids("c", "a", "b"))
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)
	assert.Equal(t, matchedSet("a", "b", "c"), res.Matched)
	assert.Equal(t, ids("c", "a", "b"), res.ChildOrder)
}

func TestReconcileShrinkExample(t *testing.T) {
	res := Reconcile(ids("a", "b", "c"), ids("a"))
	assert.Empty(t, res.Added)
	assert.Equal(t, ids("b", "c"), res.Removed)
	assert.Equal(t, matchedSet("a"), res.Matched)
	assert.Equal(t, ids("a"), res.ChildOrder)
}
