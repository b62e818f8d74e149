package render

import (
	"context"
	"strconv"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/elemid"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/tree"
)

// frame is one scope on the execution stack. It collects the ids of
// elements created while it is on top.
type frame struct {
	parent   elemid.ID
	counter  int
	children []elemid.ID
	// done marks a popped frame; placements into it are usage errors
	// (reaching one means a scope's context escaped the scope).
	done bool
}

func (f *frame) nextSegment() string {
	seg := strconv.Itoa(f.counter)
	f.counter++
	return seg
}

// unmountRecord remembers enough of an evicted element to run its hook
// after the element itself is gone from the store.
type unmountRecord struct {
	id   elemid.ID
	comp component.Component
}

// ActiveRender is the scratch state of one render pass: the frame stack,
// the patch collector, the pending hook lists and the pre-pass snapshot
// used for diffing. It never outlives the pass.
type ActiveRender struct {
	sess      *session.Session
	frames    []*frame
	collector *patch.Collector
	// snapshot is the element store as it stood when the pass began.
	// Elements are immutable once stored, so the old pointers stay valid
	// for diffing while the pass Puts replacements.
	snapshot map[elemid.ID]*tree.Element
	// rendered holds every element id (re-)executed during this pass.
	rendered map[elemid.ID]struct{}

	pendingMount   []elemid.ID
	pendingUnmount []unmountRecord
}

func newActiveRender(sess *session.Session) *ActiveRender {
	return &ActiveRender{
		sess:      sess,
		collector: patch.NewCollector(),
		snapshot:  sess.Store().Snapshot(),
		rendered:  make(map[elemid.ID]struct{}),
	}
}

func (ar *ActiveRender) push(parent elemid.ID, startCounter int) *frame {
	f := &frame{parent: parent, counter: startCounter}
	ar.frames = append(ar.frames, f)
	return f
}

func (ar *ActiveRender) pop() *frame {
	f := ar.frames[len(ar.frames)-1]
	ar.frames = ar.frames[:len(ar.frames)-1]
	f.done = true
	return f
}

func (ar *ActiveRender) top() (*frame, bool) {
	if len(ar.frames) == 0 {
		return nil, false
	}
	return ar.frames[len(ar.frames)-1], true
}

// covered reports whether id or one of its ancestors was already
// re-executed during this pass, making a separate re-render redundant.
func (ar *ActiveRender) covered(id elemid.ID) bool {
	for cur := id; cur != ""; cur = cur.Parent() {
		if _, ok := ar.rendered[cur]; ok {
			return true
		}
	}
	return false
}

type activeKey struct{}

func withActive(ctx context.Context, ar *ActiveRender) context.Context {
	return context.WithValue(ctx, activeKey{}, ar)
}

func activeFrom(ctx context.Context) (*ActiveRender, bool) {
	ar, ok := ctx.Value(activeKey{}).(*ActiveRender)
	return ar, ok
}

// currentKey carries the id of the element whose body is executing.
type currentKey struct{}

func withCurrent(ctx context.Context, id elemid.ID) context.Context {
	return context.WithValue(ctx, currentKey{}, id)
}

func currentElement(ctx context.Context) (elemid.ID, bool) {
	id, ok := ctx.Value(currentKey{}).(elemid.ID)
	return id, ok
}
