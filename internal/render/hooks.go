package render

import (
	"context"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/elemid"
)

// Mounter is implemented by components that want to know when one of
// their placements first appears in the tree. Hooks run at the end of the
// pass that created the element, with the session lock still held; state
// written from a hook lands in the dirty set for the next pass.
type Mounter interface {
	OnMount(ctx context.Context, id elemid.ID)
}

// Unmounter is the counterpart for eviction. The element is already gone
// from the store when the hook runs.
type Unmounter interface {
	OnUnmount(ctx context.Context, id elemid.ID)
}

func (ar *ActiveRender) queueUnmount(id elemid.ID, comp component.Component) {
	ar.pendingUnmount = append(ar.pendingUnmount, unmountRecord{id: id, comp: comp})
}

// flushHooks runs queued unmount hooks, then mount hooks, in queue order.
// Mount hooks see a store that already reflects the whole pass.
func (ar *ActiveRender) flushHooks(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	for _, rec := range ar.pendingUnmount {
		if h, ok := rec.comp.(Unmounter); ok {
			logger.Debug("Running unmount hook.", "elementID", rec.id)
			h.OnUnmount(ctx, rec.id)
		}
	}
	ar.pendingUnmount = nil

	for _, id := range ar.pendingMount {
		el, ok := ar.sess.Store().Element(id)
		if !ok {
			// Mounted and evicted within the same pass.
			continue
		}
		if h, ok := el.Component.(Mounter); ok {
			logger.Debug("Running mount hook.", "elementID", id)
			h.OnMount(ctx, id)
		}
	}
	ar.pendingMount = nil
}
