package render

import (
	"context"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/elemid"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/tree"
)

// RenderRoot runs the initial pass: it renders the root component and its
// transitive descendants into an empty (or stale) session and returns the
// root element id along with the patches describing the whole tree.
func RenderRoot(ctx context.Context, sess *session.Session, root component.Component, props *component.Props) (elemid.ID, []patch.Patch, error) {
	ctx, release := sess.Enter(ctx)
	defer release()

	ar := newActiveRender(sess)
	ctx = withActive(ctx, ar)

	rootID := elemid.Root(component.Identity(root))
	el := &tree.Element{ID: rootID, Component: root, Props: ensureProps(props)}
	if err := ar.renderElement(ctx, el); err != nil {
		return "", nil, err
	}
	ar.sweepOrphans(ctx)
	ar.flushHooks(ctx)

	ctxlog.FromContext(ctx).Debug("Initial render complete.",
		"session", sess.ID(), "rootID", rootID, "elements", sess.Store().Len(), "patches", ar.collector.Len())
	return rootID, ar.collector.Patches(), nil
}

// RenderElement re-executes one already-rendered element and returns the
// patches its subtree produced. Most callers want RenderDirty; this is
// the single-element entry for targeted refreshes.
func RenderElement(ctx context.Context, sess *session.Session, id elemid.ID) ([]patch.Patch, error) {
	ctx, release := sess.Enter(ctx)
	defer release()

	live, ok := sess.Store().Element(id)
	if !ok {
		return nil, usageErrorf("element %s is not rendered", id)
	}

	ar := newActiveRender(sess)
	ctx = withActive(ctx, ar)
	if err := ar.renderElement(ctx, live.Clone()); err != nil {
		return nil, err
	}
	ar.sweepOrphans(ctx)
	ar.flushHooks(ctx)
	return ar.collector.Patches(), nil
}

// RenderDirty runs one incremental pass: it drains the dirty set,
// re-executes each element shallowest-first, and returns the resulting
// patches. Elements covered by an ancestor's re-render are skipped,
// since re-rendering a subtree already re-executed them. An empty dirty
// set yields an empty patch list.
func RenderDirty(ctx context.Context, sess *session.Session) ([]patch.Patch, error) {
	ctx, release := sess.Enter(ctx)
	defer release()

	ids := sess.TakeDirty(ctx)
	if len(ids) == 0 {
		return nil, nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Dirty pass starting.", "session", sess.ID(), "dirty", len(ids))

	ar := newActiveRender(sess)
	ctx = withActive(ctx, ar)

	for i, id := range ids {
		if ar.covered(id) {
			logger.Debug("Skipping dirty element covered by ancestor re-render.", "elementID", id)
			continue
		}
		live, ok := sess.Store().Element(id)
		if !ok {
			// Evicted since it was marked; nothing left to re-render.
			continue
		}
		// Re-execute on a clone so the snapshot keeps the old record.
		if err := ar.renderElement(ctx, live.Clone()); err != nil {
			// The remainder was popped but never processed; put it back so
			// those invalidations survive into the next pass.
			for _, rest := range ids[i+1:] {
				sess.MarkDirty(ctx, rest)
			}
			return nil, err
		}
	}

	ar.sweepOrphans(ctx)
	ar.flushHooks(ctx)
	return ar.collector.Patches(), nil
}
