package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/render"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/state"
	"github.com/vk/weft/internal/transport"
)

// Loop drives one session over one transport. Events are processed
// strictly in arrival order; each event's render pass completes (and its
// batch is sent) before the next event is read.
type Loop struct {
	sess      *session.Session
	tr        transport.Transport
	root      component.Component
	rootProps *component.Props

	// OnUserError observes errors raised by component or handler code.
	// The loop keeps running after calling it; nil means log-only.
	OnUserError func(err error)
}

// New builds a loop. root is the composition rendered on hello.
func New(sess *session.Session, tr transport.Transport, root component.Component, rootProps *component.Props) *Loop {
	return &Loop{sess: sess, tr: tr, root: root, rootProps: rootProps}
}

// Run processes events until the transport closes, the client sends a
// close event, or ctx is canceled. The session is closed on the way out.
func (l *Loop) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("sessionID", l.sess.ID())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Session loop started.")

	defer func() {
		sctx, release := l.sess.Enter(context.WithoutCancel(ctx))
		l.sess.Close(sctx)
		release()
		_ = l.tr.Close()
		logger.Debug("Session loop finished.")
	}()

	for {
		ev, err := l.tr.Receive(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("session %s: receiving event: %w", l.sess.ID(), err)
		}

		switch ev.Type {
		case transport.EventHello:
			if err := l.handleHello(ctx); err != nil {
				return err
			}
		case transport.EventCallback:
			if err := l.handleCallback(ctx, ev); err != nil {
				return err
			}
		case transport.EventClose:
			logger.Debug("Client requested close.")
			return nil
		default:
			logger.Debug("Ignoring unknown event type.", "type", ev.Type)
		}
	}
}

// Invoke runs fn under the session lock and flushes the render pass its
// writes made necessary. It is the entry point for mutations that come
// from outside the event loop, like timers or server pushes.
func (l *Loop) Invoke(ctx context.Context, fn func(ctx context.Context) error) error {
	sctx, release := l.sess.Enter(ctx)
	err := fn(sctx)
	release()
	if err != nil {
		l.userError(ctx, fmt.Errorf("invoke on session %s: %w", l.sess.ID(), err))
		return err
	}
	return l.flushDirty(ctx)
}

func (l *Loop) handleHello(ctx context.Context) error {
	_, patches, err := render.RenderRoot(ctx, l.sess, l.root, l.rootProps)
	if err != nil {
		l.userError(ctx, err)
		return nil
	}
	return l.send(ctx, patches)
}

func (l *Loop) handleCallback(ctx context.Context, ev *transport.Event) error {
	logger := ctxlog.FromContext(ctx)

	sctx, release := l.sess.Enter(ctx)
	handler, err := l.sess.ResolveCallback(sctx, ev.Ref)
	if err != nil {
		release()
		// A stale reference is normal: the element may have been evicted
		// between the client's click and its arrival here.
		logger.Debug("Dropping unresolvable callback.", "ref", ev.Ref, "error", err)
		return nil
	}
	// Reads inside a callback are not render dependencies.
	err = invokeHandler(state.WithoutObserver(sctx), handler, ev.Args)
	release()
	if err != nil {
		l.userError(ctx, fmt.Errorf("callback %s: %w", ev.Ref, err))
		return nil
	}
	return l.flushDirty(ctx)
}

// flushDirty runs one dirty pass and sends its batch, if any.
func (l *Loop) flushDirty(ctx context.Context) error {
	patches, err := render.RenderDirty(ctx, l.sess)
	if err != nil {
		l.userError(ctx, err)
		return nil
	}
	return l.send(ctx, patches)
}

func (l *Loop) send(ctx context.Context, patches []patch.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	batch := &transport.Batch{SessionID: l.sess.ID(), Patches: patches}
	if err := l.tr.Send(ctx, batch); err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return nil
		}
		return fmt.Errorf("session %s: sending batch: %w", l.sess.ID(), err)
	}
	return nil
}

func (l *Loop) userError(ctx context.Context, err error) {
	ctxlog.FromContext(ctx).Error("Component code failed.", "error", err)
	if l.OnUserError != nil {
		l.OnUserError(err)
	}
}
