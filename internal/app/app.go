package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/engine"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/transport"
)

// App encapsulates the server's dependencies, configuration, and
// lifecycle. One App serves many sessions; each connected client gets its
// own session and event loop.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *component.Registry
	root     component.Component

	nextSession atomic.Uint64

	mu    sync.Mutex
	loops map[string]*engine.Loop
}

// New is the constructor for the main application. rootName must resolve
// in the registry to the composition rendered at the top of every
// session.
func New(outW io.Writer, cfg *Config, reg *component.Registry, rootName string) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	root, ok := reg.Lookup(rootName)
	if !ok {
		return nil, fmt.Errorf("root component %q is not registered", rootName)
	}
	if root.Kind() != component.KindComposition {
		return nil, fmt.Errorf("root component %q is a %s, not a composition", rootName, root.Kind())
	}
	logger.Debug("Root component resolved.", "name", rootName, "registered", reg.Len())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		root:     root,
		loops:    make(map[string]*engine.Loop),
	}, nil
}

// Registry returns the application's component registry. This is
// primarily for testing.
func (a *App) Registry() *component.Registry {
	return a.registry
}

// serveSession runs one client's event loop to completion.
func (a *App) serveSession(ctx context.Context, conn transport.Transport, clientID string) {
	id := a.sessionID(clientID)
	logger := ctxlog.FromContext(ctx).With("sessionID", id)
	ctx = ctxlog.WithLogger(ctx, logger)

	sess := session.New(id)
	loop := engine.New(sess, conn, a.root, nil)

	a.mu.Lock()
	a.loops[id] = loop
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.loops, id)
		a.mu.Unlock()
	}()

	logger.Info("Session started.")
	if err := loop.Run(ctx); err != nil {
		logger.Error("Session loop failed.", "error", err)
		return
	}
	logger.Info("Session finished.")
}

// Broadcast runs fn once per live session, under each session's lock, and
// flushes the resulting render passes. Server-side pushes use this.
func (a *App) Broadcast(ctx context.Context, fn func(ctx context.Context) error) {
	a.mu.Lock()
	loops := make([]*engine.Loop, 0, len(a.loops))
	for _, l := range a.loops {
		loops = append(loops, l)
	}
	a.mu.Unlock()

	for _, l := range loops {
		if err := l.Invoke(ctx, fn); err != nil {
			ctxlog.FromContext(ctx).Warn("Broadcast invoke failed.", "error", err)
		}
	}
}

// SessionCount reports the number of live sessions.
func (a *App) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.loops)
}

func (a *App) sessionID(clientID string) string {
	return "s" + strconv.FormatUint(a.nextSession.Add(1), 10) + "-" + clientID
}
