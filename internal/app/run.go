package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/transport/sio"
	"github.com/vk/weft/internal/transport/wsock"
)

// Run starts the HTTP listener with the Socket.IO endpoint and blocks
// until ctx is canceled, then shuts everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	sioServer := sio.NewServer(ctx, a.serveSession)
	defer sioServer.Close()

	upgrader := wsock.NewUpgrader()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", sioServer.Handler())
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r)
		if err != nil {
			a.logger.Warn("WebSocket upgrade failed.", "remote_addr", r.RemoteAddr, "error", err)
			return
		}
		go a.serveSession(ctx, conn, r.RemoteAddr)
	})

	httpServer := &http.Server{
		Addr:    a.config.ListenAddr,
		Handler: mux,
	}

	health := a.startHealthcheck(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🕸️  Server starting", "address", a.config.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed.", "error", err)
		shutdownErr = err
	}
	if health != nil {
		if err := health.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Health check server shutdown failed.", "error", err)
		}
	}
	<-errCh
	a.logger.Debug("App.Run method finished.")
	return shutdownErr
}
