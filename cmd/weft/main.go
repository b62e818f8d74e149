package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/vk/weft/internal/app"
	"github.com/vk/weft/internal/cli"
	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/render"
	"github.com/vk/weft/internal/widget"
)

// main is the entrypoint for the weft demo server.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	config, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := component.NewRegistry()
	widget.Register(reg)
	reg.Register(counterApp())

	server, err := app.New(outW, config, reg, "counter")
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

// counterApp is the demo root: a per-session click counter.
func counterApp() component.Component {
	return component.Func("counter", component.KindComposition, func(ctx context.Context, _ *component.Props) error {
		clicks, err := render.UseValue(ctx, func() int { return 0 })
		if err != nil {
			return err
		}
		n, err := clicks.Get(ctx)
		if err != nil {
			return err
		}
		return widget.Column(ctx, func(ctx context.Context) error {
			if err := widget.Text(ctx, "Clicks: "+strconv.Itoa(n)); err != nil {
				return err
			}
			return widget.Button(ctx, "Click me", func(ctx context.Context) {
				clicks.Set(ctx, n+1)
			})
		})
	})
}
