// Command show-image displays an image in a window until the window is
// closed or Escape is pressed.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kjkrol/goshow/internal/config"
	"github.com/kjkrol/goshow/internal/logger"
	"github.com/kjkrol/goshow/pkg/show"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const program = "show-image"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a config file (yaml, toml or json)")
	backend := flags.String("backend", "", "window backend: tcell, headless, x11 or sdl")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, &show.UsageError{Program: program})
		return exitUsage
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(stderr, &show.UsageError{Program: program})
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	path := flags.Arg(0)
	img, err := show.OpenImage(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	info, err := show.ImageInfoOf(img)
	if err != nil {
		fmt.Fprintln(stderr, &show.DecodeError{Path: path, Err: err})
		return exitError
	}
	fmt.Fprintln(stdout, info)

	logOut, closeLog, err := openLog(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer closeLog()
	log, err := logger.Setup(cfg.Log, logOut)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if err := display(cfg, imageName(path), img, log); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	return exitOK
}

func display(cfg *config.Config, name string, img image.Image, log *slog.Logger) error {
	if cfg.Backend == "tcell" && !(term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))) {
		return &show.BackendError{Op: "create window", Err: errors.New("tcell backend needs a terminal")}
	}

	opts, err := cfg.WindowOptions()
	if err != nil {
		return err
	}
	app, err := show.NewApp(append(cfg.AppOptions(), show.WithLogger(log))...)
	if err != nil {
		return err
	}
	window, err := app.CreateWindow(opts)
	if err != nil {
		return err
	}
	if err := window.SetImage(name, img); err != nil {
		return err
	}
	if err := window.AddEventHandlerFunc(closeOnEscape(window, log)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return app.Run(ctx)
}

// closeOnEscape destroys the window when Escape is pressed. The window
// may already be closing, so a failed Destroy is only logged.
func closeOnEscape(window *show.Window, log *slog.Logger) func(ctx *show.EventHandlerContext) {
	return func(ctx *show.EventHandlerContext) {
		key, ok := ctx.Event().(show.KeyPress)
		if !ok || key.Code != show.KeyEscape {
			return
		}
		if err := window.Destroy(); err != nil {
			log.Debug("destroy on escape failed", "window", ctx.Window().ID(), "error", err)
		}
	}
}

// openLog picks where logs go. The terminal backend owns the screen, so
// without a log file logs are discarded there.
func openLog(cfg *config.Config, stderr io.Writer) (io.Writer, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	if cfg.Backend == "tcell" {
		return io.Discard, func() {}, nil
	}
	return stderr, func() {}, nil
}

func imageName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "image"
	}
	return name
}
