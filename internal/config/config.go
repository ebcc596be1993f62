// Package config loads the settings of the show-image program from an
// optional config file and GOSHOW_* environment variables.
package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/kjkrol/goshow/pkg/show"
)

// Config holds all program configuration.
type Config struct {
	Backend string       `mapstructure:"backend" validate:"required,oneof=tcell headless x11 sdl"`
	Window  WindowConfig `mapstructure:"window" validate:"required"`
	Loop    LoopConfig   `mapstructure:"loop" validate:"required"`
	Log     LogConfig    `mapstructure:"log" validate:"required"`
}

// WindowConfig describes the window opened for the image.
type WindowConfig struct {
	Title      string `mapstructure:"title"`
	Width      int    `mapstructure:"width" validate:"gt=0"`
	Height     int    `mapstructure:"height" validate:"gt=0"`
	Background string `mapstructure:"background" validate:"required,hexcolor,len=7"`
	Resizable  bool   `mapstructure:"resizable"`
}

// LoopConfig tunes the event loop.
type LoopConfig struct {
	RefreshRate int `mapstructure:"refresh_rate" validate:"gte=1,lte=240"`
	// DrainMax limits native events per window and iteration; 0 drains all.
	DrainMax    int `mapstructure:"drain_max" validate:"gte=0"`
	EventBuffer int `mapstructure:"event_buffer" validate:"gte=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// WindowOptions converts the window settings to library options.
func (c *Config) WindowOptions() (show.WindowOptions, error) {
	bg, err := ParseHexColor(c.Window.Background)
	if err != nil {
		return show.WindowOptions{}, err
	}
	return show.WindowOptions{
		Title:      c.Window.Title,
		Width:      c.Window.Width,
		Height:     c.Window.Height,
		Background: bg,
		Resizable:  c.Window.Resizable,
	}, nil
}

// AppOptions converts the backend and loop settings to library options.
func (c *Config) AppOptions() []show.Option {
	strategy := show.DrainAll()
	if c.Loop.DrainMax > 0 {
		strategy = show.DrainMax(c.Loop.DrainMax)
	}
	return []show.Option{
		show.WithBackend(c.Backend),
		show.WithRefreshRate(c.Loop.RefreshRate),
		show.WithEventsStrategy(strategy),
		show.WithEventBufferSize(c.Loop.EventBuffer),
	}
}

// ParseHexColor parses "#rrggbb" into an opaque colour.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
