package platform

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"
)

// DefaultBackend is used when no backend name is given.
const DefaultBackend = "tcell"

var ErrUnknownBackend = errors.New("unknown backend")

type WindowConfig struct {
	PositionX   int
	PositionY   int
	Width       int
	Height      int
	BorderWidth int
	Title       string
	Background  color.RGBA
	Resizable   bool
}

type PlatformWindowWrapper interface {
	Show()
	Close()
	Size() (int, int)
	NextEventTimeout(timeoutMs int) Event
	BeginFrame()
	EndFrame()
	NewPlatformImageWrapper(img *image.RGBA, offsetX, offsetY int) PlatformImageWrapper
}

type PlatformImageWrapper interface {
	Update(rect image.Rectangle)
	Delete()
}

// Factory opens a native window for the given configuration.
type Factory func(conf WindowConfig) (PlatformWindowWrapper, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a backend available by name. Backends register themselves
// from init, the way database/sql drivers do.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("platform: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("platform: Register called twice for backend " + name)
	}
	factories[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	if name == "" {
		name = DefaultBackend
	}
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownBackend, name, Backends())
	}
	return factory, nil
}

// Open creates a window on the named backend.
func Open(name string, conf WindowConfig) (PlatformWindowWrapper, error) {
	factory, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(conf)
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
