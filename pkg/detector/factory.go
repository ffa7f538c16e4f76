package detector

import (
	"fmt"
	"os"

	"github.com/deskflow/deskflow/pkg/integrations/wayland"
	"github.com/deskflow/deskflow/pkg/integrations/x11"
	"github.com/deskflow/deskflow/pkg/window"
)

// New returns the best window lister for the current session. Wayland
// sessions use compositor IPC when sway or Hyprland is running and fall back
// to XWayland. On X a direct connection is preferred and wmctrl is the fallback.
func New() (window.Lister, error) {
	return NewWithFilter(window.DefaultFilter())
}

// NewWithFilter is New with a custom window filter.
func NewWithFilter(filter window.Filter) (window.Lister, error) {
	if DetectDisplayServer() == "wayland" {
		if l := wayland.NewLister(filter); l.IsAvailable() {
			return l, nil
		}
	}

	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("no X display available (display server: %s)", DetectDisplayServer())
	}

	var connErr error
	if l, err := x11.NewLister(filter); err == nil {
		if l.IsAvailable() {
			return l, nil
		}
		l.Close()
		connErr = fmt.Errorf("window manager does not publish _NET_CLIENT_LIST")
	} else {
		connErr = err
	}

	if w := x11.NewWmctrlLister(filter); w.IsAvailable() {
		return w, nil
	}

	return nil, fmt.Errorf("no window lister available: %v; wmctrl not installed", connErr)
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
