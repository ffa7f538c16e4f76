package window

// UnknownProcess is reported when a window's owning process cannot be resolved.
const UnknownProcess = "<unknown>"

// WindowKey identifies a trackable window. Two snapshots refer to the same
// window only when both fields match exactly.
type WindowKey struct {
	Title       string `json:"title"`
	ProcessName string `json:"process_name"`
}

// WindowInfo describes a single window as reported by a display server.
type WindowInfo struct {
	WindowKey
	AppName       string `json:"app_name"`       // WM_CLASS class when known, otherwise the process name
	PID           int    `json:"pid"`
	DisplayServer string `json:"display_server"` // "x11"
}

// Lister enumerates the windows visible on the desktop.
type Lister interface {
	// VisibleWindows returns every window currently visible. The result may be
	// empty and may contain duplicate keys.
	VisibleWindows() ([]WindowKey, error)

	// ActiveWindow returns the window holding input focus.
	ActiveWindow() (*WindowInfo, error)

	// IsAvailable checks if this lister can run on the current system
	IsAvailable() bool

	// DisplayServer returns the display server type
	DisplayServer() string

	// Close cleans up any resources used by the lister
	Close() error
}

// Keys extracts the identity of each window in infos.
func Keys(infos []WindowInfo) []WindowKey {
	keys := make([]WindowKey, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.WindowKey)
	}
	return keys
}
