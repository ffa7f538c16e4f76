// Package wayland lists windows on Wayland compositors that expose an IPC
// socket: sway through swaymsg and Hyprland through hyprctl.
package wayland

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/deskflow/deskflow/pkg/integrations/process"
	"github.com/deskflow/deskflow/pkg/window"
)

const (
	CompositorSway     = "sway"
	CompositorHyprland = "hyprland"
	CompositorUnknown  = "unknown"
)

// Lister implements window.Lister over compositor IPC.
type Lister struct {
	compositor string
	procs      *process.Reader
	filter     window.Filter
	run        func(name string, args ...string) ([]byte, error)
	lookPath   func(name string) (string, error)
}

var _ window.Lister = (*Lister)(nil)

// NewLister detects the running compositor and returns a lister for it.
func NewLister(filter window.Filter) *Lister {
	return &Lister{
		compositor: detectCompositor(),
		procs:      process.NewReader(""),
		filter:     filter,
		run:        runCommand,
		lookPath:   exec.LookPath,
	}
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// detectCompositor prefers the IPC environment variables and falls back to
// looking for the compositor process.
func detectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return CompositorSway
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return CompositorHyprland
	}

	for proc, name := range map[string]string{"sway": CompositorSway, "Hyprland": CompositorHyprland} {
		if err := exec.Command("pgrep", "-x", proc).Run(); err == nil {
			return name
		}
	}
	return CompositorUnknown
}

func (l *Lister) Compositor() string {
	return l.compositor
}

// IsAvailable checks that the compositor's IPC client is installed
func (l *Lister) IsAvailable() bool {
	var tool string
	switch l.compositor {
	case CompositorSway:
		tool = "swaymsg"
	case CompositorHyprland:
		tool = "hyprctl"
	default:
		return false
	}
	_, err := l.lookPath(tool)
	return err == nil
}

func (l *Lister) DisplayServer() string {
	return "wayland"
}

func (l *Lister) VisibleWindows() ([]window.WindowKey, error) {
	infos, err := l.list()
	if err != nil {
		return nil, err
	}
	return window.Keys(infos), nil
}

func (l *Lister) ActiveWindow() (*window.WindowInfo, error) {
	views, err := l.views()
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if v.focused {
			info := l.toInfo(v)
			return &info, nil
		}
	}
	return nil, fmt.Errorf("could not find active window")
}

func (l *Lister) Close() error {
	return nil
}

func (l *Lister) list() ([]window.WindowInfo, error) {
	views, err := l.views()
	if err != nil {
		return nil, err
	}

	infos := make([]window.WindowInfo, 0, len(views))
	for _, v := range views {
		if !v.visible {
			continue
		}
		info := l.toInfo(v)
		if !l.filter.Keep(info.Title, info.ProcessName) {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// view is a compositor-neutral window record.
type view struct {
	title   string
	appID   string
	pid     int
	visible bool
	focused bool
}

func (l *Lister) views() ([]view, error) {
	switch l.compositor {
	case CompositorSway:
		out, err := l.run("swaymsg", "-t", "get_tree", "-r")
		if err != nil {
			return nil, fmt.Errorf("failed to execute swaymsg: %w", err)
		}
		return parseSwayTree(out)

	case CompositorHyprland:
		out, err := l.run("hyprctl", "clients", "-j")
		if err != nil {
			return nil, fmt.Errorf("failed to execute hyprctl: %w", err)
		}
		var active map[int]bool
		if mon, err := l.run("hyprctl", "monitors", "-j"); err == nil {
			active, _ = parseHyprlandMonitors(mon)
		}
		var focusedAddr string
		if aw, err := l.run("hyprctl", "activewindow", "-j"); err == nil {
			focusedAddr = parseHyprlandActiveAddress(aw)
		}
		return parseHyprlandClients(out, active, focusedAddr)

	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", l.compositor)
	}
}

func (l *Lister) toInfo(v view) window.WindowInfo {
	name := ""
	if v.pid > 0 {
		if n, err := l.procs.Name(v.pid); err == nil {
			name = n
		}
	}
	if name == "" && v.appID != "" {
		name = strings.ToLower(v.appID)
	}
	if name == "" {
		name = window.UnknownProcess
	}

	appName := v.appID
	if appName == "" {
		appName = name
	}

	return window.WindowInfo{
		WindowKey:     window.WindowKey{Title: v.title, ProcessName: name},
		AppName:       appName,
		PID:           v.pid,
		DisplayServer: "wayland",
	}
}

type swayNode struct {
	Type             string      `json:"type"`
	Name             *string     `json:"name"`
	AppID            *string     `json:"app_id"`
	PID              int         `json:"pid"`
	Focused          bool        `json:"focused"`
	Visible          *bool       `json:"visible"`
	WindowProperties *struct {
		Class string `json:"class"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

// parseSwayTree flattens `swaymsg -t get_tree` into its leaf views.
func parseSwayTree(data []byte) ([]view, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	var views []view
	var walk func(n swayNode)
	walk = func(n swayNode) {
		if n.PID > 0 && len(n.Nodes) == 0 && len(n.FloatingNodes) == 0 {
			v := view{pid: n.PID, focused: n.Focused, visible: n.Visible != nil && *n.Visible}
			if n.Name != nil {
				v.title = *n.Name
			}
			if n.AppID != nil && *n.AppID != "" {
				v.appID = *n.AppID
			} else if n.WindowProperties != nil {
				v.appID = n.WindowProperties.Class
			}
			views = append(views, v)
			return
		}
		for _, c := range n.Nodes {
			walk(c)
		}
		for _, c := range n.FloatingNodes {
			walk(c)
		}
	}
	walk(root)
	return views, nil
}

type hyprlandClient struct {
	Address   string `json:"address"`
	Mapped    bool   `json:"mapped"`
	Hidden    bool   `json:"hidden"`
	Class     string `json:"class"`
	Title     string `json:"title"`
	PID       int    `json:"pid"`
	Workspace struct {
		ID int `json:"id"`
	} `json:"workspace"`
}

// parseHyprlandClients converts `hyprctl clients -j`. A client is visible
// when mapped, not hidden and on a workspace shown on some monitor; with no
// monitor information the workspace check is skipped.
func parseHyprlandClients(data []byte, activeWorkspaces map[int]bool, focusedAddr string) ([]view, error) {
	var clients []hyprlandClient
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("failed to parse hyprland clients: %w", err)
	}

	views := make([]view, 0, len(clients))
	for _, c := range clients {
		visible := c.Mapped && !c.Hidden
		if visible && activeWorkspaces != nil {
			visible = activeWorkspaces[c.Workspace.ID]
		}
		views = append(views, view{
			title:   c.Title,
			appID:   c.Class,
			pid:     c.PID,
			visible: visible,
			focused: focusedAddr != "" && c.Address == focusedAddr,
		})
	}
	return views, nil
}

// parseHyprlandMonitors returns the workspace ids currently shown.
func parseHyprlandMonitors(data []byte) (map[int]bool, error) {
	var monitors []struct {
		ActiveWorkspace struct {
			ID int `json:"id"`
		} `json:"activeWorkspace"`
	}
	if err := json.Unmarshal(data, &monitors); err != nil {
		return nil, err
	}
	active := make(map[int]bool, len(monitors))
	for _, m := range monitors {
		active[m.ActiveWorkspace.ID] = true
	}
	return active, nil
}

func parseHyprlandActiveAddress(data []byte) string {
	var w struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return ""
	}
	return w.Address
}
