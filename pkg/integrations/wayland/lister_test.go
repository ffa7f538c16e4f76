package wayland

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/deskflow/pkg/integrations/process"
	"github.com/deskflow/deskflow/pkg/window"
)

const swayTree = `{
  "type": "root", "pid": 0, "nodes": [
    {"type": "output", "name": "eDP-1", "nodes": [
      {"type": "workspace", "name": "1", "nodes": [
        {"type": "con", "name": "main.go - Code", "app_id": "code", "pid": 4242, "focused": true, "visible": true, "nodes": []},
        {"type": "con", "name": "Spotify Premium", "app_id": null, "pid": 4343, "focused": false, "visible": true,
         "window_properties": {"class": "Spotify"}, "nodes": []}
      ], "floating_nodes": [
        {"type": "floating_con", "name": "Top Bar", "app_id": "gnome-shell", "pid": 10, "visible": true, "nodes": []}
      ]},
      {"type": "workspace", "name": "2", "nodes": [
        {"type": "con", "name": "Hidden Chat", "app_id": "discord", "pid": 4444, "visible": false, "nodes": []}
      ]}
    ]}
  ]
}`

const hyprClients = `[
  {"address": "0x1", "mapped": true, "hidden": false, "class": "firefox", "title": "YouTube - Mozilla Firefox", "pid": 100, "workspace": {"id": 1}},
  {"address": "0x2", "mapped": true, "hidden": false, "class": "kitty", "title": "zsh", "pid": 101, "workspace": {"id": 3}},
  {"address": "0x3", "mapped": false, "hidden": false, "class": "ghost", "title": "ghost", "pid": 102, "workspace": {"id": 1}}
]`

func fakeRun(outputs map[string]string) func(string, ...string) ([]byte, error) {
	return func(name string, args ...string) ([]byte, error) {
		key := name
		if len(args) > 0 {
			key += " " + args[0]
			if len(args) > 1 {
				key += " " + args[1]
			}
		}
		out, ok := outputs[key]
		if !ok {
			return nil, errors.New("unexpected command " + key)
		}
		return []byte(out), nil
	}
}

func newTestLister(t *testing.T, compositor string, outputs map[string]string) *Lister {
	return &Lister{
		compositor: compositor,
		procs:      process.NewReader(t.TempDir()),
		filter:     window.DefaultFilter(),
		run:        fakeRun(outputs),
		lookPath:   func(string) (string, error) { return "/usr/bin/tool", nil },
	}
}

func TestSwayVisibleWindows(t *testing.T) {
	l := newTestLister(t, CompositorSway, map[string]string{"swaymsg -t get_tree": swayTree})

	keys, err := l.VisibleWindows()
	require.NoError(t, err)
	assert.Equal(t, []window.WindowKey{
		{Title: "main.go - Code", ProcessName: "code"},
		{Title: "Spotify Premium", ProcessName: "spotify"},
	}, keys)
}

func TestSwayActiveWindow(t *testing.T) {
	l := newTestLister(t, CompositorSway, map[string]string{"swaymsg -t get_tree": swayTree})

	info, err := l.ActiveWindow()
	require.NoError(t, err)
	assert.Equal(t, "main.go - Code", info.Title)
	assert.Equal(t, 4242, info.PID)
	assert.Equal(t, "wayland", info.DisplayServer)
}

func TestHyprlandVisibleWindows(t *testing.T) {
	l := newTestLister(t, CompositorHyprland, map[string]string{
		"hyprctl clients -j":      hyprClients,
		"hyprctl monitors -j":     `[{"activeWorkspace": {"id": 1}}]`,
		"hyprctl activewindow -j": `{"address": "0x1"}`,
	})

	keys, err := l.VisibleWindows()
	require.NoError(t, err)
	assert.Equal(t, []window.WindowKey{{Title: "YouTube - Mozilla Firefox", ProcessName: "firefox"}}, keys)

	info, err := l.ActiveWindow()
	require.NoError(t, err)
	assert.Equal(t, "firefox", info.AppName)
}

func TestHyprlandWithoutMonitors(t *testing.T) {
	l := newTestLister(t, CompositorHyprland, map[string]string{"hyprctl clients -j": hyprClients})

	keys, err := l.VisibleWindows()
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	_, err = l.ActiveWindow()
	assert.Error(t, err)
}

func TestCommandFailure(t *testing.T) {
	l := newTestLister(t, CompositorSway, map[string]string{})

	_, err := l.VisibleWindows()
	assert.Error(t, err)
}

func TestUnknownCompositor(t *testing.T) {
	l := newTestLister(t, CompositorUnknown, nil)

	assert.False(t, l.IsAvailable())
	_, err := l.VisibleWindows()
	assert.Error(t, err)
}

func TestParseSwayTreeInvalid(t *testing.T) {
	_, err := parseSwayTree([]byte("not json"))
	assert.Error(t, err)
}
