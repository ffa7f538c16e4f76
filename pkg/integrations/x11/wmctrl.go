package x11

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/deskflow/deskflow/pkg/integrations/process"
	"github.com/deskflow/deskflow/pkg/window"
)

// WmctrlLister implements window.Lister by shelling out to wmctrl, for
// sessions where a direct X connection is refused.
type WmctrlLister struct {
	hasWmctrl  bool
	hasXdotool bool
	procs      *process.Reader
	filter     window.Filter
	run        func(name string, args ...string) ([]byte, error)
}

var _ window.Lister = (*WmctrlLister)(nil)

// NewWmctrlLister creates a wmctrl-backed lister
func NewWmctrlLister(filter window.Filter) *WmctrlLister {
	l := &WmctrlLister{
		procs:  process.NewReader(""),
		filter: filter,
		run:    runCommand,
	}
	l.hasWmctrl = commandExists("wmctrl")
	l.hasXdotool = commandExists("xdotool")
	return l
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// IsAvailable checks if wmctrl is installed
func (l *WmctrlLister) IsAvailable() bool {
	return l.hasWmctrl
}

func (l *WmctrlLister) DisplayServer() string {
	return "x11"
}

func (l *WmctrlLister) VisibleWindows() ([]window.WindowKey, error) {
	infos, err := l.list()
	if err != nil {
		return nil, err
	}
	return window.Keys(infos), nil
}

func (l *WmctrlLister) list() ([]window.WindowInfo, error) {
	output, err := l.run("wmctrl", "-l", "-p")
	if err != nil {
		return nil, fmt.Errorf("failed to execute wmctrl: %w", err)
	}

	var infos []window.WindowInfo
	for _, row := range parseWmctrl(string(output)) {
		if row.desktop < 0 {
			// sticky windows are panels and docks
			continue
		}
		info := l.toInfo(row)
		if !l.filter.Keep(info.Title, info.ProcessName) {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ActiveWindow resolves the focused window through xdotool.
func (l *WmctrlLister) ActiveWindow() (*window.WindowInfo, error) {
	if !l.hasXdotool {
		return nil, fmt.Errorf("xdotool is required to query the active window")
	}

	out, err := l.run("xdotool", "getactivewindow")
	if err != nil {
		return nil, fmt.Errorf("failed to get active x11 window ID: %w", err)
	}
	activeID, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid window ID from xdotool: %w", err)
	}

	output, err := l.run("wmctrl", "-l", "-p")
	if err != nil {
		return nil, fmt.Errorf("failed to execute wmctrl: %w", err)
	}
	for _, row := range parseWmctrl(string(output)) {
		if row.id == activeID {
			info := l.toInfo(row)
			return &info, nil
		}
	}

	return nil, fmt.Errorf("could not find active window")
}

func (l *WmctrlLister) Close() error {
	return nil
}

func (l *WmctrlLister) toInfo(row wmctrlRow) window.WindowInfo {
	name := window.UnknownProcess
	if row.pid > 0 {
		if n, err := l.procs.Name(row.pid); err == nil {
			name = n
		}
	}
	return window.WindowInfo{
		WindowKey:     window.WindowKey{Title: row.title, ProcessName: name},
		AppName:       name,
		PID:           row.pid,
		DisplayServer: "x11",
	}
}

type wmctrlRow struct {
	id      uint64
	desktop int
	pid     int
	title   string
}

// parseWmctrl parses `wmctrl -l -p` output:
//
//	0x03a00003  0 4242   host Title words
func parseWmctrl(output string) []wmctrlRow {
	var rows []wmctrlRow
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		id, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 32)
		if err != nil {
			continue
		}
		desktop, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		pid, _ := strconv.Atoi(fields[2])

		rows = append(rows, wmctrlRow{
			id:      id,
			desktop: desktop,
			pid:     pid,
			title:   strings.Join(fields[4:], " "),
		})
	}
	return rows
}
