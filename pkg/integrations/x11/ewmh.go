package x11

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/deskflow/deskflow/pkg/integrations/process"
	"github.com/deskflow/deskflow/pkg/window"
)

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"_NET_WM_STATE",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WM_WINDOW_TYPE",
	"_NET_WM_WINDOW_TYPE_DOCK",
	"_NET_WM_WINDOW_TYPE_DESKTOP",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Lister implements window.Lister by reading EWMH properties from the X server.
type Lister struct {
	mu     sync.Mutex
	conn   *xgb.Conn
	root   xproto.Window
	atoms  map[string]xproto.Atom
	procs  *process.Reader
	filter window.Filter
}

var _ window.Lister = (*Lister)(nil)

// NewLister connects to the X server named by $DISPLAY.
func NewLister(filter window.Filter) (*Lister, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	l := &Lister{
		conn:   conn,
		root:   setup.DefaultScreen(conn).Root,
		atoms:  make(map[string]xproto.Atom, len(atomNames)),
		procs:  process.NewReader(""),
		filter: filter,
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		l.atoms[name] = reply.Atom
	}

	return l, nil
}

// IsAvailable reports whether the window manager publishes a client list.
func (l *Lister) IsAvailable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := l.property(l.root, l.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 1)
	return err == nil && len(data) >= 4
}

func (l *Lister) DisplayServer() string {
	return "x11"
}

// VisibleWindows lists managed, non-minimized application windows.
func (l *Lister) VisibleWindows() ([]window.WindowKey, error) {
	infos, err := l.visibleWindowInfos()
	if err != nil {
		return nil, err
	}
	return window.Keys(infos), nil
}

func (l *Lister) visibleWindowInfos() ([]window.WindowInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.property(l.root, l.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 1<<14)
	if err != nil {
		return nil, fmt.Errorf("failed to read client list: %w", err)
	}

	var infos []window.WindowInfo
	for _, id := range decodeUint32s(data) {
		win := xproto.Window(id)
		if l.hidden(win) || l.shellWindow(win) {
			continue
		}
		info := l.describe(win)
		if !l.filter.Keep(info.Title, info.ProcessName) {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ActiveWindow returns the focused top-level window.
func (l *Lister) ActiveWindow() (*window.WindowInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	win, err := l.activeWindow()
	if err != nil {
		return nil, err
	}
	info := l.describe(win)
	return &info, nil
}

func (l *Lister) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn.Close()
	return nil
}

func (l *Lister) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(l.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (l *Lister) describe(win xproto.Window) window.WindowInfo {
	info := window.WindowInfo{
		WindowKey:     window.WindowKey{Title: l.windowName(win)},
		DisplayServer: "x11",
	}

	_, class := decodeWMClass(l.propertyOrNil(win, l.atoms["WM_CLASS"], xproto.AtomString, 256))
	info.AppName = class

	if data := l.propertyOrNil(win, l.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1); len(data) >= 4 {
		info.PID = int(binary.LittleEndian.Uint32(data))
	}
	if info.PID > 0 {
		if name, err := l.procs.Name(info.PID); err == nil {
			info.ProcessName = name
		}
	}

	switch {
	case info.ProcessName == "" && class != "":
		info.ProcessName = strings.ToLower(class)
	case info.ProcessName == "":
		info.ProcessName = window.UnknownProcess
	}
	if info.AppName == "" {
		info.AppName = info.ProcessName
	}
	return info
}

func (l *Lister) propertyOrNil(win xproto.Window, atom, atomType xproto.Atom, length uint32) []byte {
	data, err := l.property(win, atom, atomType, length)
	if err != nil {
		return nil
	}
	return data
}

func (l *Lister) windowName(win xproto.Window) string {
	if data := l.propertyOrNil(win, l.atoms["_NET_WM_NAME"], l.atoms["UTF8_STRING"], 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	if data := l.propertyOrNil(win, l.atoms["WM_NAME"], xproto.AtomString, 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (l *Lister) hidden(win xproto.Window) bool {
	states := decodeUint32s(l.propertyOrNil(win, l.atoms["_NET_WM_STATE"], xproto.AtomAtom, 32))
	return containsAtom(states, uint32(l.atoms["_NET_WM_STATE_HIDDEN"]))
}

func (l *Lister) shellWindow(win xproto.Window) bool {
	types := decodeUint32s(l.propertyOrNil(win, l.atoms["_NET_WM_WINDOW_TYPE"], xproto.AtomAtom, 32))
	return containsAtom(types, uint32(l.atoms["_NET_WM_WINDOW_TYPE_DOCK"])) ||
		containsAtom(types, uint32(l.atoms["_NET_WM_WINDOW_TYPE_DESKTOP"]))
}

func (l *Lister) activeWindow() (xproto.Window, error) {
	for i := 0; i < 5; i++ {
		if data := l.propertyOrNil(l.root, l.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1); len(data) >= 4 {
			win := xproto.Window(binary.LittleEndian.Uint32(data))
			if win != 0 && l.windowName(win) != "" {
				return win, nil
			}
		}

		if reply, err := xproto.GetInputFocus(l.conn).Reply(); err == nil && reply.Focus != 0 && reply.Focus != l.root {
			top := l.topLevelParent(reply.Focus)
			if top != 0 && l.windowName(top) != "" {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	return 0, errors.New("no active window found")
}

func (l *Lister) topLevelParent(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(l.conn, win).Reply()
		if err != nil || reply.Parent == l.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

// decodeUint32s splits a 32-bit format property into its items.
func decodeUint32s(data []byte) []uint32 {
	out := make([]uint32, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		out = append(out, binary.LittleEndian.Uint32(data[i:i+4]))
	}
	return out
}

// decodeWMClass splits WM_CLASS into instance and class names.
func decodeWMClass(data []byte) (instance, class string) {
	if len(data) == 0 {
		return "", ""
	}
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func containsAtom(list []uint32, atom uint32) bool {
	if atom == 0 {
		return false
	}
	for _, a := range list {
		if a == atom {
			return true
		}
	}
	return false
}
