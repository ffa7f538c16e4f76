package window

import "strings"

// Filter drops windows that belong to the desktop shell rather than to an
// application the user is working in.
type Filter struct {
	SkipTitles    []string // substring match
	SkipProcesses []string // case-insensitive exact match
}

// DefaultFilter returns the shell and panel windows skipped by default.
func DefaultFilter() Filter {
	return Filter{
		SkipTitles: []string{
			"Program Manager",
			"Settings",
			"Windows Input Experience",
			"Desktop Icons",
		},
		SkipProcesses: []string{
			"gnome-shell",
			"plasmashell",
			"xfdesktop",
			"xfce4-panel",
			"nautilus-desktop",
			"polybar",
			"tint2",
			"conky",
		},
	}
}

// Keep reports whether a window with the given title and process should be
// part of a snapshot.
func (f Filter) Keep(title, processName string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	for _, t := range f.SkipTitles {
		if strings.Contains(title, t) {
			return false
		}
	}
	for _, p := range f.SkipProcesses {
		if strings.EqualFold(processName, p) {
			return false
		}
	}
	return true
}
