package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultProcRoot is where the kernel exposes process information.
const DefaultProcRoot = "/proc"

// Info describes one running process.
type Info struct {
	PID     int
	Name    string
	Cmdline string
}

// Reader resolves process information from a procfs mount.
type Reader struct {
	root string
}

// NewReader creates a Reader rooted at root. An empty root means /proc.
func NewReader(root string) *Reader {
	if root == "" {
		root = DefaultProcRoot
	}
	return &Reader{root: root}
}

// IsAvailable checks if the procfs root exists
func (r *Reader) IsAvailable() bool {
	_, err := os.Stat(r.root)
	return err == nil
}

// Name returns the command name of pid as recorded in /proc/<pid>/stat.
func (r *Reader) Name(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}
	info, err := r.read(pid)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// ListProcesses returns the running processes, minus kernel threads and the
// system daemons nobody wants to see in an activity report.
func (r *Reader) ListProcesses() ([]Info, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.root, err)
	}

	var procs []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		info, err := r.read(pid)
		if err != nil {
			// process exited between ReadDir and read
			continue
		}
		if info.Cmdline == "" || isSystemProcess(info.Name) {
			continue
		}
		procs = append(procs, *info)
	}

	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })
	return procs, nil
}

func (r *Reader) read(pid int) (*Info, error) {
	info := &Info{PID: pid}

	statData, err := os.ReadFile(filepath.Join(r.root, strconv.Itoa(pid), "stat"))
	if err != nil {
		return nil, err
	}
	name, err := parseStatName(string(statData))
	if err != nil {
		return nil, err
	}
	info.Name = name

	if cmdData, err := os.ReadFile(filepath.Join(r.root, strconv.Itoa(pid), "cmdline")); err == nil {
		info.Cmdline = strings.TrimSpace(strings.ReplaceAll(string(cmdData), "\x00", " "))
	}

	return info, nil
}

// parseStatName extracts the comm field, which sits between the first '('
// and the last ')' and may itself contain spaces or parentheses.
func parseStatName(stat string) (string, error) {
	startIdx := strings.Index(stat, "(")
	endIdx := strings.LastIndex(stat, ")")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return "", fmt.Errorf("malformed stat line")
	}
	return stat[startIdx+1 : endIdx], nil
}

var systemProcesses = []string{
	"systemd", "kthreadd", "dbus-daemon", "dbus-broker", "init",
	"pulseaudio", "pipewire", "wireplumber", "bluetoothd",
	"ssh-agent", "gpg-agent", "dconf-service", "gvfsd", "at-spi",
	"polkitd", "udisksd", "rtkit-daemon", "Xorg", "Xwayland",
}

func isSystemProcess(name string) bool {
	for _, blocked := range systemProcesses {
		if name == blocked || strings.HasPrefix(name, blocked) {
			return true
		}
	}
	return false
}
