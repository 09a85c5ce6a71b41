// Package autostart registers traybrief as a freedesktop login item by
// managing a .desktop entry under the user's autostart directory.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

const entryName = "traybrief.desktop"

// Manager writes and removes the autostart desktop entry.
type Manager struct {
	dir  string
	exec string
}

// New resolves the autostart directory and the current executable path.
func New() (*Manager, error) {
	exec, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return &Manager{dir: filepath.Join(dir, "autostart"), exec: exec}, nil
}

func (m *Manager) entryPath() string {
	return filepath.Join(m.dir, entryName)
}

// Enabled reports whether the desktop entry exists.
func (m *Manager) Enabled() bool {
	_, err := os.Stat(m.entryPath())
	return err == nil
}

// Enable writes the desktop entry, creating the directory if needed.
func (m *Manager) Enable() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=traybrief
Exec=%s run
X-GNOME-Autostart-enabled=true
`, m.exec)
	if err := os.WriteFile(m.entryPath(), []byte(entry), 0o644); err != nil {
		return fmt.Errorf("write autostart entry: %w", err)
	}
	return nil
}

// Disable removes the desktop entry. A missing entry is not an error.
func (m *Manager) Disable() error {
	if err := os.Remove(m.entryPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove autostart entry: %w", err)
	}
	return nil
}
