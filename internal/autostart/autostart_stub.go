//go:build !windows

package autostart

import (
	"fmt"
	"runtime"
)

// Enable enables auto-start on login
func Enable(args ...string) error {
	return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

// Disable disables auto-start on login
func Disable() error {
	return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return false
}
