//go:build !windows

package hotkey

import (
	"errors"
	"log/slog"

	"inputmacro/internal/macro"
)

// Open fails on platforms without global hotkey support.
func Open(logger *slog.Logger) (*Dispatcher, error) {
	return nil, &macro.SetupError{Op: "open hotkey window", Err: errors.New("global hotkeys not supported on this platform")}
}
