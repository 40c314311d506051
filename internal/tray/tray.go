// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"inputmacro/internal/autostart"
	"inputmacro/internal/controller"
	"inputmacro/internal/playback"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	Checked  bool
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu. It also implements
// controller.Notifier by showing each notification as the tooltip.
type Tray struct {
	mu      sync.Mutex
	items   []*MenuItem
	ready   bool
	status  string
	quitCh  chan struct{}
	onQuit  func()
	recItem int
}

// New creates a new system tray
func New(tooltip string) *Tray {
	return &Tray{
		items:   make([]*MenuItem, 0),
		status:  tooltip,
		quitCh:  make(chan struct{}),
		recItem: -1,
	}
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	})
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemTitle renames a menu item
func (t *Tray) SetItemTitle(id int, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	t.items[id].Title = title
	if t.items[id].item != nil {
		t.items[id].item.SetTitle(title)
	}
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	t.items[id].Checked = checked
	if item := t.items[id].item; item != nil {
		if checked {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetStatus shows msg as the tray tooltip
func (t *Tray) SetStatus(msg string) {
	t.mu.Lock()
	t.status = msg
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.SetTooltip(msg)
	}
}

// Status returns the last status message
func (t *Tray) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Actions are the controller operations reachable from the menu.
type Actions interface {
	ToggleRecording() error
	PlayDefault() error
	StopPlayback()
	Save(path string) (string, error)
	Load(path string) (int, error)
	Clear()
}

// BuildMenu adds the standard recorder menu. Saves and loads use the
// configured default file. onQuit runs when Quit is chosen.
func (t *Tray) BuildMenu(a Actions, onQuit func()) {
	t.recItem = t.AddMenuItem("Start recording", func() { a.ToggleRecording() })
	t.AddMenuItem("Play", func() { a.PlayDefault() })
	t.AddMenuItem("Stop playback", a.StopPlayback)
	t.AddSeparator()
	t.AddMenuItem("Save", func() {
		if path, err := a.Save(""); err == nil {
			t.SetStatus("Saved to " + path)
		}
	})
	t.AddMenuItem("Load", func() {
		if n, err := a.Load(""); err == nil {
			t.SetStatus(loadedMessage(n))
		}
	})
	t.AddMenuItem("Clear", func() {
		a.Clear()
		t.SetStatus("Recording cleared")
	})
	t.AddSeparator()
	var loginItem int
	loginItem = t.AddMenuItem("Start on login", func() {
		enabled := autostart.IsEnabled()
		var err error
		if enabled {
			err = autostart.Disable()
		} else {
			err = autostart.Enable("run")
		}
		if err != nil {
			t.SetStatus("Start on login failed: " + err.Error())
			return
		}
		t.SetItemChecked(loginItem, !enabled)
	})
	t.SetItemChecked(loginItem, autostart.IsEnabled())
	t.AddMenuItem("Quit", t.Stop)
	t.onQuit = onQuit
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

func (t *Tray) onExit() {
	close(t.quitCh)
	if t.onQuit != nil {
		t.onQuit()
	}
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("Input Macro")
	systray.SetIcon(getIcon())

	t.mu.Lock()
	t.ready = true
	systray.SetTooltip(t.status)
	items := t.items
	t.mu.Unlock()

	for _, menuItem := range items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		item := systray.AddMenuItem(menuItem.Title, "")
		t.mu.Lock()
		menuItem.item = item
		if menuItem.Checked {
			item.Check()
		}
		t.mu.Unlock()

		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) RecordingStarted(string) {
	t.SetItemTitle(t.recItem, "Stop recording")
	t.SetStatus("Recording...")
}

func (t *Tray) RecordingStopped(_ string, events, dropped int) {
	t.SetItemTitle(t.recItem, "Start recording")
	t.SetStatus(controller.RecordingStoppedMessage(events, dropped))
}

func (t *Tray) PlaybackStarted(events int, speed float64, repeat int) {
	t.SetStatus(controller.PlaybackStartedMessage(events, speed, repeat))
}

func (t *Tray) PlaybackFinished(r playback.Result) {
	t.SetStatus(controller.PlaybackFinishedMessage(r))
}

func (t *Tray) Failed(op string, err error) {
	t.SetStatus(op + " failed: " + err.Error())
}

func loadedMessage(n int) string {
	if n == 1 {
		return "Loaded 1 event"
	}
	return fmt.Sprintf("Loaded %d events", n)
}

// getIcon returns a placeholder icon (valid 16x16 ICO)
func getIcon() []byte {
	icon := make([]byte, 1118)
	// ICO Header
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// Icon Directory: 16x16, 32bpp, 1096 bytes at offset 22
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00,
		0x16, 0x00, 0x00, 0x00,
	})
	// BITMAPINFOHEADER, height doubled for the AND mask
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x20, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00,
	})
	// Opaque red pixels (BGRA) so the recorder is visible in the tray.
	for p := 62; p < 62+1024; p += 4 {
		copy(icon[p:p+4], []byte{0x30, 0x30, 0xD0, 0xFF})
	}
	return icon
}
