package cli

import (
	"github.com/spf13/cobra"

	"inputmacro/internal/config"
	"inputmacro/internal/controller"
	"inputmacro/internal/hotkey"
	"inputmacro/internal/input"
	"inputmacro/internal/tray"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run in the system tray with global hotkeys (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray()
	},
}

func runTray() error {
	logger.Info("Service: starting", "version", Version, "config", cfgMgr.Path())
	cfg := cfgMgr.Get()

	t := tray.New("Input Macro: idle")
	ctrl := controller.New(controller.Options{
		Hook:      input.NewHook(),
		Simulator: input.NewSimulator(),
		Config:    cfg,
		Notifier:  controller.Notifiers{controller.LogNotifier{Logger: logger}, t},
		Logger:    logger,
	})

	dispatcher, err := hotkey.Open(logger)
	if err != nil {
		logger.Warn("Hotkey: global hotkeys unavailable, use the tray menu", "error", err)
	} else if err := ctrl.BindHotkeys(dispatcher, cfg.Hotkeys); err != nil {
		logger.Warn("Hotkey: some shortcuts were not bound", "error", err)
	}

	cfgMgr.RegisterChangeCallback(func(c *config.Config) {
		ctrl.UpdateConfig(c)
		if dispatcher != nil {
			if err := ctrl.BindHotkeys(dispatcher, c.Hotkeys); err != nil {
				logger.Warn("Hotkey: some shortcuts were not bound", "error", err)
			}
		}
	})

	t.BuildMenu(ctrl, func() {
		if err := ctrl.Close(); err != nil {
			logger.Warn("Service: shutdown error", "error", err)
		}
		if dispatcher != nil {
			if err := dispatcher.Close(); err != nil {
				logger.Warn("Hotkey: close failed", "error", err)
			}
		}
		logMetrics()
	})

	sigCh, stop := interrupted()
	defer stop()
	go func() {
		<-sigCh
		logger.Info("Service: shutting down")
		t.Stop()
	}()

	logger.Info("Service: running, press Ctrl+C to stop")
	t.Run()
	return nil
}
