package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"inputmacro/internal/autostart"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage starting the tray on login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start the tray on login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runArgs := []string{"run"}
		if cfgFile != "" {
			abs, err := filepath.Abs(cfgFile)
			if err != nil {
				return err
			}
			runArgs = append(runArgs, "--config", abs)
		}
		if err := autostart.Enable(runArgs...); err != nil {
			return err
		}
		logger.Info("Autostart: enabled")
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting the tray on login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.Disable(); err != nil {
			return err
		}
		logger.Info("Autostart: disabled")
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the tray starts on login",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		state := "disabled"
		if autostart.IsEnabled() {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Autostart %s\n", state)
	},
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
}
