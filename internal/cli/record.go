package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inputmacro/internal/controller"
	"inputmacro/internal/input"
	"inputmacro/internal/playback"
)

var (
	recordOut      string
	recordDuration time.Duration

	playSpeed  float64
	playRepeat int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record input until Ctrl+C or the duration elapses, then save it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller.New(controller.Options{
			Hook:      input.NewHook(),
			Simulator: input.NewSimulator(),
			Config:    cfgMgr.Get(),
			Logger:    logger,
		})
		defer logMetrics()

		if err := ctrl.StartRecording(); err != nil {
			return err
		}

		sigCh, stop := interrupted()
		defer stop()
		var timeout <-chan time.Time
		if recordDuration > 0 {
			timer := time.NewTimer(recordDuration)
			defer timer.Stop()
			timeout = timer.C
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Recording... press Ctrl+C to stop.")
		select {
		case <-sigCh:
		case <-timeout:
		}

		if err := ctrl.StopRecording(); err != nil {
			logger.Warn("Capture: stop reported an error", "error", err)
		}
		path, err := ctrl.Save(recordOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d events to %s\n", len(ctrl.Events()), path)
		return nil
	},
}

// finishNotifier logs like LogNotifier and reports the end of playback.
type finishNotifier struct {
	controller.LogNotifier
	done chan playback.Result
}

func (n finishNotifier) PlaybackFinished(r playback.Result) {
	n.LogNotifier.PlaybackFinished(r)
	n.done <- r
}

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a recording and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		if !cmd.Flags().Changed("speed") {
			playSpeed = cfg.Playback.Speed
		}
		if !cmd.Flags().Changed("repeat") {
			playRepeat = cfg.Playback.Repeat
		}

		notifier := finishNotifier{
			LogNotifier: controller.LogNotifier{Logger: logger},
			done:        make(chan playback.Result, 1),
		}
		ctrl := controller.New(controller.Options{
			Hook:      input.NewHook(),
			Simulator: input.NewSimulator(),
			Config:    cfg,
			Notifier:  notifier,
			Logger:    logger,
		})
		defer logMetrics()

		if _, err := ctrl.Load(args[0]); err != nil {
			return err
		}
		if err := ctrl.Play(playSpeed, playRepeat); err != nil {
			return err
		}

		sigCh, stop := interrupted()
		defer stop()

		var result playback.Result
		select {
		case result = <-notifier.done:
		case <-sigCh:
			ctrl.StopPlayback()
			result = <-notifier.done
		}
		fmt.Fprintln(cmd.OutOrStdout(), controller.PlaybackFinishedMessage(result))
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "Output file (default: configured macro directory and file)")
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "Stop automatically after this long (0 = until Ctrl+C)")

	playCmd.Flags().Float64VarP(&playSpeed, "speed", "s", 1.0, "Speed multiplier (values <= 0 play at 1.0)")
	playCmd.Flags().IntVarP(&playRepeat, "repeat", "r", 1, "Number of passes (0 = until Ctrl+C)")
}
