package controller

import (
	"fmt"
	"log/slog"

	"inputmacro/internal/playback"
)

// Notifier receives one notification per state change. Calls may arrive from
// any goroutine.
type Notifier interface {
	RecordingStarted(sessionID string)
	RecordingStopped(sessionID string, events, dropped int)
	PlaybackStarted(events int, speed float64, repeat int)
	PlaybackFinished(result playback.Result)
	Failed(op string, err error)
}

// Notifiers fans each notification out to every member.
type Notifiers []Notifier

func (ns Notifiers) RecordingStarted(sessionID string) {
	for _, n := range ns {
		n.RecordingStarted(sessionID)
	}
}

func (ns Notifiers) RecordingStopped(sessionID string, events, dropped int) {
	for _, n := range ns {
		n.RecordingStopped(sessionID, events, dropped)
	}
}

func (ns Notifiers) PlaybackStarted(events int, speed float64, repeat int) {
	for _, n := range ns {
		n.PlaybackStarted(events, speed, repeat)
	}
}

func (ns Notifiers) PlaybackFinished(result playback.Result) {
	for _, n := range ns {
		n.PlaybackFinished(result)
	}
}

func (ns Notifiers) Failed(op string, err error) {
	for _, n := range ns {
		n.Failed(op, err)
	}
}

// RecordingStoppedMessage renders the status line shown when a recording ends.
func RecordingStoppedMessage(events, dropped int) string {
	if dropped > 0 {
		return fmt.Sprintf("Recorded %d events (%d dropped)", events, dropped)
	}
	return fmt.Sprintf("Recorded %d events", events)
}

// PlaybackStartedMessage renders the status line shown when playback begins.
func PlaybackStartedMessage(events int, speed float64, repeat int) string {
	passes := "until stopped"
	if repeat > 0 {
		passes = fmt.Sprintf("%d pass", repeat)
		if repeat > 1 {
			passes += "es"
		}
	}
	return fmt.Sprintf("Playing %d events at %gx, %s", events, speed, passes)
}

// PlaybackFinishedMessage renders the status line shown when playback ends.
func PlaybackFinishedMessage(r playback.Result) string {
	return "Playback " + r.String()
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) RecordingStarted(sessionID string) {
	n.logger().Info("Recording started", "session", sessionID)
}

func (n LogNotifier) RecordingStopped(sessionID string, events, dropped int) {
	n.logger().Info(RecordingStoppedMessage(events, dropped), "session", sessionID)
}

func (n LogNotifier) PlaybackStarted(events int, speed float64, repeat int) {
	n.logger().Info(PlaybackStartedMessage(events, speed, repeat))
}

func (n LogNotifier) PlaybackFinished(r playback.Result) {
	n.logger().Info(PlaybackFinishedMessage(r), "run", r.RunID)
}

func (n LogNotifier) Failed(op string, err error) {
	n.logger().Error(op+" failed", "error", err)
}
