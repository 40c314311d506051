package playback

import (
	"inputmacro/internal/input"
	"inputmacro/internal/macro"
	"inputmacro/internal/metrics"
)

// execute sends one record to the simulator. Simulator failures are logged
// and playback continues.
func (e *Engine) execute(rec macro.Record, desktop input.Rect) {
	var err error

	switch rec.Type {
	case macro.MouseMove, macro.MouseDown, macro.MouseUp, macro.MouseWheel:
		vx, vy := input.Normalize(rec.Mouse.X, rec.Mouse.Y, desktop)
		err = e.sim.MovePointer(vx, vy)
		if err != nil {
			break
		}
		switch rec.Type {
		case macro.MouseDown:
			err = e.sim.Button(rec.Mouse.Button, true)
		case macro.MouseUp:
			err = e.sim.Button(rec.Mouse.Button, false)
		case macro.MouseWheel:
			if steps := input.WheelSteps(rec.Mouse.WheelDelta); steps != 0 {
				err = e.sim.Wheel(steps)
			}
		}
	case macro.KeyDown:
		err = e.sim.Key(rec.Key.KeyCode, true)
	case macro.KeyUp:
		err = e.sim.Key(rec.Key.KeyCode, false)
	default:
		return
	}

	if err != nil {
		e.logger.Warn("Playback: simulator call failed", "event", rec.String(), "error", err)
		return
	}
	metrics.PlaybackExecuted(rec.Type.String())
}
