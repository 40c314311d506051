// Package macrofile reads and writes recordings as JSON documents
// (conventionally *.macro.json).
package macrofile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"inputmacro/internal/macro"
)

// Extension is the conventional file suffix for recordings.
const Extension = ".macro.json"

// wireRecord is the on-disk shape of one event. Nil fields are omitted.
type wireRecord struct {
	Type        string  `json:"type"`
	TimestampMs int64   `json:"timestampMs"`
	X           *int    `json:"x,omitempty"`
	Y           *int    `json:"y,omitempty"`
	Button      *string `json:"button,omitempty"`
	WheelDelta  *int    `json:"wheelDelta,omitempty"`
	KeyCode     *uint16 `json:"keyCode,omitempty"`
	IsDown      *bool   `json:"isDown,omitempty"`
}

// decodedRecord accepts both symbolic and ordinal enums.
type decodedRecord struct {
	Type        json.RawMessage `json:"type"`
	TimestampMs *int64          `json:"timestampMs"`
	X           *int            `json:"x"`
	Y           *int            `json:"y"`
	Button      json.RawMessage `json:"button"`
	WheelDelta  *int            `json:"wheelDelta"`
	KeyCode     *uint16         `json:"keyCode"`
	IsDown      *bool           `json:"isDown"`
}

// Encode serializes events in order.
func Encode(events []macro.Record) ([]byte, error) {
	out := make([]wireRecord, 0, len(events))
	for i, rec := range events {
		w, err := toWire(rec)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, w)
	}
	return json.MarshalIndent(out, "", "  ")
}

func toWire(rec macro.Record) (wireRecord, error) {
	if err := rec.Validate(); err != nil {
		return wireRecord{}, err
	}

	w := wireRecord{Type: rec.Type.String(), TimestampMs: rec.TimestampMs}
	switch rec.Type {
	case macro.MouseMove, macro.MouseDown, macro.MouseUp:
		x, y := rec.Mouse.X, rec.Mouse.Y
		w.X, w.Y = &x, &y
		if rec.Mouse.Button != macro.ButtonNone {
			b := rec.Mouse.Button.String()
			w.Button = &b
		}
	case macro.MouseWheel:
		x, y, d := rec.Mouse.X, rec.Mouse.Y, rec.Mouse.WheelDelta
		w.X, w.Y, w.WheelDelta = &x, &y, &d
	case macro.KeyDown, macro.KeyUp:
		k, down := rec.Key.KeyCode, rec.Key.IsDown
		w.KeyCode, w.IsDown = &k, &down
	}
	return w, nil
}

// Decode parses a document and returns its events sorted by timestamp.
// Records with equal timestamps keep their document order.
func Decode(data []byte) ([]macro.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &macro.FormatError{Index: -1, Reason: "empty document"}
	}
	if !json.Valid(data) {
		return nil, &macro.FormatError{Index: -1, Reason: "not valid JSON"}
	}
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var raw []decodedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &macro.FormatError{Index: -1, Reason: err.Error()}
	}

	events := make([]macro.Record, 0, len(raw))
	for i, d := range raw {
		rec, err := fromWire(i, d)
		if err != nil {
			return nil, err
		}
		events = append(events, rec)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMs < events[j].TimestampMs
	})
	return events, nil
}

func fromWire(i int, d decodedRecord) (macro.Record, error) {
	if len(d.Type) == 0 {
		return macro.Record{}, &macro.FormatError{Index: i, Field: "type", Reason: "missing"}
	}
	t, err := macro.ParseEventType(enumText(d.Type))
	if err != nil {
		return macro.Record{}, &macro.FormatError{Index: i, Field: "type", Reason: err.Error()}
	}
	if d.TimestampMs == nil {
		return macro.Record{}, &macro.FormatError{Index: i, Field: "timestampMs", Reason: "missing"}
	}
	if *d.TimestampMs < 0 {
		return macro.Record{}, &macro.FormatError{Index: i, Field: "timestampMs", Reason: "must not be negative"}
	}

	rec := macro.Record{Type: t, TimestampMs: *d.TimestampMs}
	switch {
	case t.IsMouse():
		if d.X == nil {
			return macro.Record{}, &macro.FormatError{Index: i, Field: "x", Reason: "required for " + t.String()}
		}
		if d.Y == nil {
			return macro.Record{}, &macro.FormatError{Index: i, Field: "y", Reason: "required for " + t.String()}
		}
		rec.Mouse.X, rec.Mouse.Y = *d.X, *d.Y
		if t == macro.MouseWheel {
			if d.WheelDelta != nil {
				rec.Mouse.WheelDelta = *d.WheelDelta
			}
			break
		}
		if len(d.Button) > 0 && string(d.Button) != "null" {
			b, err := macro.ParseButton(enumText(d.Button))
			if err != nil {
				return macro.Record{}, &macro.FormatError{Index: i, Field: "button", Reason: err.Error()}
			}
			rec.Mouse.Button = b
		}
	case t.IsKeyboard():
		if d.KeyCode == nil {
			return macro.Record{}, &macro.FormatError{Index: i, Field: "keyCode", Reason: "required for " + t.String()}
		}
		if d.IsDown == nil {
			return macro.Record{}, &macro.FormatError{Index: i, Field: "isDown", Reason: "required for " + t.String()}
		}
		rec.Key = macro.KeyboardPayload{KeyCode: *d.KeyCode, IsDown: *d.IsDown}
	}
	return rec, nil
}

// enumText returns the string value of a JSON string, or the literal text of a number.
func enumText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return string(raw)
}
