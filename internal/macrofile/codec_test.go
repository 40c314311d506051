package macrofile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"inputmacro/internal/macro"
)

func sampleEvents() []macro.Record {
	return []macro.Record{
		macro.NewMouseRecord(macro.MouseMove, 0, 100, 200, macro.ButtonNone, 0),
		macro.NewMouseRecord(macro.MouseDown, 15, 100, 200, macro.ButtonLeft, 0),
		macro.NewMouseRecord(macro.MouseWheel, 42, 120, 240, macro.ButtonNone, 120),
		macro.NewKeyRecord(macro.KeyDown, 55, 0x41),
		macro.NewKeyRecord(macro.KeyUp, 80, 0x41),
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample"+Extension)
	events := sampleEvents()

	if err := Save(path, events); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(events, got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeWireShape(t *testing.T) {
	data, err := Encode(sampleEvents())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var objs []map[string]any
	if err := json.Unmarshal(data, &objs); err != nil {
		t.Fatalf("Encoded document is not a JSON array: %v", err)
	}

	want := []map[string]any{
		{"type": "MouseMove", "timestampMs": 0.0, "x": 100.0, "y": 200.0},
		{"type": "MouseDown", "timestampMs": 15.0, "x": 100.0, "y": 200.0, "button": "Left"},
		{"type": "MouseWheel", "timestampMs": 42.0, "x": 120.0, "y": 240.0, "wheelDelta": 120.0},
		{"type": "KeyDown", "timestampMs": 55.0, "keyCode": 65.0, "isDown": true},
		{"type": "KeyUp", "timestampMs": 80.0, "keyCode": 65.0, "isDown": false},
	}
	if diff := cmp.Diff(want, objs); diff != "" {
		t.Errorf("Unexpected wire shape (-want +got):\n%s", diff)
	}
}

func TestEncodeWheelNeverWritesButton(t *testing.T) {
	rec := macro.NewMouseRecord(macro.MouseWheel, 3, 1, 2, macro.ButtonMiddle, -120)
	data, err := Encode([]macro.Record{rec})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(data), "button") {
		t.Errorf("Expected no button field for a wheel record, got %s", data)
	}
}

func TestEncodeZeroCoordinatesAreWritten(t *testing.T) {
	data, err := Encode([]macro.Record{macro.NewMouseRecord(macro.MouseMove, 0, 0, 0, macro.ButtonNone, 0)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"x": 0`) || !strings.Contains(string(data), `"y": 0`) {
		t.Errorf("Expected x and y to be written, got %s", data)
	}
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	bad := macro.Record{Type: macro.KeyDown, Mouse: macro.MousePayload{X: 4}}
	if _, err := Encode([]macro.Record{bad}); !errors.Is(err, macro.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestDecodeSortsByTimestamp(t *testing.T) {
	doc := `[
		{"type": "KeyUp", "timestampMs": 80, "keyCode": 65, "isDown": false},
		{"type": "MouseMove", "timestampMs": 0, "x": 1, "y": 2},
		{"type": "KeyDown", "timestampMs": 55, "keyCode": 65, "isDown": true}
	]`

	got, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var ts []int64
	for _, r := range got {
		ts = append(ts, r.TimestampMs)
	}
	if diff := cmp.Diff([]int64{0, 55, 80}, ts); diff != "" {
		t.Errorf("Expected ascending timestamps (-want +got):\n%s", diff)
	}
}

func TestDecodeKeepsOrderOfEqualTimestamps(t *testing.T) {
	doc := `[
		{"type": "KeyDown", "timestampMs": 10, "keyCode": 66, "isDown": true},
		{"type": "KeyDown", "timestampMs": 10, "keyCode": 65, "isDown": true}
	]`

	got, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got[0].Key.KeyCode != 66 || got[1].Key.KeyCode != 65 {
		t.Errorf("Expected document order for equal timestamps, got %v", got)
	}
}

func TestDecodeDefaults(t *testing.T) {
	doc := `[
		{"type": "MouseDown", "timestampMs": 1, "x": 5, "y": 6},
		{"type": "MouseWheel", "timestampMs": 2, "x": 5, "y": 6}
	]`

	got, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []macro.Record{
		macro.NewMouseRecord(macro.MouseDown, 1, 5, 6, macro.ButtonNone, 0),
		macro.NewMouseRecord(macro.MouseWheel, 2, 5, 6, macro.ButtonNone, 0),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected defaults (-want +got):\n%s", diff)
	}
}

func TestDecodeAcceptsOrdinals(t *testing.T) {
	doc := `[
		{"type": 1, "timestampMs": 0, "x": 5, "y": 6, "button": 2},
		{"type": 4, "timestampMs": 3, "keyCode": 13, "isDown": true}
	]`

	got, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []macro.Record{
		macro.NewMouseRecord(macro.MouseDown, 0, 5, 6, macro.ButtonRight, 0),
		macro.NewKeyRecord(macro.KeyDown, 3, 13),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected records (-want +got):\n%s", diff)
	}
}

func TestDecodeFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "not json", doc: "{nope"},
		{name: "not an array", doc: `{"type": "KeyDown"}`},
		{name: "unknown type", doc: `[{"type": "Scroll", "timestampMs": 0, "x": 1, "y": 1}]`},
		{name: "ordinal out of range", doc: `[{"type": 9, "timestampMs": 0, "x": 1, "y": 1}]`},
		{name: "missing type", doc: `[{"timestampMs": 0, "x": 1, "y": 1}]`},
		{name: "missing timestamp", doc: `[{"type": "MouseMove", "x": 1, "y": 1}]`},
		{name: "negative timestamp", doc: `[{"type": "MouseMove", "timestampMs": -4, "x": 1, "y": 1}]`},
		{name: "mouse missing y", doc: `[{"type": "MouseMove", "timestampMs": 0, "x": 1}]`},
		{name: "key missing keyCode", doc: `[{"type": "KeyUp", "timestampMs": 0, "isDown": false}]`},
		{name: "key missing isDown", doc: `[{"type": "KeyUp", "timestampMs": 0, "keyCode": 65}]`},
		{name: "unknown button", doc: `[{"type": "MouseDown", "timestampMs": 0, "x": 1, "y": 1, "button": "Thumb"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			if !errors.Is(err, macro.ErrFormat) {
				t.Errorf("Expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"+Extension))
	if !errors.Is(err, macro.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken"+Extension)
	if err := os.WriteFile(path, []byte(`[{"type": "Teleport", "timestampMs": 0}]`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, macro.ErrFormat) {
		t.Errorf("Expected ErrFormat, got %v", err)
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "run"+Extension)
	if err := Save(path, sampleEvents()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file to exist: %v", err)
	}
}

func TestFailedSaveKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep"+Extension)
	if err := Save(path, sampleEvents()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	before, _ := os.ReadFile(path)

	bad := []macro.Record{{Type: macro.EventType(99)}}
	if err := Save(path, bad); err == nil {
		t.Fatal("Expected Save to fail")
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("Expected previous file to be untouched")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleEvents())
	if s.Count != 5 {
		t.Errorf("Expected 5 events, got %d", s.Count)
	}
	if s.Duration != 80*time.Millisecond {
		t.Errorf("Expected 80ms duration, got %v", s.Duration)
	}
	if s.ByType[macro.KeyDown] != 1 || s.ByType[macro.MouseMove] != 1 {
		t.Errorf("Unexpected per-type counts: %v", s.ByType)
	}
	if empty := Summarize(nil); empty.Count != 0 || empty.Duration != 0 {
		t.Errorf("Unexpected empty summary: %+v", empty)
	}
}
