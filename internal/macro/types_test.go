package macro

import (
	"errors"
	"testing"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in      string
		want    EventType
		wantErr bool
	}{
		{in: "MouseMove", want: MouseMove},
		{in: "keyup", want: KeyUp},
		{in: "3", want: MouseWheel},
		{in: " KeyDown ", want: KeyDown},
		{in: "6", wantErr: true},
		{in: "Scroll", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseEventType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseEventType(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEventType(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEventType(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestEventTypeNamesRoundTrip(t *testing.T) {
	for _, et := range EventTypes() {
		got, err := ParseEventType(et.String())
		if err != nil || got != et {
			t.Errorf("Expected %v to parse back, got %v (err %v)", et, got, err)
		}
	}
	if EventType(9).String() != "EventType(9)" {
		t.Errorf("Expected fallback name, got %s", EventType(9))
	}
}

func TestParseButton(t *testing.T) {
	if b, err := ParseButton("middle"); err != nil || b != ButtonMiddle {
		t.Errorf("Expected Middle, got %v (err %v)", b, err)
	}
	if b, err := ParseButton("5"); err != nil || b != ButtonX2 {
		t.Errorf("Expected X2, got %v (err %v)", b, err)
	}
	if _, err := ParseButton("Thumb"); err == nil {
		t.Error("Expected error for unknown button")
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{name: "mouse move", rec: NewMouseRecord(MouseMove, 0, 10, 20, ButtonNone, 0)},
		{name: "key down", rec: NewKeyRecord(KeyDown, 5, 0x41)},
		{name: "mouse with key payload", rec: Record{Type: MouseDown, Key: KeyboardPayload{KeyCode: 1}}, wantErr: true},
		{name: "key with mouse payload", rec: Record{Type: KeyUp, Mouse: MousePayload{X: 1}}, wantErr: true},
		{name: "negative timestamp", rec: NewKeyRecord(KeyUp, -1, 0x41), wantErr: true},
		{name: "unknown type", rec: Record{Type: EventType(42)}, wantErr: true},
		{name: "unknown button", rec: NewMouseRecord(MouseDown, 0, 0, 0, Button(9), 0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestNewKeyRecordDirection(t *testing.T) {
	if !NewKeyRecord(KeyDown, 0, 0x41).Key.IsDown {
		t.Error("Expected KeyDown record to be down")
	}
	if NewKeyRecord(KeyUp, 0, 0x41).Key.IsDown {
		t.Error("Expected KeyUp record to be up")
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	setup := &SetupError{Op: "RegisterHotKey", Code: 1409}
	if !errors.Is(setup, ErrSetup) {
		t.Error("Expected SetupError to match ErrSetup")
	}
	if setup.Error() != "setup failed: RegisterHotKey (code 1409)" {
		t.Errorf("Unexpected message: %s", setup.Error())
	}

	format := &FormatError{Index: 2, Field: "x", Reason: "required for MouseMove"}
	if !errors.Is(format, ErrFormat) {
		t.Error("Expected FormatError to match ErrFormat")
	}
	if format.Error() != "malformed macro document: event 2: x: required for MouseMove" {
		t.Errorf("Unexpected message: %s", format.Error())
	}
}
