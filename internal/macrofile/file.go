package macrofile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"inputmacro/internal/macro"
	"inputmacro/internal/metrics"
)

// Save writes events to path. The file is written to a temporary sibling and
// renamed into place, so a failed save never leaves a truncated document.
func Save(path string, events []macro.Record) (err error) {
	defer func() { metrics.ObserveFileOp("save", err) }()

	data, err := Encode(events)
	if err != nil {
		return fmt.Errorf("encode macro: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create macro directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write macro: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync macro: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close macro: %w", err)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod macro: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace macro: %w", err)
	}
	return nil
}

// Load reads the events stored at path, sorted ascending by timestamp.
func Load(path string) (events []macro.Record, err error) {
	defer func() { metrics.ObserveFileOp("load", err) }()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", macro.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read macro: %w", err)
	}

	events, err = Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Summary describes a recording.
type Summary struct {
	Count    int
	Duration time.Duration
	ByType   map[macro.EventType]int
}

// Summarize counts events per type and measures the span of their timestamps.
func Summarize(events []macro.Record) Summary {
	s := Summary{Count: len(events), ByType: make(map[macro.EventType]int)}
	if len(events) == 0 {
		return s
	}
	first, last := events[0].TimestampMs, events[0].TimestampMs
	for _, e := range events {
		s.ByType[e.Type]++
		if e.TimestampMs < first {
			first = e.TimestampMs
		}
		if e.TimestampMs > last {
			last = e.TimestampMs
		}
	}
	s.Duration = time.Duration(last-first) * time.Millisecond
	return s
}
