package episode

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Record is a single line in a movement sensor JSONL log.
type Record struct {
	Type  string          `json:"type"` // "step", "transition", "disruption"
	Event json.RawMessage `json:"event"`
}

// ParseFile reads a JSONL movement log and returns the grouped events.
// Malformed or unrecognized lines are skipped rather than failing the
// whole file; sensors flush partial lines on power loss.
func ParseFile(path string) (Events, error) {
	f, err := os.Open(path)
	if err != nil {
		return Events{}, fmt.Errorf("open movement log: %w", err)
	}
	defer f.Close()

	var events Events
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line buffer

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		appendRecord(&events, line)
	}

	if err := scanner.Err(); err != nil {
		return Events{}, fmt.Errorf("scan movement log: %w", err)
	}

	return events, nil
}

// ParseLines parses movement log content from a string (for testing).
func ParseLines(content string) Events {
	var events Events
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		appendRecord(&events, []byte(line))
	}
	return events
}

func appendRecord(events *Events, line []byte) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return // skip malformed lines
	}
	if rec.Type == "" || rec.Event == nil {
		return
	}

	switch rec.Type {
	case "step":
		var s StepEvent
		if err := json.Unmarshal(rec.Event, &s); err != nil {
			return
		}
		events.Steps = append(events.Steps, s)
	case "transition":
		var t ZoneTransition
		if err := json.Unmarshal(rec.Event, &t); err != nil {
			return
		}
		if t.ToZoneID == "" {
			return
		}
		events.Transitions = append(events.Transitions, t)
	case "disruption":
		var d DisruptionEvent
		if err := json.Unmarshal(rec.Event, &d); err != nil {
			return
		}
		if !d.Type.IsValid() {
			return
		}
		events.Disruptions = append(events.Disruptions, d)
	}
}
