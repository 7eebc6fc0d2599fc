package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Filter selects log lines. Zero fields match everything.
type Filter struct {
	MinLevel  string
	Component string
	RunID     string
}

// IsZero reports whether the filter matches every line.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.MinLevel) == "" &&
		strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.RunID) == ""
}

// Validate rejects unknown level names.
func (f Filter) Validate() error {
	_, err := parseLevel(f.MinLevel)
	return err
}

// Match reports whether line passes the filter. Lines whose level cannot
// be determined only pass a filter without a minimum level.
func (f Filter) Match(line string) bool {
	if f.IsZero() {
		return true
	}
	fields, ok := parseLine(line)
	if !ok {
		return false
	}
	if minLevel, err := parseLevel(f.MinLevel); err == nil && strings.TrimSpace(f.MinLevel) != "" {
		level, err := parseLevel(fields.level)
		if err != nil || fields.level == "" || level < minLevel {
			return false
		}
	}
	if c := strings.TrimSpace(f.Component); c != "" && !strings.EqualFold(fields.component, c) {
		return false
	}
	if id := strings.TrimSpace(f.RunID); id != "" && !runMatches(fields.runID, id) {
		return false
	}
	return true
}

type lineFields struct {
	level     string
	component string
	runID     string
}

// parseLine understands two layouts:
//
//	{"ts":"...","level":"warn","msg":"...","component":"pipeline","run_id":"..."}
//	2018-03-01 10:00:00 WARN [pipeline] run 1f2e0a9b · item btc (tokenized) – message
func parseLine(line string) (lineFields, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return lineFields{}, false
	}
	if strings.HasPrefix(line, "{") {
		var payload struct {
			Level     string `json:"level"`
			Component string `json:"component"`
			RunID     string `json:"run_id"`
		}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			return lineFields{}, false
		}
		return lineFields{level: payload.Level, component: payload.Component, runID: payload.RunID}, true
	}

	parts := strings.Fields(line)
	if len(parts) < 3 {
		return lineFields{}, false
	}
	out := lineFields{level: parts[2]}
	rest := parts[3:]
	if len(rest) > 0 && strings.HasPrefix(rest[0], "[") && strings.HasSuffix(rest[0], "]") {
		out.component = strings.Trim(rest[0], "[]")
		rest = rest[1:]
	}
	if len(rest) > 1 && rest[0] == "run" {
		out.runID = rest[1]
	}
	return out, true
}

// runMatches compares a logged run id with the requested one. Console lines
// carry only the first eight characters.
func runMatches(logged, want string) bool {
	if logged == "" {
		return false
	}
	if strings.EqualFold(logged, want) {
		return true
	}
	return len(logged) == 8 && strings.HasPrefix(strings.ToLower(want), strings.ToLower(logged))
}

func parseLevel(name string) (slog.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return slog.LevelDebug, nil
	}
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return level, nil
}
