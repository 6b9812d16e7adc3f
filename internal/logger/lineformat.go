package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// lineBreaks keeps a message on a single line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// LineFormatWriter wraps an io.Writer and converts zerolog JSON output
// into the plain service log line format:
//
//	2026-10-19T12:00:00+02:00 is due to call dispatcher, name: [svc1]
//	2026-10-19T12:00:05+02:00 dispatcher error: code=1063
//
// Lines are CRLF-terminated regardless of platform.
type LineFormatWriter struct {
	w io.Writer
}

// NewLineFormatWriter creates a LineFormatWriter that wraps the given writer.
func NewLineFormatWriter(w io.Writer) *LineFormatWriter {
	return &LineFormatWriter{w: w}
}

func (f *LineFormatWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		// Not valid JSON, pass through as-is
		return f.w.Write(p)
	}

	timestamp := extractString(fields, "time")
	message := lineBreaks.Replace(extractString(fields, "message"))

	delete(fields, "time")
	delete(fields, "message")
	delete(fields, "level")

	line := timestamp + " " + message
	if extra := formatExtra(fields); extra != "" {
		line += " " + extra
	}

	_, err := io.WriteString(f.w, line+"\r\n")
	// Return original length to satisfy zerolog's expectation
	return len(p), err
}

func extractString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// formatExtra builds a "key=value key2=value2" string from remaining fields.
func formatExtra(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := fmt.Sprintf("%v", fields[k])
		if strings.ContainsAny(s, " \t\r\n\"") {
			parts = append(parts, fmt.Sprintf("%s=%q", k, s))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", k, s))
		}
	}

	return strings.Join(parts, " ")
}
