package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Line is one decoded JSON log record.
type Line struct {
	Time    string
	Level   string
	Message string
	Fields  []Field
	Raw     string
}

// Field is an extra key/value pair on a log record, rendered as text.
type Field struct {
	Key   string
	Value string
}

var reservedKeys = map[string]bool{
	"ts": true, "level": true, "msg": true, "caller": true, "stacktrace": true, "logger": true,
}

// Parse decodes a JSON log line. Lines that are not JSON objects come back
// with only Raw set and Level "raw".
func Parse(raw string) Line {
	line := Line{Raw: raw, Level: "raw"}
	var record map[string]any
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return line
	}
	line.Time = stringValue(record["ts"])
	line.Level = strings.ToLower(stringValue(record["level"]))
	line.Message = stringValue(record["msg"])

	keys := make([]string, 0, len(record))
	for key := range record {
		if !reservedKeys[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		line.Fields = append(line.Fields, Field{Key: key, Value: stringValue(record[key])})
	}
	return line
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
