package logtail

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Attr is one structured field of a log record, in file order.
type Attr struct {
	Key   string
	Value string
}

// Entry is one parsed log record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   []Attr
	// Raw is set for lines that are not JSON records.
	Raw string
}

// Parse decodes one line written by a JSON slog handler.
func Parse(line string) Entry {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return Entry{Raw: line}
	}

	var e Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Entry{Raw: line}
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Entry{Raw: line}
		}
		value := scalar(raw)
		switch key {
		case "time":
			e.Time, _ = time.Parse(time.RFC3339Nano, value)
		case "level":
			e.Level = value
		case "msg":
			e.Message = value
		default:
			e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
		}
	}
	return e
}

func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Format renders e on one line: time, level, message and key=value attrs.
func (e Entry) Format() string {
	if e.Raw != "" || (e.Message == "" && e.Level == "") {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.In(time.Local).Format("15:04:05"))
		b.WriteByte(' ')
	}
	level := strings.ToUpper(e.Level)
	if level == "" {
		level = "INFO"
	}
	b.WriteString(level)
	b.WriteString(strings.Repeat(" ", max(1, 6-len(level))))
	b.WriteString(e.Message)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		if strings.ContainsAny(a.Value, " \t") {
			b.WriteString(strconv.Quote(a.Value))
		} else {
			b.WriteString(a.Value)
		}
	}
	return b.String()
}
