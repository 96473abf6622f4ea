package logctx

import (
	"strings"
	"time"
)

// RFC3339 with nanoseconds always printed so columns line up
const timestampLayout string = "2006-01-02T15:04:05.000000000Z07:00"

// Renders "[timestamp] [Tag/Tag] [Severity] message", omitting absent parts.
// Trailing newlines are left to the message.
func (event Event) Format() (text string) {
	var line strings.Builder
	bracket := func(field string) {
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteByte('[')
		line.WriteString(field)
		line.WriteByte(']')
	}

	if !event.Timestamp.IsZero() {
		bracket(padTimestamp(event.Timestamp))
	}
	if len(event.Tags) > 0 {
		bracket(strings.Join(event.Tags, "/"))
	}
	if event.Severity != "" {
		bracket(event.Severity)
	}
	if event.Message != "" {
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(event.Message)
	}

	text = line.String()
	return
}

func padTimestamp(timestamp time.Time) (formatted string) {
	formatted = timestamp.Format(timestampLayout)
	return
}
