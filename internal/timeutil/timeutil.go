package timeutil

import "time"

// ISOMillis is the ISO-8601 layout used for event timestamps (UTC, millisecond precision).
const ISOMillis = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in UTC using ISOMillis.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// UnixMillis returns t as milliseconds since the epoch, or 0 for the zero time.
func UnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
