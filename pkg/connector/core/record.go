package core

import (
	"crypto/md5" //nolint:gosec // key derivation, not security
	"encoding/hex"
	"strings"
	"time"
)

// TimeLayout is the canonical timestamp rendering for emitted records.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in UTC with millisecond precision. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// FormatTimePtr is FormatTime for optional timestamps; nil stays nil.
func FormatTimePtr(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return FormatTime(*t)
}

// SyntheticKey derives a stable identifier from parts. The same parts always
// produce the same key and any change in a part produces a different one.
func SyntheticKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|"))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
