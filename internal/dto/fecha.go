package dto

import (
	"errors"
	"strings"
	"time"
)

// LayoutFecha is the wire format of date-only fields.
const LayoutFecha = "2006-01-02"

var errFechaInvalida = errors.New("fecha invalida")

// ParseFecha accepts "YYYY-MM-DD" or a full ISO timestamp and keeps only the
// day portion.
func ParseFecha(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(LayoutFecha) {
		return time.Time{}, errFechaInvalida
	}
	if len(s) > len(LayoutFecha) && s[len(LayoutFecha)] != 'T' && s[len(LayoutFecha)] != ' ' {
		return time.Time{}, errFechaInvalida
	}
	t, err := time.Parse(LayoutFecha, s[:len(LayoutFecha)])
	if err != nil {
		return time.Time{}, errFechaInvalida
	}
	return t, nil
}

// FormatFecha renders a date-only field.
func FormatFecha(t time.Time) string { return t.Format(LayoutFecha) }

// FormatTimestamp renders audit timestamps.
func FormatTimestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
