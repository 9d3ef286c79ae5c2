package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseID 解析路径中的正整数 id
func ParseID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseDate 解析上游日期，兼容纯日期与 RFC3339
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", DateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DurationDays 两个日期之间的天数，向上取整
func DurationDays(start, end string) int {
	s, ok1 := ParseDate(start)
	e, ok2 := ParseDate(end)
	if !ok1 || !ok2 {
		return 0
	}
	d := e.Sub(s)
	if d < 0 {
		d = -d
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func IntPtr(v int) *int { return &v }
