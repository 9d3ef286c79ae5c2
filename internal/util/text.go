package util

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold 去掉变音符号并转小写，"Síncrono" -> "sincrono"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// IsSincrono 宽松识别同步课程类型
func IsSincrono(tipo string) bool {
	f := Fold(tipo)
	return strings.Contains(f, "sincr") && !strings.Contains(f, "assincr")
}

// ForumTimeLabel 论坛帖子的相对时间
func ForumTimeLabel(now, t time.Time) string {
	hours := int(now.Sub(t).Hours())
	if hours < 1 {
		return "Agora mesmo"
	}
	if hours < 24 {
		return fmt.Sprintf("Há %d horas", hours)
	}
	return fmt.Sprintf("Há %d dias", hours/24)
}

// NotificationTimeLabel 通知的相对时间，超过一周显示日期
func NotificationTimeLabel(now, t time.Time) string {
	if t.IsZero() {
		return "Data inválida"
	}
	diff := now.Sub(t)
	mins := int(diff.Minutes())
	hours := int(diff.Hours())
	days := hours / 24

	switch {
	case mins < 1:
		return "agora mesmo"
	case mins < 60:
		return fmt.Sprintf("há %d min", mins)
	case hours < 24:
		return fmt.Sprintf("há %d h", hours)
	case days < 7:
		return fmt.Sprintf("há %d dias", days)
	}
	return t.Format(DisplayDateFormat)
}

// PriorityIcon 通知优先级对应的图标
func PriorityIcon(prioridade string) string {
	switch prioridade {
	case "alta":
		return "🔴"
	case "media":
		return "🟡"
	case "baixa":
		return "🟢"
	}
	return "🔵"
}
