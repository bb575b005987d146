package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Fields map[string]any

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetLevel drops every line below level.
func SetLevel(level Level) {
	minLevel.Store(int32(level))
}

func Enabled(level Level) bool {
	return int32(level) >= minLevel.Load()
}

// secretKeys are replaced outright, identityKeys keep their last four characters.
var secretKeys = map[string]struct{}{
	"password":       {},
	"channelkey":     {},
	"channelkeyhash": {},
	"authorization":  {},
}

var identityKeys = map[string]struct{}{
	"documentnumber": {},
	"accountnumber":  {},
	"phonenumber":    {},
}

func Debug(message string, fields Fields) {
	write(LevelDebug, message, fields)
}

func Info(message string, fields Fields) {
	write(LevelInfo, message, fields)
}

func Warn(message string, fields Fields) {
	write(LevelWarn, message, fields)
}

func Error(message string, err error, fields Fields) {
	if !Enabled(LevelError) {
		return
	}
	base := make(Fields, len(fields)+1)
	for k, v := range fields {
		base[k] = v
	}
	if err != nil {
		base["error"] = err.Error()
	}
	write(LevelError, message, base)
}

func write(level Level, message string, fields Fields) {
	if !Enabled(level) {
		return
	}
	log.Printf("%s %s %s", level, message, fieldsJSON(fields))
}

// SanitizePayload round-trips payload through JSON and masks sensitive keys.
func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func fieldsJSON(fields Fields) string {
	if len(fields) == 0 {
		return `{}`
	}
	b, err := json.Marshal(SanitizePayload(fields))
	if err != nil {
		return `{}`
	}
	return string(b)
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[key] = sanitizeField(key, inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func sanitizeField(key string, value any) any {
	normalized := normalizeKey(key)
	if _, ok := secretKeys[normalized]; ok {
		return "******"
	}
	if _, ok := identityKeys[normalized]; ok {
		if s, isString := value.(string); isString {
			return MaskTail(s, 4)
		}
		return "******"
	}
	return sanitizeValue(value)
}

// MaskTail hides all but the last keep characters of value.
func MaskTail(value string, keep int) string {
	runes := []rune(value)
	if len(runes) <= keep {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-keep) + string(runes[len(runes)-keep:])
}

func normalizeKey(key string) string {
	replacer := strings.NewReplacer("-", "", "_", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(key)))
}
