package logging

import (
	"fmt"
	"log"
	"strings"
)

// Info logs a message tagged with its component, e.g. "[LOADER] loaded model=NBMED".
func Info(component, msg string, kv ...any) {
	log.Print(Format(component, msg, kv...))
}

// Error logs like Info with an ERROR marker after the tag.
func Error(component, msg string, kv ...any) {
	log.Print(Format(component, "ERROR "+msg, kv...))
}

// Format renders a log line without writing it.
func Format(component, msg string, kv ...any) string {
	return fmt.Sprintf("[%s] %s%s", strings.ToUpper(component), msg, formatFields(kv...))
}

func formatFields(kv ...any) string {
	if len(kv) == 0 {
		return ""
	}
	if len(kv)%2 != 0 {
		kv = append(kv, "(missing)")
	}
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(toString(kv[i])))
		b.WriteString("=")
		b.WriteString(toString(kv[i+1]))
	}
	return b.String()
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	return strings.NewReplacer("\n", " ", "\t", " ").Replace(s)
}
