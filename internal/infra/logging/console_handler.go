package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[Level]string{
	LevelDebug: ansiCyan,
	LevelInfo:  ansiGreen,
	LevelWarn:  ansiYellow,
	LevelError: ansiRed,
}

// ConsoleHandler is a slog.Handler producing coloured, human-readable
// lines for development.
type ConsoleHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	filter map[string]Level

	attrs  []slog.Attr
	groups []string
}

var _ Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler writing to out. The filter maps
// logger names (or dotted prefixes of them) to a minimum level.
func NewConsoleHandler(out io.Writer, level slog.Leveler, filter map[string]Level) *ConsoleHandler {
	return &ConsoleHandler{
		out:    out,
		mu:     new(sync.Mutex),
		level:  level,
		filter: filter,
	}
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(_ context.Context, level Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if !h.passesFilter(loggerName(attrs), r.Level) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(ansiGray + r.Time.Format("15:04:05.000000") + ansiReset)
	sb.WriteString(" " + levelColors[r.Level] + "[" + r.Level.String() + "]" + ansiReset)
	sb.WriteString(" " + r.Message)

	if len(attrs) > 0 {
		var prefix string
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		sb.WriteString(" " + ansiGray + "|" + ansiReset)
		writeAttrs(&sb, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()

		sb.WriteString("\n-> " + ansiGray + filepath.Base(frame.Function) + "()")
		sb.WriteString(" in " + ansiUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := fmt.Fprintln(h.out, sb.String()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	return nil
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == LoggerKey {
			return attr.Value.String()
		}
	}

	return ""
}

// passesFilter walks from the full logger name up through its dotted
// prefixes; the most specific filter entry wins.
func (h *ConsoleHandler) passesFilter(name string, level Level) bool {
	for name != "" {
		if minLevel, ok := h.filter[name]; ok {
			return level >= minLevel
		}

		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			break
		}

		name = name[:idx]
	}

	return true
}

func writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			writeAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset)
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)

	return &clone
}
