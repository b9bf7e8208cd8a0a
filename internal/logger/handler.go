package logger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	levelBadges = map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgHiBlack),
		slog.LevelInfo:  color.New(color.FgCyan),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed),
	}

	// keyColors highlights the attributes the pricing code logs.
	keyColors = map[string]*color.Color{
		"error":          color.New(color.FgRed),
		"err":            color.New(color.FgRed),
		"cost":           color.New(color.FgGreen),
		"total":          color.New(color.FgGreen),
		"estimated_cost": color.New(color.FgGreen),
		"model":          color.New(color.FgCyan),
		"priced_as":      color.New(color.FgCyan),
		"provider":       color.New(color.FgCyan),
		"tier":           color.New(color.FgMagenta),
		"count":          color.New(color.FgMagenta),
		"percent_used":   color.New(color.FgMagenta),
	}

	plainKey = color.New(color.FgHiBlack)
)

// PrettyHandler is a slog.Handler for human-friendly CLI output. Cost
// related attributes are colored so they stand out in verbose runs.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	attrs  []string
	prefix string
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelWarn
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{badge(r.Level), r.Message}

	r.Attrs(func(a slog.Attr) bool {
		parts = h.appendAttr(parts, h.prefix, a)
		return true
	})
	// Handler attributes (session id and the like) go last.
	parts = append(parts, h.attrs...)

	if h.opts.AddSource {
		if src := source(r.PC); src != "" {
			parts = append(parts, plainKey.Sprint(src))
		}
	}

	_, err := io.WriteString(h.w, strings.Join(parts, " ")+"\n")
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = h.appendAttr(next.attrs, h.prefix, a)
	}
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// badge pads Info and Warn so messages line up with [DEBUG] and [ERROR].
func badge(level slog.Level) string {
	c, ok := levelBadges[level]
	if !ok {
		return "[" + level.String() + "]"
	}
	return c.Sprintf("%-7s", "["+level.String()+"]")
}

// appendAttr renders a as key=value, flattening groups into dotted keys.
func (h *PrettyHandler) appendAttr(parts []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return parts
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			parts = h.appendAttr(parts, prefix, ga)
		}
		return parts
	}

	var val string
	switch a.Value.Kind() {
	case slog.KindFloat64:
		val = strconv.FormatFloat(a.Value.Float64(), 'f', -1, 64)
	default:
		val = a.Value.String()
	}

	c, ok := keyColors[a.Key]
	if !ok {
		c = plainKey
	}
	return append(parts, c.Sprintf("%s%s=%s", prefix, a.Key, val))
}

func source(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return ""
	}
	return "(" + filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line) + ")"
}
