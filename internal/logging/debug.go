package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is a topic-scoped logger. Debug output is only produced for topics
// enabled through DEBUG_TOPICS; Info and above always go to slog.
type Logger struct {
	topic   string
	enabled bool
}

var enabledTopics = make(map[string]bool)

func init() {
	// DEBUG_TOPICS=ema,engine or DEBUG_TOPICS=all
	enableTopics(os.Getenv("DEBUG_TOPICS"))
}

func enableTopics(topics string) {
	if topics == "" {
		return
	}
	if topics == "all" {
		enabledTopics["*"] = true
		setLevel(slog.LevelDebug)
		return
	}
	for _, topic := range strings.Split(topics, ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			enabledTopics[topic] = true
		}
	}
	if len(enabledTopics) > 0 {
		setLevel(slog.LevelDebug)
	}
}

// Setup installs the default slog handler for the process.
// An empty level keeps INFO, unless debug topics already lowered it.
func Setup(level string) {
	lvl, ok := ParseLevel(level)
	if !ok {
		if len(enabledTopics) > 0 {
			return
		}
		lvl = slog.LevelInfo
	}
	setLevel(lvl)
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func setLevel(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// New creates a topic logger.
// Usage: var emaLog = logging.New("ema")
func New(topic string) *Logger {
	return &Logger{
		topic:   topic,
		enabled: enabledTopics["*"] || enabledTopics[topic],
	}
}

// Debug is a single bool check when the topic is disabled.
func (l *Logger) Debug(msg string, args ...any) {
	if !l.enabled {
		return
	}
	slog.Debug(msg, l.with(args)...)
}

func (l *Logger) Info(msg string, args ...any) {
	slog.Info(msg, l.with(args)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	slog.Warn(msg, l.with(args)...)
}

func (l *Logger) Error(msg string, args ...any) {
	slog.Error(msg, l.with(args)...)
}

// Enabled reports whether debug output is on for this topic.
// Useful around expensive computations: if log.Enabled() { ... }
func (l *Logger) Enabled() bool {
	return l.enabled
}

func (l *Logger) Topic() string {
	return l.topic
}

func (l *Logger) with(args []any) []any {
	return append([]any{"topic", l.topic}, args...)
}
