package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset   = "\033[0m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	cyan    = "\033[36m"
	gray    = "\033[1;90m"
	redBold = "\033[31;1m"
)

type consoleLogger struct {
	out      io.Writer
	mu       *sync.Mutex
	prefixes []string
	metadata map[string]interface{}
	logLevel LogLevel
}

var _ Logger = (*consoleLogger)(nil)

// NewConsoleLogger returns a Logger that writes human-readable, colorized
// lines to stderr. The level defaults to the CACHEKIT_LOG_LEVEL environment
// variable when no level is provided.
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{
		out:      os.Stderr,
		mu:       &sync.Mutex{},
		logLevel: level,
	}
}

func (c *consoleLogger) clone() *consoleLogger {
	return &consoleLogger{
		out:      c.out,
		mu:       c.mu,
		prefixes: c.prefixes,
		metadata: c.metadata,
		logLevel: c.logLevel,
	}
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	clone := c.clone()
	clone.metadata = mergeMetadata(c.metadata, metadata)
	return clone
}

func (c *consoleLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	clone.prefixes = append(append([]string{}, c.prefixes...), prefix)
	return clone
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.logLevel
}

func (c *consoleLogger) suffix() string {
	if len(c.metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.metadata))
	for k := range c.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, c.metadata[k]))
	}
	return " " + color(gray) + strings.Join(pairs, " ") + color(reset)
}

func (c *consoleLogger) write(levelColor, level, msg string, args ...interface{}) {
	line := fmt.Sprintf(msg, args...)
	if len(c.prefixes) > 0 {
		line = strings.Join(c.prefixes, " ") + " " + line
	}
	ts := time.Now().Format(time.RFC3339)
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s[%s]%s %s%s%s %s%s\n",
		color(levelColor), level, color(reset),
		color(gray), ts, color(reset),
		line, c.suffix())
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelTrace) {
		c.write(gray, "TRACE", msg, args...)
	}
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelDebug) {
		c.write(cyan, "DEBUG", msg, args...)
	}
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelInfo) {
		c.write(green, "INFO ", msg, args...)
	}
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelWarn) {
		c.write(yellow, "WARN ", msg, args...)
	}
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	if c.IsLevelEnabled(LevelError) {
		c.write(redBold, "ERROR", msg, args...)
	}
}
