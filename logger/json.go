package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type jsonLogger struct {
	out      io.Writer
	mu       *sync.Mutex
	prefixes []string
	metadata map[string]interface{}
	logLevel LogLevel
}

var _ Logger = (*jsonLogger)(nil)

// NewJSONLogger returns a Logger that writes one JSON object per line to out.
func NewJSONLogger(out io.Writer, level LogLevel) Logger {
	return &jsonLogger{
		out:      out,
		mu:       &sync.Mutex{},
		logLevel: level,
	}
}

func (j *jsonLogger) clone() *jsonLogger {
	return &jsonLogger{
		out:      j.out,
		mu:       j.mu,
		prefixes: j.prefixes,
		metadata: j.metadata,
		logLevel: j.logLevel,
	}
}

func (j *jsonLogger) With(metadata map[string]interface{}) Logger {
	clone := j.clone()
	clone.metadata = mergeMetadata(j.metadata, metadata)
	return clone
}

func (j *jsonLogger) WithPrefix(prefix string) Logger {
	clone := j.clone()
	clone.prefixes = append(append([]string{}, j.prefixes...), prefix)
	return clone
}

func (j *jsonLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= j.logLevel
}

func (j *jsonLogger) write(level, msg string, args ...interface{}) {
	entry := make(map[string]interface{}, len(j.metadata)+3)
	for k, v := range j.metadata {
		entry[k] = v
	}
	line := fmt.Sprintf(msg, args...)
	if len(j.prefixes) > 0 {
		line = strings.Join(j.prefixes, " ") + " " + line
	}
	entry["ts"] = time.Now().Format(time.RFC3339Nano)
	entry["severity"] = level
	entry["message"] = line
	buf, err := json.Marshal(entry)
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.out.Write(append(buf, '\n'))
}

func (j *jsonLogger) Trace(msg string, args ...interface{}) {
	if j.IsLevelEnabled(LevelTrace) {
		j.write("TRACE", msg, args...)
	}
}

func (j *jsonLogger) Debug(msg string, args ...interface{}) {
	if j.IsLevelEnabled(LevelDebug) {
		j.write("DEBUG", msg, args...)
	}
}

func (j *jsonLogger) Info(msg string, args ...interface{}) {
	if j.IsLevelEnabled(LevelInfo) {
		j.write("INFO", msg, args...)
	}
}

func (j *jsonLogger) Warn(msg string, args ...interface{}) {
	if j.IsLevelEnabled(LevelWarn) {
		j.write("WARN", msg, args...)
	}
}

func (j *jsonLogger) Error(msg string, args ...interface{}) {
	if j.IsLevelEnabled(LevelError) {
		j.write("ERROR", msg, args...)
	}
}
