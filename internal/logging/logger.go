package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger writes leveled, tagged log lines to an io.Writer. The zero value is
// not usable; construct one via DefaultLogger.WithTag.
type Logger struct {
	tag   string
	level Level

	out io.Writer

	// mu serializes writes across all loggers derived from the same root,
	// so messages from different goroutines don't interleave.
	mu *sync.Mutex
}

// DefaultLogger writes to stderr at the level selected by LOGLEVEL (or Info
// if unset).
var DefaultLogger = &Logger{tag: "", level: Info, out: os.Stderr, mu: new(sync.Mutex)}

func init() {
	DefaultLogger.level = resolveLevel("")
}

// Level reports this logger's current verbosity.
func (log *Logger) Level() Level { return log.level }

// SetLevel overrides this logger's verbosity at runtime, regardless of what
// LOGLEVEL selected for its tag.
func (log *Logger) SetLevel(l Level) { log.level = l }

// SetDestination overrides where this logger's output is written.
func (log *Logger) SetDestination(out io.Writer) {
	log.mu.Lock()
	log.out = out
	log.mu.Unlock()
}

// WithTag derives a new logger tagged with the given name. Its level is
// looked up from the LOGLEVEL directives, falling back to the parent's
// level if the tag has no override.
func (log *Logger) WithTag(tag string) *Logger {
	return &Logger{tag: tag, level: resolveLevel(tag, log.level), out: log.out, mu: log.mu}
}

func (log *Logger) log(level Level, calldepth int, format string, a ...interface{}) {
	if level > log.level {
		return
	}

	msg := fmt.Sprintf(format, a...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	file, line := callerLocation(calldepth + 1)

	tag := log.tag
	if tag == "" {
		tag = "-"
	}
	header := fmt.Sprintf("%s %s [%s:%d] ",
		time.Now().Format(timestampFormat),
		level.paint(fmt.Sprintf("%c/%s", level.letter(), tag)),
		filepath.Base(file), line)

	log.mu.Lock()
	defer log.mu.Unlock()
	io.WriteString(log.out, header)
	io.WriteString(log.out, msg)
}

func callerLocation(calldepth int) (file string, line int) {
	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		return "?", 0
	}
	return file, line
}

func (log *Logger) Error(format string, a ...interface{}) { log.log(Error, 1, format, a...) }
func (log *Logger) Warn(format string, a ...interface{})  { log.log(Warn, 1, format, a...) }
func (log *Logger) Info(format string, a ...interface{})  { log.log(Info, 1, format, a...) }
func (log *Logger) Debug(format string, a ...interface{}) { log.log(Debug, 1, format, a...) }
