// Package logging implements a buffered, asynchronous structured logger for
// the compiler pipeline. Every stage pkg/pipeline wraps (verify, ir_build,
// codegen, resolve_emit) logs entry/exit at DEBUG and failures at ERROR through a
// JobLogger scoped to one compile job, mirroring the reference compiler's
// request-scoped ContextLogger but keyed by compile job instead of HTTP
// request.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Format selects the wire shape of emitted log lines.
type Format int

const (
	TextFormat Format = iota
	JSONFormat
)

// Entry is one emitted log record.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	JobID     string                 `json:"job_id,omitempty"`
	Stage     string                 `json:"stage,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// Config configures a Logger.
type Config struct {
	MinLevel      Level
	Format        Format
	IncludeCaller bool
	BufferSize    int
	Outputs       []io.Writer
	FilePath      string
}

// Logger is the asynchronous logging sink; entries are buffered on a
// channel and written by a single background goroutine; when the buffer is
// full, the logging call writes the entry itself.
type Logger struct {
	config  Config
	buffer  chan *Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	file    *os.File
	syncCh  chan chan struct{}
}

// New creates a Logger and starts its background writer.
func New(config Config) (*Logger, error) {
	if config.BufferSize == 0 {
		config.BufferSize = 500
	}
	if len(config.Outputs) == 0 {
		config.Outputs = []io.Writer{os.Stdout}
	}

	l := &Logger{
		config: config,
		buffer: make(chan *Entry, config.BufferSize),
		syncCh: make(chan chan struct{}, 1),
	}

	if config.FilePath != "" {
		if dir := filepath.Dir(config.FilePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("logging: create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		l.file = f
		l.config.Outputs = append(l.config.Outputs, f)
	}

	l.wg.Add(1)
	go l.process()

	return l, nil
}

// NewJobID mints a correlation id for one compile invocation.
func NewJobID() string { return uuid.New().String() }

func (l *Logger) process() {
	defer l.wg.Done()
	for {
		select {
		case e, ok := <-l.buffer:
			if !ok {
				select {
				case done := <-l.syncCh:
					close(done)
				default:
				}
				return
			}
			l.write(e)
		case done := <-l.syncCh:
			draining := true
			for draining {
				select {
				case e := <-l.buffer:
					l.write(e)
				default:
					draining = false
				}
			}
			close(done)
		}
	}
}

func (l *Logger) write(e *Entry) {
	var line string
	if l.config.Format == JSONFormat {
		b, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: marshal entry: %v\n", err)
			return
		}
		line = string(b) + "\n"
	} else {
		line = l.formatText(e)
	}
	for _, w := range l.config.Outputs {
		if _, err := w.Write([]byte(line)); err != nil {
			fmt.Fprintf(os.Stderr, "logging: write entry: %v\n", err)
		}
	}
}

func (l *Logger) formatText(e *Entry) string {
	parts := []string{
		"[" + e.Timestamp.Format("15:04:05.000") + "]",
		"[" + e.Level + "]",
	}
	if e.JobID != "" {
		parts = append(parts, "["+e.JobID[:8]+"]")
	}
	if e.Stage != "" {
		parts = append(parts, "["+e.Stage+"]")
	}
	if e.Caller != "" {
		parts = append(parts, "["+e.Caller+"]")
	}
	parts = append(parts, e.Message)
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	if len(e.Fields) > 0 {
		out += " {"
		first := true
		for k, v := range e.Fields {
			if !first {
				out += ", "
			}
			first = false
			out += fmt.Sprintf("%s=%v", k, v)
		}
		out += "}"
	}
	return out + "\n"
}

func (l *Logger) log(level Level, stage, jobID, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped || level < l.config.MinLevel {
		return
	}

	e := &Entry{Timestamp: time.Now(), Level: level.String(), Message: msg, JobID: jobID, Stage: stage, Fields: fields}
	if l.config.IncludeCaller {
		if _, file, line, ok := runtime.Caller(3); ok {
			e.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	select {
	case l.buffer <- e:
	default:
		l.write(e)
	}

	if level == FATAL {
		l.Close()
		os.Exit(1)
	}
}

// Debug logs at DEBUG with no job scope.
func (l *Logger) Debug(msg string) { l.log(DEBUG, "", "", msg, nil) }

// Info logs at INFO with no job scope.
func (l *Logger) Info(msg string) { l.log(INFO, "", "", msg, nil) }

// Warn logs at WARN with no job scope.
func (l *Logger) Warn(msg string) { l.log(WARN, "", "", msg, nil) }

// Error logs at ERROR with no job scope.
func (l *Logger) Error(msg string) { l.log(ERROR, "", "", msg, nil) }

// Sync blocks until every buffered entry has been written; tests use this to
// make log output observable before making assertions on it.
func (l *Logger) Sync() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	done := make(chan struct{})
	l.syncCh <- done
	<-done
}

// Close drains the buffer and shuts the background writer down.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.buffer)
	l.wg.Wait()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// JobLogger is a Logger pre-bound to one compile job's id, handed down
// through pkg/pipeline.CompileContext so every stage's log lines correlate.
type JobLogger struct {
	logger *Logger
	jobID  string
}

// WithJob returns a JobLogger scoped to jobID.
func (l *Logger) WithJob(jobID string) *JobLogger {
	return &JobLogger{logger: l, jobID: jobID}
}

// Stage returns a logger further scoped to one pipeline stage name, used to
// bracket that stage's entry/exit/failure lines.
func (jl *JobLogger) Stage(stage string) *StageLogger {
	return &StageLogger{jl: jl, stage: stage}
}

// StageLogger logs on behalf of one pipeline stage of one compile job.
type StageLogger struct {
	jl    *JobLogger
	stage string
}

func (sl *StageLogger) Debug(msg string) { sl.jl.logger.log(DEBUG, sl.stage, sl.jl.jobID, msg, nil) }
func (sl *StageLogger) Info(msg string)  { sl.jl.logger.log(INFO, sl.stage, sl.jl.jobID, msg, nil) }
func (sl *StageLogger) Warn(msg string)  { sl.jl.logger.log(WARN, sl.stage, sl.jl.jobID, msg, nil) }
func (sl *StageLogger) Error(msg string) { sl.jl.logger.log(ERROR, sl.stage, sl.jl.jobID, msg, nil) }

// ErrorWithFields logs a stage failure with structured context (offending
// name, diagnostic count, and the like).
func (sl *StageLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	sl.jl.logger.log(ERROR, sl.stage, sl.jl.jobID, msg, fields)
}

// Entered logs stage entry at DEBUG.
func (sl *StageLogger) Entered() { sl.Debug("stage entered") }

// Exited logs stage exit at DEBUG with its wall-clock duration.
func (sl *StageLogger) Exited(d time.Duration) {
	sl.jl.logger.log(DEBUG, sl.stage, sl.jl.jobID, "stage exited", map[string]interface{}{"duration_ms": d.Milliseconds()})
}

var (
	defaultLogger   *Logger
	defaultLoggerMu sync.Mutex
)

// Default returns a process-wide Logger, creating one with sane defaults on
// first use.
func Default() *Logger {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger == nil {
		defaultLogger, _ = New(Config{MinLevel: INFO, Format: TextFormat})
	}
	return defaultLogger
}

// InitDefault replaces the process-wide default logger.
func InitDefault(config Config) error {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger != nil {
		defaultLogger.Close()
	}
	l, err := New(config)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}
