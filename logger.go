package daylog

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lestrrat-go/strftime"
)

// Level is the severity tag written into every record.
type Level uint8

// These are the severities a Logger writes. There is no filtering.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the tag used inside the brackets of a record.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LEVEL(" + fmt.Sprint(uint8(l)) + ")"
	}
}

// Logger is what you get in return for providing a Config. Use Info, Warn and
// Error to write records. Those never return errors: failures are sent to the
// Config.ErrorLog side channel. Use Log for the same thing with an error.
// All file operations happen in one go routine, so a Logger is safe for concurrent use.
// You must obtain a Logger by calling one of the New() procedures.
type Logger struct {
	config *Config            // incoming configuration, with defaults.
	format *strftime.Strftime // compiled TimeFormat.
	writer *Writer            // the rotating writer; only touched by processLogChannel.
	log    chan *request      // incoming work passed across go routines.
	resp   chan *resp         // response sent back across go routines.
	stop   chan struct{}      // closed by Close.
	done   chan struct{}      // closed when processLogChannel returns.
	once   sync.Once          // guards stop.
}

// request is either a line to append or a rotation.
type request struct {
	line   string
	rotate bool
}

// resp is used to send responses back across our go routines.
type resp struct {
	archived  string
	rotateErr error // rotation failed but the append may still have worked.
	err       error
}

// New takes in your configuration and returns a Logger. Configuration errors and
// failures creating the log directory are returned.
func New(config *Config) (*Logger, error) {
	logger, err := newLogger(config)
	if err != nil {
		return nil, err
	}

	if err := logger.makeDirs(); err != nil {
		return nil, err
	}

	logger.start()

	return logger, nil
}

// NewMust is like New but never returns an error. A bad Config (invalid size or
// time format) panics. Directory errors go to ErrorLog and are retried by the
// first write.
func NewMust(config *Config) *Logger {
	logger, err := newLogger(config)
	if err != nil {
		panic(err)
	}

	logger.report(logger.makeDirs())
	logger.start()

	return logger
}

func newLogger(config *Config) (*Logger, error) {
	cfg, err := setConfigDefaults(config)
	if err != nil {
		return nil, err
	}

	format, err := cfg.timeFormat()
	if err != nil {
		return nil, err
	}

	return &Logger{config: cfg, format: format, writer: newWriter(cfg)}, nil
}

// makeDirs creates the directories the Archiver asks for.
func (l *Logger) makeDirs() error {
	dirs, err := l.writer.Interface.Dirs(l.writer.Path())
	if err != nil {
		return fmt.Errorf("validating Archiver: %w", err)
	}

	for _, dir := range dirs {
		if err := l.writer.MkdirAll(dir, l.config.DirMode); err != nil {
			return &Error{Kind: FileCreateFailure, Op: "mkdir", Path: dir, Err: err}
		}
	}

	return nil
}

func (l *Logger) start() {
	l.log = make(chan *request)
	l.resp = make(chan *resp)
	l.stop = make(chan struct{})
	l.done = make(chan struct{})

	go l.processLogChannel()
}

// processLogChannel runs in a go routine and reads the incoming request channel.
// Every append and rotation happens here, one at a time, in arrival order.
func (l *Logger) processLogChannel() {
	defer close(l.done)

	for {
		select {
		case req := <-l.log:
			l.resp <- l.handle(req)
		case <-l.stop:
			return
		}
	}
}

func (l *Logger) handle(req *request) *resp {
	if req.rotate {
		archived, err := l.writer.Rotate()
		return &resp{archived: archived, err: err}
	}

	report, err := l.writer.Append(req.line)

	return &resp{archived: report.Archived, rotateErr: report.RotateErr, err: err}
}

// send hands a request to the writer go routine and waits for the answer.
func (l *Logger) send(req *request) *resp {
	select {
	case l.log <- req:
		return <-l.resp
	case <-l.done:
		return &resp{err: fmt.Errorf("%w: %s", ErrClosed, l.writer.Path())}
	}
}

// Record returns a record: time stamp, severity tag and message.
func (l *Logger) Record(level Level, msg string) string {
	return l.format.FormatString(l.config.Clock.Now()) + "---[" + level.String() + "]" + msg
}

// Log formats msg and appends it to the active file. Unlike Info, Warn and Error,
// failures are returned and not reported. A failed rotation and a failed write
// are joined; use errors.Is with ErrMove, ErrWrite, etc.
func (l *Logger) Log(level Level, msg string) error {
	resp := l.send(&request{line: l.Record(level, msg)})
	return errors.Join(resp.rotateErr, resp.err)
}

// Output writes a record at level. Failures go to the ErrorLog.
func (l *Logger) Output(level Level, msg string) {
	l.report(l.Log(level, msg))
}

// Info writes an INFO record. Failures go to the ErrorLog.
func (l *Logger) Info(msg string) {
	l.Output(LevelInfo, msg)
}

// Warn writes a WARN record.
func (l *Logger) Warn(msg string) {
	l.Output(LevelWarn, msg)
}

// Error writes an ERROR record.
func (l *Logger) Error(msg string) {
	l.Output(LevelError, msg)
}

// Write appends b as a single INFO record, trailing newline removed. This
// satisfies io.Writer so a Logger can be passed to log.SetOutput.
// Only a failed append returns an error. When the record was written but the
// rotation before it failed, len(b) is returned and the rotation error goes to ErrorLog.
func (l *Logger) Write(b []byte) (int, error) {
	resp := l.send(&request{line: l.Record(LevelInfo, strings.TrimRight(string(b), "\r\n"))})
	l.report(resp.rotateErr)

	if resp.err != nil {
		return 0, resp.err
	}

	return len(b), nil
}

// Rotate forces the active file into the archive immediately. Returns the archive path.
func (l *Logger) Rotate() (string, error) {
	resp := l.send(&request{rotate: true})
	return resp.archived, resp.err
}

// Close stops the go routine. There is no open file to close. Info, Warn and
// Error after Close only report ErrClosed; a second Close returns it.
func (l *Logger) Close() error {
	err := ErrClosed

	l.once.Do(func() {
		close(l.stop)
		<-l.done

		err = nil
	})

	return err
}

// report sends err to the ErrorLog, one line per joined error.
// A panicking ErrorLog is recovered so it never reaches the caller.
func (l *Logger) report(err error) {
	if err == nil {
		return
	}

	defer func() { _ = recover() }()

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			l.config.ErrorLog("%v", e)
		}

		return
	}

	l.config.ErrorLog("%v", err)
}

// Our interface must satify an io.WriteCloser.
var _ io.WriteCloser = (*Logger)(nil)
