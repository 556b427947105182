package daylog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golift.io/daylog/daterotator"
	"golift.io/daylog/filer"
)

// LineEnding terminates every record in the active file.
const LineEnding = "\r\n"

// Writer owns the active log file. It appends one line per call and moves the
// file into the archive once it reaches the size limit. Every call opens,
// writes and closes the file; nothing is buffered.
// A Writer is not safe for concurrent use. Logger wraps one in a go routine.
type Writer struct {
	config      *Config  // copied configuration with defaults.
	path        string   // full path to the active file.
	Interface   Archiver // copied from config for brevity.
	filer.Filer          // overridable file system procedures.
}

// Report describes what a single Append did.
type Report struct {
	Path      string // the active file.
	Written   int    // bytes appended, including LineEnding.
	Archived  string // where the previous file went, if this append rotated it.
	RotateErr error  // rotation failure; the line is still appended to the old file.
}

// NewWriter returns a synchronous rotating Writer. No files or folders are
// created until the first Append.
func NewWriter(config *Config) (*Writer, error) {
	cfg, err := setConfigDefaults(config)
	if err != nil {
		return nil, err
	}

	if _, err = cfg.timeFormat(); err != nil {
		return nil, err
	}

	return newWriter(cfg), nil
}

func newWriter(cfg *Config) *Writer {
	return &Writer{config: cfg, path: cfg.Path(), Interface: cfg.Archiver, Filer: cfg.Filer}
}

// Path returns the full path to the active log file.
func (w *Writer) Path() string {
	return w.path
}

// Append writes line and a line ending to the active file. If the file is already
// at or over the size limit it is archived first. A failed rotation is reported
// in Report.RotateErr and does not stop the append. The returned error is only
// for the write path itself.
func (w *Writer) Append(line string) (*Report, error) {
	report := &Report{Path: w.path}

	size, err := w.size()
	if err != nil {
		return report, err
	}

	if size >= w.config.MaxBytes() {
		report.Archived, report.RotateErr = w.Rotate()
	}

	file, err := w.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, w.config.FileMode)
	if err != nil {
		return report, &Error{Kind: FileCreateFailure, Op: "open", Path: w.path, Err: err}
	}

	report.Written, err = file.WriteString(line + LineEnding)
	if cerr := file.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return report, &Error{Kind: WriteFailure, Op: "append", Path: w.path, Err: err}
	}

	return report, nil
}

// size returns the current size of the active file; zero if it does not exist yet.
func (w *Writer) size() (int64, error) {
	info, err := w.Stat(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, &Error{Kind: StatFailure, Op: "stat", Path: w.path, Err: err}
	} else if info == nil {
		return 0, &Error{Kind: StatFailure, Op: "stat", Path: w.path, Err: fs.ErrInvalid}
	}

	return info.Size(), nil
}

// Rotate moves the active file into the archive now, regardless of its size.
// Returns the archive path. The next Append creates a new active file.
func (w *Writer) Rotate() (string, error) {
	newFile, err := w.Interface.Rotate(w.path)
	if err != nil {
		kind := MoveFailure
		if errors.Is(err, daterotator.ErrCreateDir) {
			kind = FileCreateFailure
		}

		return "", &Error{Kind: kind, Op: "rotate", Path: w.path, Err: fmt.Errorf("archiving: %w", err)}
	}

	w.Interface.Post(w.path, newFile)

	return newFile, nil
}
