// Package daterotator provides an Archiver for daylog that moves full log files
// into an archive folder with the current date in the name. By default the
// active file /tmp/share/profiling.txt is archived as
// /tmp/share/archived/2006-01-02-profiling.txt.
//
// A second rotation on the same day collides with that name. Collision
// controls what happens next: SingleProbe (default) tries exactly one
// alternative, 2006-01-02-(1)profiling.txt, and gives up if that is taken too.
// Scan keeps counting up until it finds a free (n) suffix.
package daterotator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonboulle/clockwork"
	"golift.io/daylog/compressor"
	"golift.io/daylog/filer"
)

// Collision decides how a taken archive name is resolved.
type Collision uint8

// SingleProbe only tries the (1) suffix. Scan tries (1), (2), ... up to MaxProbe.
const (
	SingleProbe Collision = iota
	Scan
)

// Some defaults this package uses.
const (
	FormatDefault     = "2006-01-02" // Go time layout for the date in archive names.
	DefaultJoiner     = "-"          // between the date and the rest of the name.
	DefaultArchiveDir = "archived"   // created next to the active file.
	DefaultMaxProbe   = 10000
	DirMode           = os.FileMode(0o750)
)

// Errors returned by Rotate. They are wrapped; use errors.Is.
var (
	ErrCreateDir     = errors.New("creating archive directory")
	ErrArchiveExists = errors.New("archive file already exists")
	ErrMove          = errors.New("moving log file")
)

// Layout defines how date-stamped archive files have their names decided.
type Layout struct {
	filer.Filer

	ArchiveDir string          // Location where rotated logs are moved to. Default: "archived" next to the log.
	Format     string          // Go time layout for the date. Default: FormatDefault.
	Joiner     string          // The string between the date and the file name. Default: -
	Collision  Collision       // How to pick a name when today's archive exists.
	MaxProbe   int             // Highest (n) tried in Scan mode. Default: DefaultMaxProbe.
	DirMode    os.FileMode     // POSIX mode for the archive folder.
	UseUTC     bool            // Use the UTC date instead of the local date.
	Clock      clockwork.Clock // Provides "today". Default: the real clock.
	// PostRotate is called by Post, after a successful rotation.
	PostRotate func(fileName, newFile string)
}

// Post satisfies the daylog.Archiver interface.
func (l *Layout) Post(fileName, newFile string) {
	if l.PostRotate != nil {
		l.PostRotate(fileName, newFile)
	}
}

// Dirs sets defaults and returns the directory of the active file.
// The archive directory is not returned; Rotate creates it when first needed.
func (l *Layout) Dirs(fileName string) ([]string, error) {
	l.setDefaults()

	return []string{filepath.Dir(fileName)}, nil
}

// Rotate moves fileName into the archive directory under today's name.
// Returns the new path of the archived file.
func (l *Layout) Rotate(fileName string) (string, error) {
	l.setDefaults()

	dir := l.getArchiveDir(fileName)
	if err := l.MkdirAll(dir, l.DirMode); err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrCreateDir, dir, err)
	}

	newFile, err := l.pickName(dir, l.today(), filepath.Base(fileName))
	if err != nil {
		return "", err
	}

	if err := l.Rename(fileName, newFile); err != nil {
		return "", fmt.Errorf("%w %s -> %s: %w", ErrMove, fileName, newFile, err)
	}

	return newFile, nil
}

func (l *Layout) setDefaults() {
	if l.Filer == nil {
		l.Filer = filer.Default()
	}

	if l.Format == "" {
		l.Format = FormatDefault
	}

	if l.Joiner == "" {
		l.Joiner = DefaultJoiner
	}

	if l.MaxProbe < 1 {
		l.MaxProbe = DefaultMaxProbe
	}

	if l.DirMode == 0 {
		l.DirMode = DirMode
	}

	if l.Clock == nil {
		l.Clock = clockwork.NewRealClock()
	}

	if l.Collision > Scan {
		l.Collision = SingleProbe
	}
}

func (l *Layout) getArchiveDir(fileName string) string {
	switch {
	case l.ArchiveDir == "":
		return filepath.Join(filepath.Dir(fileName), DefaultArchiveDir)
	case filepath.IsAbs(l.ArchiveDir):
		return l.ArchiveDir
	default:
		return filepath.Join(filepath.Dir(fileName), l.ArchiveDir)
	}
}

func (l *Layout) today() string {
	now := l.Clock.Now()
	if l.UseUTC {
		now = now.UTC()
	}

	return now.Format(l.Format)
}

// pickName returns the first usable archive path for this rotation.
func (l *Layout) pickName(dir, date, base string) (string, error) {
	primary := filepath.Join(dir, date+l.Joiner+base)

	taken, err := l.taken(primary)
	if err != nil || !taken {
		return primary, err
	}

	last := 1
	if l.Collision == Scan {
		last = l.MaxProbe
	}

	for iteration := 1; iteration <= last; iteration++ {
		candidate := filepath.Join(dir, date+l.Joiner+"("+strconv.Itoa(iteration)+")"+base)

		taken, err := l.taken(candidate)
		if err != nil {
			return "", err
		} else if !taken {
			return candidate, nil
		}

		if l.Collision == SingleProbe {
			return "", fmt.Errorf("%w: %s", ErrArchiveExists, candidate)
		}
	}

	return "", fmt.Errorf("%w: %s through (%d)", ErrArchiveExists, primary, last)
}

// taken is true if the name, or its compressed sibling, already exists.
func (l *Layout) taken(fileName string) (bool, error) {
	for _, name := range []string{fileName, fileName + compressor.SuffixGZ} {
		exists, err := filer.Exists(l.Filer, name)
		if err != nil {
			return false, fmt.Errorf("%w: checking %s: %w", ErrMove, name, err)
		} else if exists {
			return true, nil
		}
	}

	return false, nil
}
