package daylog

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/strftime"
	"golift.io/daylog/daterotator"
	"golift.io/daylog/filer"
)

// These are the default directory and log file POSIX modes.
const (
	FileMode os.FileMode = 0o600
	DirMode  os.FileMode = 0o750
)

// Defaults used for missing Config values.
const (
	DefaultDirectory  = "/tmp/share/"
	DefaultFileName   = "profiling.txt"
	DefaultMaxSize    = 3
	MiB               = 1024 * 1024
	DefaultSizeUnit   = MiB
	DefaultTimeFormat = "%d-%m-%Y %H:%M:%S"
)

// Config is the data needed to create a new Writer or Logger.
// It is copied during construction; changing it afterwards has no effect.
type Config struct {
	// Archiver names and moves full files. Default: &daterotator.Layout{}.
	// A *daterotator.Layout with no Clock, Filer or DirMode gets these from the Config.
	Archiver   Archiver
	Directory  string          // Folder for the active file. Default: /tmp/share/
	FileName   string          // Active file name. Default: profiling.txt
	MaxSize    int64           // Rotate when the file reaches MaxSize*SizeUnit bytes. Default: 3
	SizeUnit   int64           // Bytes per MaxSize unit. Default: 1 MiB.
	TimeFormat string          // strftime pattern for record time stamps.
	FileMode   os.FileMode     // POSIX mode for new files.
	DirMode    os.FileMode     // POSIX mode for new folders.
	Clock      clockwork.Clock // Default: the real clock.
	Filer      filer.Filer     // Default: filer.Default()
	// ErrorLog receives a diagnostic line for every failure a Logger swallows.
	// It must not write back into the same Logger. Default: standard error.
	ErrorLog func(msg string, v ...any)
}

// Our default archiver must satisfy an Archiver.
var _ Archiver = (*daterotator.Layout)(nil)

// setConfigDefaults returns a copy of the config with missing values set.
func setConfigDefaults(config *Config) (*Config, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}

	if cfg.MaxSize < 0 || cfg.SizeUnit < 0 {
		return nil, fmt.Errorf("%w: %d*%d", ErrInvalidSize, cfg.MaxSize, cfg.SizeUnit)
	}

	if cfg.Directory == "" {
		cfg.Directory = DefaultDirectory
	}

	if cfg.FileName == "" {
		cfg.FileName = DefaultFileName
	}

	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}

	if cfg.SizeUnit == 0 {
		cfg.SizeUnit = DefaultSizeUnit
	}

	if cfg.MaxSize > math.MaxInt64/cfg.SizeUnit {
		return nil, fmt.Errorf("%w: %d*%d overflows", ErrInvalidSize, cfg.MaxSize, cfg.SizeUnit)
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = DefaultTimeFormat
	}

	if cfg.FileMode == 0 {
		cfg.FileMode = FileMode
	}

	if cfg.DirMode == 0 {
		cfg.DirMode = DirMode
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Filer == nil {
		cfg.Filer = filer.Default()
	}

	if cfg.Archiver == nil {
		cfg.Archiver = &daterotator.Layout{}
	}

	if layout, ok := cfg.Archiver.(*daterotator.Layout); ok {
		inheritLayout(layout, &cfg)
	}

	if cfg.ErrorLog == nil {
		cfg.ErrorLog = log.New(os.Stderr, "daylog: ", log.LstdFlags).Printf
	}

	return &cfg, nil
}

// inheritLayout fills the layout's empty fields from the config.
func inheritLayout(layout *daterotator.Layout, cfg *Config) {
	if layout.Clock == nil {
		layout.Clock = cfg.Clock
	}

	if layout.Filer == nil {
		layout.Filer = cfg.Filer
	}

	if layout.DirMode == 0 {
		layout.DirMode = cfg.DirMode
	}
}

// Path returns the full path to the active log file.
func (c *Config) Path() string {
	return filepath.Join(c.Directory, c.FileName)
}

// MaxBytes returns the rotation threshold in bytes.
func (c *Config) MaxBytes() int64 {
	return c.MaxSize * c.SizeUnit
}

func (c *Config) timeFormat() (*strftime.Strftime, error) {
	format, err := strftime.New(c.TimeFormat)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidTimeFormat, c.TimeFormat, err)
	}

	return format, nil
}
