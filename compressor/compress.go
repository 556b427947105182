// Package compressor gzips archived log files. Use Compressor.PostRotate as a
// daterotator.Layout PostRotate hook. The date rotator treats a .gz sibling as
// a taken archive name, so compressed archives are never overwritten.
package compressor

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"golift.io/daylog/filer"
)

// SuffixGZ is appended to a fileName to make the new compressed file name.
const SuffixGZ = ".gz"

// Report contains a report of the compression operation.
// Always check for Error to make sure the New* data is valid.
type Report struct {
	OldFile string
	NewFile string
	OldSize int64
	NewSize int64
	Elapsed time.Duration
	Error   error
}

// Compressor holds the optional settings for compressing archives.
// The zero value is usable.
type Compressor struct {
	Level int         // gzip level. Zero and invalid values use gzip.DefaultCompression.
	Filer filer.Filer // Default: filer.Default()
	// Printf receives a line for every finished compression. Default: log.Printf.
	Printf func(msg string, v ...any)
}

// Compress gzips a file, removes the original and returns a report. Blocks until finished.
func (c *Compressor) Compress(fileName string) (*Report, error) {
	files := c.filer()
	report := &Report{OldFile: fileName, NewFile: fileName + SuffixGZ}

	oldFile, err := files.Stat(report.OldFile)
	if report.Error = err; report.Error != nil {
		return report, fmt.Errorf("stating old file: %w", report.Error)
	}

	report.OldSize = oldFile.Size()
	start := time.Now()
	report.NewSize, report.Error = c.compress(files, report.OldFile, report.NewFile, oldFile.Mode())
	report.Elapsed = time.Since(start)

	if report.Error != nil {
		return report, fmt.Errorf("compressor error: %w", report.Error)
	}

	return report, nil
}

// Background runs a compression in a go routine and passes the report to cb, if not nil.
func (c *Compressor) Background(fileName string, cb func(report *Report)) {
	go func() {
		report, _ := c.Compress(fileName)

		if cb != nil {
			cb(report)
		}
	}()
}

// PostRotate satisfies the daterotator.Layout PostRotate hook.
// The archived file is compressed in the background and the result is logged.
func (c *Compressor) PostRotate(_, newFile string) {
	c.Background(newFile, c.Log)
}

// Log writes a report line to the Printf function.
func (c *Compressor) Log(report *Report) {
	printf := c.Printf
	if printf == nil {
		printf = log.Printf
	}

	const kilobyte = 1024

	if report.Error != nil {
		printf("Compression Error after %v: %v", report.Elapsed.Round(time.Millisecond), report.Error)
	} else {
		printf("Compression Finished in %v: %s/%dkB -> %s/%dkB", report.Elapsed.Round(time.Millisecond),
			report.OldFile, report.OldSize/kilobyte, report.NewFile, report.NewSize/kilobyte)
	}
}

func (c *Compressor) filer() filer.Filer {
	if c.Filer == nil {
		return filer.Default()
	}

	return c.Filer
}

// level maps 0 to DefaultCompression so the zero value compresses.
// gzip.NoCompression cannot be selected.
func (c *Compressor) level() int {
	if c.Level == gzip.NoCompression || c.Level < gzip.HuffmanOnly || c.Level > gzip.BestCompression {
		return gzip.DefaultCompression
	}

	return c.Level
}

// compress opens both files, copies through a gzip writer, and closes everything.
// The source is removed on success; the partial .gz is removed on failure.
func (c *Compressor) compress(files filer.Filer, oldFile, newFile string, mode os.FileMode) (int64, error) {
	src, err := files.OpenFile(oldFile, os.O_RDONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	dst, err := files.OpenFile(newFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return 0, fmt.Errorf("opening gz file: %w", err)
	}

	gzw, _ := gzip.NewWriterLevel(dst, c.level())
	gzw.Name = filepath.Base(oldFile)

	if _, err = io.Copy(gzw, src); err == nil {
		err = gzw.Close()
	}

	if cerr := dst.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = files.Remove(newFile)
		return 0, fmt.Errorf("%s -> %s: %w", oldFile, newFile, err)
	}

	_ = files.Remove(oldFile)

	info, err := files.Stat(newFile)
	if err != nil {
		return 0, fmt.Errorf("stating gz file: %w", err)
	}

	return info.Size(), nil
}
