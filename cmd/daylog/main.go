// Package main is a small command line tool that appends records to a daylog
// file. Messages come from the arguments, or one per line from stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golift.io/daylog"
	"golift.io/daylog/compressor"
	"golift.io/daylog/daterotator"
)

// Usage:
//   daylog --dir /tmp/share hello world
//   some-app 2>&1 | daylog --level warn --max-size 10 --scan --compress
//   daylog --rotate

func main() {
	if err := newCommand(os.Stdin).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(stdin io.Reader) *cli.Command {
	return &cli.Command{
		Name:      "daylog",
		Usage:     "append records to a size-rotated log file",
		ArgsUsage: "[message...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   daylog.DefaultDirectory,
				Usage:   "folder for the log file and its archived/ folder",
				Sources: cli.EnvVars("DAYLOG_DIR"),
			},
			&cli.Int64Flag{
				Name:    "max-size",
				Value:   daylog.DefaultMaxSize,
				Usage:   "rotate when the file reaches this many MiB",
				Sources: cli.EnvVars("DAYLOG_MAX_SIZE"),
			},
			&cli.StringFlag{
				Name:    "time-format",
				Value:   daylog.DefaultTimeFormat,
				Usage:   "strftime pattern for record time stamps",
				Sources: cli.EnvVars("DAYLOG_TIME_FORMAT"),
			},
			&cli.StringFlag{
				Name:  "level",
				Value: "info",
				Usage: "severity of the records: info, warn or error",
			},
			&cli.BoolFlag{
				Name:  "scan",
				Usage: "on a name collision, count up until a free archive name is found",
			},
			&cli.BoolFlag{
				Name:  "compress",
				Usage: "gzip archived files",
			},
			&cli.BoolFlag{
				Name:  "rotate",
				Usage: "archive the current file before writing anything",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			level, err := parseLevel(cmd.String("level"))
			if err != nil {
				return err
			}

			logger, err := daylog.New(configFrom(cmd))
			if err != nil {
				return fmt.Errorf("starting logger: %w", err)
			}
			defer logger.Close()

			if cmd.Bool("rotate") {
				if newFile, err := logger.Rotate(); err != nil {
					fmt.Fprintln(os.Stderr, "rotate:", err)
				} else {
					fmt.Println("archived:", newFile)
				}
			}

			return writeAll(logger, level, cmd.Args().Slice(), stdin, cmd.Bool("rotate"))
		},
	}
}

// configFrom turns flags into a daylog config.
func configFrom(cmd *cli.Command) *daylog.Config {
	layout := &daterotator.Layout{}
	if cmd.Bool("scan") {
		layout.Collision = daterotator.Scan
	}

	if cmd.Bool("compress") {
		// The process may exit right after a rotation, so compress in the foreground.
		gz := &compressor.Compressor{}
		layout.PostRotate = func(_, newFile string) {
			report, _ := gz.Compress(newFile)
			gz.Log(report)
		}
	}

	return &daylog.Config{
		Archiver:   layout,
		Directory:  cmd.String("dir"),
		MaxSize:    cmd.Int64("max-size"),
		TimeFormat: cmd.String("time-format"),
	}
}

// writeAll logs the args, or every stdin line when there are none.
// With only --rotate and no args, stdin is not read.
func writeAll(logger *daylog.Logger, level daylog.Level, args []string, stdin io.Reader, rotated bool) error {
	if len(args) > 0 {
		logger.Output(level, strings.Join(args, " "))
		return nil
	}

	if rotated {
		return nil
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		logger.Output(level, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	return nil
}

func parseLevel(level string) (daylog.Level, error) {
	switch strings.ToLower(level) {
	case "info":
		return daylog.LevelInfo, nil
	case "warn", "warning":
		return daylog.LevelWarn, nil
	case "error":
		return daylog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", level)
	}
}
