// Package daylog is a minimal append-only file logger with size-triggered
// rotation. Records look like this, one per CRLF-terminated line:
//
//	17-10-2026 10:15:00---[INFO]service started
//
// Before every append the active file's size is checked. Once it reaches the
// limit (3 MiB by default) the file is moved into an archive folder and a new
// one is started. The default Archiver, daterotator.Layout, names archives
// after the current date and never overwrites an existing archive:
//
//	/tmp/share/profiling.txt
//	/tmp/share/archived/2026-10-17-profiling.txt
//	/tmp/share/archived/2026-10-17-(1)profiling.txt
//
// Logging never fails the caller. Info, Warn and Error send every file system
// failure to a side channel (standard error by default) and return. Use
// Logger.Log, or the synchronous Writer, to get the typed *Error instead.
//
//	https://pkg.go.dev/golift.io/daylog/daterotator
//	https://pkg.go.dev/golift.io/daylog/compressor
package daylog
