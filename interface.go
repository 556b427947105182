package daylog

//go:generate mockgen -destination=mocks/archiver.go -package=mocks golift.io/daylog Archiver

// Archiver moves a full log file out of the way. The daterotator package
// provides the default date-stamped implementation; use it directly, or pass
// in your own naming logic.
type Archiver interface {
	// Rotate is called any time the active file reached its size limit.
	// It returns the path the file was moved to.
	Rotate(fileName string) (newFile string, err error)
	// Post is called after a successful rotation. This is blocking, so if it
	// does something like compress the archived file, make it snappy or run
	// it in a go routine.
	Post(fileName, newFile string)

	// Dirs is called once on startup.
	// This should do any validation and return a list of directories to create.
	Dirs(fileName string) (dirPaths []string, err error)
}
