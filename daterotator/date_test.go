package daterotator_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golift.io/daylog/daterotator"
	"golift.io/daylog/filer"
	"golift.io/daylog/mocks"
)

var errTest = errors.New("this is a test error")

func newYear() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 23, 59, 0, 0, time.Local))
}

func TestPost(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	layout := &daterotator.Layout{PostRotate: func(s1, s2 string) {
		assert.Equal("string1", s1)
		assert.Equal("string2", s2)
	}}
	layout.Post("string1", "string2")

	layout.PostRotate = nil
	layout.Post("string1", "string2")
}

func TestDirs(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	layout := &daterotator.Layout{Collision: 99}
	dirs, err := layout.Dirs(filepath.Join("/", "tmp", "share", "profiling.txt"))
	assert.Equal([]string{filepath.Join("/", "tmp", "share")}, dirs, "the archive dir is made on demand")
	assert.NoError(err, "this should not produce an error")
	assert.Equal(filer.Default(), layout.Filer)
	assert.Equal(daterotator.DefaultJoiner, layout.Joiner)
	assert.Equal(daterotator.FormatDefault, layout.Format)
	assert.Equal(daterotator.DefaultMaxProbe, layout.MaxProbe)
	assert.Equal(daterotator.SingleProbe, layout.Collision, "invalid modes fall back to the default")
}

func TestRotateFirst(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFiler := mocks.NewMockFiler(mockCtrl)
	layout := &daterotator.Layout{Filer: mockFiler, Clock: newYear()}
	active := filepath.Join("/", "tmp", "share", "profiling.txt")
	archived := filepath.Join("/", "tmp", "share", "archived")
	newName := filepath.Join(archived, "2024-01-01-profiling.txt")

	mockFiler.EXPECT().MkdirAll(archived, daterotator.DirMode)
	mockFiler.EXPECT().Stat(newName).Return(nil, fs.ErrNotExist)
	mockFiler.EXPECT().Stat(newName+".gz").Return(nil, fs.ErrNotExist)
	mockFiler.EXPECT().Rename(active, newName)

	file, err := layout.Rotate(active)
	assert.Equal(newName, file)
	assert.NoError(err)
}

func TestRotateCollision(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFiler := mocks.NewMockFiler(mockCtrl)
	layout := &daterotator.Layout{Filer: mockFiler, Clock: newYear(), ArchiveDir: "/var/log/old", UseUTC: false}
	active := filepath.Join("/", "tmp", "share", "profiling.txt")
	primary := filepath.Join("/var/log/old", "2024-01-01-profiling.txt")
	first := filepath.Join("/var/log/old", "2024-01-01-(1)profiling.txt")

	// The primary is taken, (1) is free.
	mockFiler.EXPECT().MkdirAll("/var/log/old", daterotator.DirMode)
	mockFiler.EXPECT().Stat(primary).Return(nil, nil)
	mockFiler.EXPECT().Stat(first).Return(nil, fs.ErrNotExist)
	mockFiler.EXPECT().Stat(first+".gz").Return(nil, fs.ErrNotExist)
	mockFiler.EXPECT().Rename(active, first)

	file, err := layout.Rotate(active)
	assert.Equal(first, file)
	assert.NoError(err)

	// Both are taken (the primary only as a .gz); single probe gives up without renaming.
	mockFiler.EXPECT().MkdirAll("/var/log/old", daterotator.DirMode)
	mockFiler.EXPECT().Stat(primary).Return(nil, fs.ErrNotExist)
	mockFiler.EXPECT().Stat(primary+".gz").Return(nil, nil)
	mockFiler.EXPECT().Stat(first).Return(nil, nil)

	file, err = layout.Rotate(active)
	assert.Empty(file, "the file must be empty when rotation fails.")
	assert.ErrorIs(err, daterotator.ErrArchiveExists)
}

func TestRotateErrors(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFiler := mocks.NewMockFiler(mockCtrl)
	layout := &daterotator.Layout{Filer: mockFiler, Clock: newYear(), ArchiveDir: "backup"}
	active := filepath.Join("/", "tmp", "share", "profiling.txt")
	archived := filepath.Join("/", "tmp", "share", "backup")
	newName := filepath.Join(archived, "2024-01-01-profiling.txt")

	mockFiler.EXPECT().MkdirAll(archived, daterotator.DirMode).Return(errTest)
	file, err := layout.Rotate(active)
	assert.Empty(file)
	assert.ErrorIs(err, daterotator.ErrCreateDir)
	assert.ErrorIs(err, errTest)

	mockFiler.EXPECT().MkdirAll(archived, daterotator.DirMode)
	mockFiler.EXPECT().Stat(newName).Return(nil, fs.ErrPermission)
	file, err = layout.Rotate(active)
	assert.Empty(file)
	assert.ErrorIs(err, daterotator.ErrMove)
	assert.ErrorIs(err, fs.ErrPermission)

	mockFiler.EXPECT().MkdirAll(archived, daterotator.DirMode)
	mockFiler.EXPECT().Stat(gomock.Any()).Return(nil, fs.ErrNotExist).Times(2)
	mockFiler.EXPECT().Rename(active, newName).Return(errTest)
	file, err = layout.Rotate(active)
	assert.Empty(file)
	assert.ErrorIs(err, daterotator.ErrMove)
	assert.ErrorIs(err, errTest, "the rename error must be returned.")
}

// makeFiles creates empty files in dir.
func makeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))

	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600))
	}
}

func TestRotateScan(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	dir := t.TempDir()
	archived := filepath.Join(dir, "archived")
	active := filepath.Join(dir, "profiling.txt")
	layout := &daterotator.Layout{Collision: daterotator.Scan, Clock: newYear()}

	makeFiles(t, dir, "profiling.txt")
	makeFiles(t, archived, "2024-01-01-profiling.txt", "2024-01-01-(1)profiling.txt", "2024-01-01-(3)profiling.txt.gz")

	file, err := layout.Rotate(active)
	require.NoError(t, err)
	assert.Equal(filepath.Join(archived, "2024-01-01-(2)profiling.txt"), file, "the lowest free suffix wins")
	assert.NoFileExists(active)

	makeFiles(t, dir, "profiling.txt")
	file, err = layout.Rotate(active)
	require.NoError(t, err)
	assert.Equal(filepath.Join(archived, "2024-01-01-(4)profiling.txt"), file, "a .gz archive counts as taken")

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal("profiling.txt", string(content))
}

func TestRotateScanExhausted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archived := filepath.Join(dir, "archived")
	layout := &daterotator.Layout{Collision: daterotator.Scan, MaxProbe: 2, Clock: newYear()}

	makeFiles(t, dir, "profiling.txt")
	makeFiles(t, archived, "2024-01-01-profiling.txt", "2024-01-01-(1)profiling.txt", "2024-01-01-(2)profiling.txt")

	file, err := layout.Rotate(filepath.Join(dir, "profiling.txt"))
	assert.Empty(t, file)
	assert.ErrorIs(t, err, daterotator.ErrArchiveExists)
	assert.FileExists(t, filepath.Join(dir, "profiling.txt"), "the active file must stay put")
}

func TestRotateUTC(t *testing.T) {
	t.Parallel()

	// 23:30 on Jan 1 at UTC-5 is already Jan 2 in UTC.
	zone := time.FixedZone("EST", -5*60*60)
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 23, 30, 0, 0, zone))
	dir := t.TempDir()
	layout := &daterotator.Layout{Clock: clock, UseUTC: true, Format: "20060102", Joiner: "_"}

	makeFiles(t, dir, "profiling.txt")

	file, err := layout.Rotate(filepath.Join(dir, "profiling.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archived", "20240102_profiling.txt"), file)
}
