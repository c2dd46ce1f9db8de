package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dReserve/FAT/internal/model"
)

// ErrMiss is returned by Load when no entry exists for the key.
var ErrMiss = errors.New("cache miss")

// WriteError reports a failed cache write. The caller's committed data is
// unaffected by it.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CursorClock maps a cursor to the time used for its directory.
type CursorClock func(model.Cursor) time.Time

// Disk is a file-per-page cache rooted at a directory.
type Disk struct {
	root string
}

// NewDisk returns a cache rooted at dir. The directory is created lazily.
func NewDisk(dir string) *Disk {
	return &Disk{root: dir}
}

// Root returns the cache root directory.
func (d *Disk) Root() string {
	return d.root
}

// MarketDir returns the directory holding every entry of m.
func (d *Disk) MarketDir(m model.Market) string {
	return filepath.Join(d.root, m.Code)
}

// Path returns the file of the entry keyed by (m, from).
func (d *Disk) Path(m model.Market, from model.Cursor, clock CursorClock) string {
	t := clock(from).UTC()
	return filepath.Join(
		d.MarketDir(m),
		strconv.Itoa(t.Year()),
		strconv.Itoa(int(t.Month())),
		strconv.Itoa(t.Day()),
		fileName(from),
	)
}

// EnsureMarket creates the market's cache directory.
func (d *Disk) EnsureMarket(m model.Market) error {
	if err := os.MkdirAll(d.MarketDir(m), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return nil
}

// Load returns the raw page cached under (m, from), or ErrMiss.
func (d *Disk) Load(m model.Market, from model.Cursor, clock CursorClock) ([]byte, error) {
	path := d.Path(m, from, clock)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	return data, nil
}

// Store writes raw under (m, from). The file is written to a temporary name
// in the same directory and renamed into place, so readers never observe a
// partial entry.
func (d *Disk) Store(m model.Market, from model.Cursor, clock CursorClock, raw []byte) error {
	path := d.Path(m, from, clock)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// fileName keeps a cursor usable as a single path element.
func fileName(c model.Cursor) string {
	if c == "" {
		return string(model.StartCursor)
	}
	return url.PathEscape(string(c))
}
