package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrFileNotFound    = errors.New("file not found")
)

// Store is a flat blob store keyed by sanitised filename.
type Store interface {
	// Save writes r under the sanitised form of filename and returns the
	// public reference path. An existing file with the same name is replaced.
	Save(filename string, r io.Reader) (string, error)
	// Locate returns the on-disk path of a stored file.
	Locate(filename string) (string, error)
}

type DiskStore struct {
	root string
}

// NewDiskStore creates root if it does not exist.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Save(filename string, r io.Reader) (string, error) {
	name := SecureFilename(filename)
	if name == "" {
		return "", ErrInvalidFilename
	}
	f, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return URLPrefix + name, nil
}

func (s *DiskStore) Locate(filename string) (string, error) {
	name := SecureFilename(filename)
	if name == "" || name != filename {
		return "", ErrFileNotFound
	}
	path := filepath.Join(s.root, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrFileNotFound
	}
	return path, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client-supplied name to a flat ASCII filename:
// accents are decomposed and dropped, path separators and whitespace become
// underscores, anything outside [A-Za-z0-9_.-] is removed and leading or
// trailing dots and underscores are trimmed. The result may be empty.
func SecureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)
	var b strings.Builder
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	name := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
