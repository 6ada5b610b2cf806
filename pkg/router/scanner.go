package router

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/chen-dev/chen/internal/errors"
)

// DefaultExtensions are the file extensions recognized as pages.
var DefaultExtensions = []string{".tsx", ".jsx", ".ts", ".js"}

// Scanner discovers page files below a pages root.
type Scanner struct {
	fs         billy.Filesystem
	root       string
	extensions []string
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithExtensions replaces the recognized page extensions.
func WithExtensions(exts ...string) ScannerOption {
	return func(s *Scanner) {
		if len(exts) > 0 {
			s.extensions = append([]string(nil), exts...)
		}
	}
}

// WithFilesystem scans fsys instead of the host filesystem.
func WithFilesystem(fsys billy.Filesystem) ScannerOption {
	return func(s *Scanner) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// NewScanner creates a scanner for root. On the host filesystem a relative
// root is made absolute so descriptors carry absolute paths.
func NewScanner(root string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		root:       root,
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = osfs.New("/")
		if abs, err := filepath.Abs(root); err == nil {
			s.root = abs
		}
	}
	return s
}

// Root returns the pages root being scanned.
func (s *Scanner) Root() string {
	return s.root
}

// Filesystem returns the filesystem being scanned.
func (s *Scanner) Filesystem() billy.Filesystem {
	return s.fs
}

// Scan collects every page file below the root, sorted by relative path.
// A missing root yields an empty result. Any other read failure is an E100
// error. Symlinked directories are not descended; symlinked files are kept.
func (s *Scanner) Scan() ([]PageDescriptor, error) {
	pages := []PageDescriptor{}
	if err := s.walk(s.root, "", &pages); err != nil {
		return nil, err
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].RelativePath < pages[j].RelativePath
	})
	return pages, nil
}

func (s *Scanner) walk(dir, rel string, pages *[]PageDescriptor) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.New("E100").
			WithFile(dir).
			WithSuggestion("Check that the pages directory is a readable directory").
			Wrap(err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		abs := s.fs.Join(dir, name)
		relPath := name
		if rel != "" {
			relPath = rel + "/" + name
		}

		mode := entry.Mode()
		switch {
		case mode.IsDir():
			if err := s.walk(abs, relPath, pages); err != nil {
				return err
			}
		case mode.IsRegular() || mode&os.ModeSymlink != 0:
			if s.IsPageFile(name) {
				*pages = append(*pages, PageDescriptor{
					AbsolutePath: abs,
					RelativePath: relPath,
				})
			}
		}
	}
	return nil
}

// IsPageFile reports whether a file name has a recognized page extension.
// TypeScript declaration files are never pages.
func (s *Scanner) IsPageFile(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	for _, ext := range s.extensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return true
		}
	}
	return false
}
