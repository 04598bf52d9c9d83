package lexicon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/mechsave/internal/record"
	"github.com/roach88/mechsave/internal/savedata"
)

// FileName is the lexicon document name inside the save directory.
const FileName = savedata.LexiconName + record.Ext

// Backing persists the serialized lexicon document.
//
// ReadDocument returns (nil, nil) when no document has been written yet.
type Backing interface {
	ReadDocument(ctx context.Context) ([]byte, error)
	WriteDocument(ctx context.Context, data []byte) error
}

// Compile-time check that File satisfies Backing.
var _ Backing = (*File)(nil)

// File stores the lexicon document as a single file.
type File struct {
	path string
}

// NewFile returns a File backing for <dir>/lexicon.json.
func NewFile(dir string) *File {
	return &File{path: filepath.Join(dir, FileName)}
}

// Path returns the document location.
func (f *File) Path() string {
	return f.path
}

// ReadDocument reads the lexicon file.
func (f *File) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return data, nil
}

// WriteDocument replaces the lexicon file in full.
func (f *File) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write lexicon: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("write lexicon: %w", err)
	}
	if err := record.WriteFileAtomic(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write lexicon: %w", err)
	}
	return nil
}
