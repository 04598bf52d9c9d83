package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/mechsave/internal/savedata"
)

// Ext is the file extension of record documents.
const Ext = ".json"

// Store is durable storage for opaque save payloads keyed by save ID.
//
// Read returns an error wrapping savedata.ErrNotFound when no record exists.
// Delete of an absent record is a no-op.
type Store interface {
	Write(ctx context.Context, id string, data []byte) error
	Read(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Compile-time check that Dir satisfies Store.
var _ Store = (*Dir)(nil)

// Dir stores each record as <root>/<id>.json.
type Dir struct {
	root string
}

// OpenDir returns a Dir rooted at root, creating the directory if needed.
func OpenDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("open record dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory holding the records.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the file location for a record ID.
func (d *Dir) Path(id string) (string, error) {
	if err := savedata.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(d.root, id+Ext), nil
}

// Write stores data as the record for id, replacing any previous record.
func (d *Dir) Write(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	path, err := d.Path(id)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write record %s: %w", id, err)
	}
	return nil
}

// Read returns the stored record for id.
func (d *Dir) Read(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	path, err := d.Path(id)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read record %s: %w", id, savedata.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the record for id. Absent records are ignored.
func (d *Dir) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	path, err := d.Path(id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a record is stored for id without reading it.
func (d *Dir) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("stat record: %w", err)
	}
	path, err := d.Path(id)
	if err != nil {
		return false, fmt.Errorf("stat record: %w", err)
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat record %s: %w", id, err)
	}
	return info.Mode().IsRegular(), nil
}

// List returns the IDs of every stored record, sorted.
// The lexicon document and temp files are skipped.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	dirEntries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	ids := []string{}
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		name := de.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, Ext) {
			continue
		}
		id := strings.TrimSuffix(name, Ext)
		if savedata.ValidateID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// WriteFileAtomic writes data to a hidden temp file next to path, syncs it
// and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
