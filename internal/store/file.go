package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileDocuments keeps each document as a JSON file under a data directory.
// Writes go through a temp file and rename so readers never observe a
// partial document.
type FileDocuments struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileDocuments creates the data directory if needed.
func NewFileDocuments(dir string) (*FileDocuments, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileDocuments{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (f *FileDocuments) lock(name string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[name]
	if !ok {
		l = &sync.Mutex{}
		f.locks[name] = l
	}
	return l
}

func (f *FileDocuments) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileDocuments) read(name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read document %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// Update runs a read-modify-write transaction on one document.
func (f *FileDocuments) Update(ctx context.Context, name string, fn func(raw []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := f.lock(name)
	l.Lock()
	defer l.Unlock()

	raw, err := f.read(name)
	if err != nil {
		return err
	}

	next, err := fn(raw)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return f.writeAtomic(name, next)
}

// Load decodes a document into out; ok is false when the document is absent.
func (f *FileDocuments) Load(ctx context.Context, name string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l := f.lock(name)
	l.Lock()
	defer l.Unlock()

	raw, err := f.read(name)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode document %s: %w", name, err)
	}
	return true, nil
}

// Clear removes the named documents; missing documents are not an error.
func (f *FileDocuments) Clear(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, name := range names {
		l := f.lock(name)
		l.Lock()
		err := os.Remove(f.path(name))
		l.Unlock()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear document %s: %w", name, err)
		}
	}
	return nil
}

func (f *FileDocuments) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, name+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, f.path(name)); err != nil {
		return fmt.Errorf("rename temp for %s: %w", name, err)
	}
	return nil
}
