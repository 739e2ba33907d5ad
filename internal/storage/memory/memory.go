// Package memory provides an in-memory storage.Backend for tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"quill/internal/storage"
)

// Backend keeps canonical objects in a map. Temp files may be registered with
// PutTemp; any other temp path is read from (and removed on) the real disk.
type Backend struct {
	mu      sync.Mutex
	objects map[string][]byte
	temps   map[string][]byte
	ops     []string

	// Injected failures, consulted on every call when non-nil.
	ExistsErr error
	DeleteErr error
	MoveErr   error
}

func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
		temps:   make(map[string][]byte),
	}
}

// PutTemp registers an in-memory temp file for MoveInto.
func (b *Backend) PutTemp(path string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.temps[path] = append([]byte(nil), data...)
}

// Put stores an object directly, bypassing the operation log.
func (b *Backend) Put(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = append([]byte(nil), data...)
}

// Get returns a copy of the stored object.
func (b *Backend) Get(name string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	return append([]byte(nil), data...), ok
}

// Names lists stored objects in lexical order.
func (b *Backend) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.objects))
	for name := range b.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ops returns the recorded mutations, e.g. "delete:<name>", "move:<name>".
func (b *Backend) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ops...)
}

func (b *Backend) Exists(ctx context.Context, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ExistsErr != nil {
		return false, b.ExistsErr
	}
	_, ok := b.objects[name]
	return ok, nil
}

func (b *Backend) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.objects, name)
	b.ops = append(b.ops, "delete:"+name)
	return nil
}

func (b *Backend) MoveInto(ctx context.Context, tempPath, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MoveErr != nil {
		return b.MoveErr
	}

	data, ok := b.temps[tempPath]
	if ok {
		delete(b.temps, tempPath)
	} else {
		var err error
		data, err = os.ReadFile(tempPath)
		if err != nil {
			return fmt.Errorf("read temp file: %w", err)
		}
		if err := os.Remove(tempPath); err != nil {
			return fmt.Errorf("remove temp file: %w", err)
		}
	}

	if _, exists := b.objects[name]; exists {
		return fmt.Errorf("move %s: destination exists", name)
	}
	b.objects[name] = data
	b.ops = append(b.ops, "move:"+name)
	return nil
}

func (b *Backend) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}
