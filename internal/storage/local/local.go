package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"quill/internal/storage"
)

// Backend 将规范文件保存在本地目录下。
// 临时目录必须与根目录位于同一文件系统，MoveInto 才能使用原子 rename。
type Backend struct {
	root string
}

func New(root string) (*Backend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure storage root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Backend{root: absRoot}, nil
}

// Root 返回存储根目录的绝对路径。
func (b *Backend) Root() string {
	return b.root
}

// abs 将规范文件名解析为根目录下的路径，拒绝逃逸出根目录或带子目录的名字。
func (b *Backend) abs(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(b.root, name), nil
}

func (b *Backend) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, err := b.abs(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (b *Backend) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.abs(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (b *Backend) MoveInto(ctx context.Context, tempPath, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.abs(name)
	if err != nil {
		return err
	}
	if err := os.Rename(tempPath, target); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Open 返回 *os.File，调用方可以断言为 io.ReadSeeker 以支持 Range 请求。
func (b *Backend) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := b.abs(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}
