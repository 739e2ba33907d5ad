package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 表示存储中不存在目标对象。
var ErrNotFound = errors.New("storage: object not found")

// Backend 抽象规范文件所在的扁平命名空间。
// name 是形如 "<digest>.<ext>" 的规范文件名；tempPath 是本地临时文件的绝对路径。
type Backend interface {
	// Exists 报告 name 是否已存在。
	Exists(ctx context.Context, name string) (bool, error)

	// Delete 删除 name，对象不存在时返回 nil。
	Delete(ctx context.Context, name string) error

	// MoveInto 将本地临时文件移动到 name。成功后 tempPath 不再存在，
	// 且 name 对读者只可能呈现完整内容。
	MoveInto(ctx context.Context, tempPath, name string) error

	// Open 打开 name 供流式读取，调用方负责关闭。
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
