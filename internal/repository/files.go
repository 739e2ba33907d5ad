package repository

import (
	"context"
	"time"
)

// FileRecord 代表一次成功入库的文件元数据。Filename 是规范文件名，
// 同一内容被多次上传时会有多条记录指向同一个 Filename。
type FileRecord struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mimetype"`
	Encoding   string    `json:"encoding"`
	SizeBytes  int64     `json:"size_bytes"`
	CreateTime time.Time `json:"create_time"`
}

// ListParams 用于分页检索。
type ListParams struct {
	Limit  int
	Offset int
}

// FileRepository 统一文件元数据持久层接口。
type FileRepository interface {
	// InsertMany 在单个事务内写入整批记录，要么全部成功要么全部不写。
	InsertMany(ctx context.Context, records []FileRecord) error
	GetByID(ctx context.Context, id string) (*FileRecord, error)
	List(ctx context.Context, params ListParams) ([]FileRecord, error)
	Delete(ctx context.Context, id string) error
}
