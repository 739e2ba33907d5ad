// Package ingest 实现上传文件的内容寻址入库：
// 边流式写盘边计算摘要，按 "<digest>.<ext>" 放置规范文件，
// 整批全部成功后才一次性写入元数据。
package ingest

import "io"

// UploadItem 是一次上传中的单个文件。Content 只能被消费一次。
type UploadItem struct {
	Filename    string // 客户端提供，仅供参考
	ContentType string
	Encoding    string
	Content     io.Reader
}

// StagedFile 是已写入临时目录、尚未放置的文件，由单个流水线独占。
type StagedFile struct {
	TempPath string
	Digest   string
	Size     int64
}

// CanonicalFile 描述已放置到规范路径的文件。
type CanonicalFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"mimetype"`
	Encoding    string `json:"encoding"`
	Digest      string `json:"digest"`
	Size        int64  `json:"size"`
}

// BatchResult 按输入顺序列出整批入库结果。
type BatchResult struct {
	Files []CanonicalFile `json:"files"`
}
