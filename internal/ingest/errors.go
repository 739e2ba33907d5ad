package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedContentType 声明的类型不在允许列表中，在任何 I/O 之前返回。
	ErrUnsupportedContentType = errors.New("ingest: unsupported content type")
	// ErrStreamRead 上传流在中途失败。
	ErrStreamRead = errors.New("ingest: stream read failed")
	// ErrWrite 本地磁盘写入失败。
	ErrWrite = errors.New("ingest: write failed")
	// ErrPlacement 规范路径上的删除或移动失败。
	ErrPlacement = errors.New("ingest: placement failed")
	// ErrBatchPartialFailure 整批中至少一个文件失败，元数据未写入。
	ErrBatchPartialFailure = errors.New("ingest: batch partially failed")
)

// FileError 记录某个流水线的失败原因。
type FileError struct {
	Index    int
	Filename string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %d (%s): %v", e.Index, e.Filename, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// BatchError 汇总整批失败。Placed 列出失败前已经放置、但没有元数据的文件。
type BatchError struct {
	Total    int
	Failures []*FileError
	Placed   []CanonicalFile
}

func (e *BatchError) Error() string {
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, f.Error())
	}
	return fmt.Sprintf("%v: %d of %d files failed: %s",
		ErrBatchPartialFailure, len(e.Failures), e.Total, strings.Join(reasons, "; "))
}

// Unwrap 使 errors.Is 同时匹配 ErrBatchPartialFailure 和各文件的具体原因。
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrBatchPartialFailure)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
