package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quill/internal/repository"
)

// NewFileRepository 返回基于 *sql.DB 的 Postgres 实现。
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// FileRepository 实现 repository.FileRepository。
type FileRepository struct {
	db *sql.DB
}

var fileColumns = []string{
	"id",
	"filename",
	"mimetype",
	"encoding",
	"size_bytes",
	"create_time",
}

// InsertMany 在一个事务中写入整批记录。
func (r *FileRepository) InsertMany(ctx context.Context, records []repository.FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert files tx: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO files (%s) VALUES ($1,$2,$3,$4,$5,$6)`, strings.Join(fileColumns, ","))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert files: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Filename, rec.MimeType, rec.Encoding, rec.SizeBytes, rec.CreateTime); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert file %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert files: %w", err)
	}
	return nil
}

// GetByID 通过主键查询文件记录。
func (r *FileRepository) GetByID(ctx context.Context, id string) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, strings.Join(fileColumns, ","))
	rec, err := scanFileRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List 按创建时间倒序分页。
func (r *FileRepository) List(ctx context.Context, params repository.ListParams) ([]repository.FileRecord, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	args := []any{limit}
	tail := "ORDER BY create_time DESC LIMIT $1"
	if params.Offset > 0 {
		args = append(args, params.Offset)
		tail += " OFFSET $2"
	}

	query := fmt.Sprintf(`SELECT %s FROM files %s`, strings.Join(fileColumns, ","), tail)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []repository.FileRecord{}
	for rows.Next() {
		rec, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete 只删除元数据，规范文件可能仍被其他记录引用。
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, `DELETE FROM files WHERE id = $1`, id)
}

func scanFileRecord(rs rowScanner) (*repository.FileRecord, error) {
	var rec repository.FileRecord
	if err := rs.Scan(
		&rec.ID,
		&rec.Filename,
		&rec.MimeType,
		&rec.Encoding,
		&rec.SizeBytes,
		&rec.CreateTime,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
