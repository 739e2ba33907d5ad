package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"quill/internal/repository"
)

func NewEssayRepository(db *sql.DB) *EssayRepository {
	return &EssayRepository{db: db}
}

// EssayRepository 实现 repository.EssayRepository。
type EssayRepository struct {
	db *sql.DB
}

func (r *EssayRepository) Create(ctx context.Context, e *repository.Essay) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO essays (id, content, create_time) VALUES ($1,$2,$3)`,
		e.ID, e.Content, e.CreateTime)
	if err != nil {
		return fmt.Errorf("insert essay: %w", err)
	}
	return nil
}

func (r *EssayRepository) List(ctx context.Context) ([]repository.Essay, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, content, create_time FROM essays ORDER BY create_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []repository.Essay{}
	for rows.Next() {
		var e repository.Essay
		if err := rows.Scan(&e.ID, &e.Content, &e.CreateTime); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *EssayRepository) Update(ctx context.Context, e *repository.Essay) error {
	return execAffectingOne(ctx, r.db, `UPDATE essays SET content = $1 WHERE id = $2`, e.Content, e.ID)
}

func (r *EssayRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, `DELETE FROM essays WHERE id = $1`, id)
}
