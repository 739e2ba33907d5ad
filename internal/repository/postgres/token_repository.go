package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"quill/internal/repository"
)

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// TokenRepository 实现 repository.TokenRepository。
type TokenRepository struct {
	db *sql.DB
}

func (r *TokenRepository) Create(ctx context.Context, t *repository.Token) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tokens (id, token, role, create_time) VALUES ($1,$2,$3,$4)`,
		t.ID, t.Token, t.Role, t.CreateTime)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) List(ctx context.Context) ([]repository.Token, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, token, role, create_time FROM tokens ORDER BY create_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []repository.Token{}
	for rows.Next() {
		var t repository.Token
		if err := rows.Scan(&t.ID, &t.Token, &t.Role, &t.CreateTime); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, `DELETE FROM tokens WHERE id = $1`, id)
}

func (r *TokenRepository) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tokens WHERE token = $1)`, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	return exists, nil
}
