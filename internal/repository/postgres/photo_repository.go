package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"quill/internal/repository"
)

func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// PhotoRepository 实现 repository.PhotoRepository。
type PhotoRepository struct {
	db *sql.DB
}

func (r *PhotoRepository) Create(ctx context.Context, p *repository.Photo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photos (id, file_id, description, shooting_time, shooting_place, create_time) VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.FileID, p.Description, p.ShootingTime, p.ShootingPlace, p.CreateTime)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// List 关联 files 表带出规范文件名，文件记录已删除时 Filename 为空。
func (r *PhotoRepository) List(ctx context.Context) ([]repository.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT p.id, p.file_id, f.filename, p.description, p.shooting_time, p.shooting_place, p.create_time
	FROM photos p LEFT JOIN files f ON f.id = p.file_id
	ORDER BY p.create_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []repository.Photo{}
	for rows.Next() {
		var (
			p        repository.Photo
			filename sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.FileID, &filename, &p.Description, &p.ShootingTime, &p.ShootingPlace, &p.CreateTime); err != nil {
			return nil, err
		}
		p.Filename = filename.String
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PhotoRepository) Update(ctx context.Context, p *repository.Photo) error {
	return execAffectingOne(ctx, r.db,
		`UPDATE photos SET file_id = $1, description = $2, shooting_time = $3, shooting_place = $4 WHERE id = $5`,
		p.FileID, p.Description, p.ShootingTime, p.ShootingPlace, p.ID)
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, `DELETE FROM photos WHERE id = $1`, id)
}
