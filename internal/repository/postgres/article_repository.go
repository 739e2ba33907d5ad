package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quill/internal/repository"
)

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// ArticleRepository 实现 repository.ArticleRepository。
type ArticleRepository struct {
	db *sql.DB
}

var articleColumns = []string{
	"id",
	"issue_id",
	"title",
	"abstract",
	"content",
	"cover",
	"view_count",
	"create_time",
}

func (r *ArticleRepository) Create(ctx context.Context, a *repository.Article) error {
	query := fmt.Sprintf(`INSERT INTO articles (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, strings.Join(articleColumns, ","))
	_, err := r.db.ExecContext(ctx, query,
		a.ID, nullableInt(a.IssueID), a.Title, a.Abstract, a.Content, a.Cover, a.ViewCount, a.CreateTime)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*repository.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id = $1`, strings.Join(articleColumns, ","))
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *ArticleRepository) List(ctx context.Context) ([]repository.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles ORDER BY create_time DESC`, strings.Join(articleColumns, ","))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []repository.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *ArticleRepository) Update(ctx context.Context, a *repository.Article) error {
	return execAffectingOne(ctx, r.db,
		`UPDATE articles SET issue_id = $1, title = $2, abstract = $3, content = $4, cover = $5 WHERE id = $6`,
		nullableInt(a.IssueID), a.Title, a.Abstract, a.Content, a.Cover, a.ID)
}

func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, `DELETE FROM articles WHERE id = $1`, id)
}

func scanArticle(rs rowScanner) (*repository.Article, error) {
	var (
		a       repository.Article
		issueID sql.NullInt64
	)
	if err := rs.Scan(&a.ID, &issueID, &a.Title, &a.Abstract, &a.Content, &a.Cover, &a.ViewCount, &a.CreateTime); err != nil {
		return nil, err
	}
	if issueID.Valid {
		v := int(issueID.Int64)
		a.IssueID = &v
	}
	return &a, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
