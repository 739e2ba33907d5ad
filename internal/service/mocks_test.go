package service

import (
	"context"
	"sort"
	"sync"

	"quill/internal/github"
	"quill/internal/repository"
)

type mockFileRepo struct {
	inserted   [][]repository.FileRecord
	insertErr  error
	records    map[string]repository.FileRecord
	listParams repository.ListParams
	listResult []repository.FileRecord
	deleted    []string
}

func (m *mockFileRepo) InsertMany(ctx context.Context, records []repository.FileRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, records)
	return nil
}

func (m *mockFileRepo) GetByID(ctx context.Context, id string) (*repository.FileRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (m *mockFileRepo) List(ctx context.Context, params repository.ListParams) ([]repository.FileRecord, error) {
	m.listParams = params
	return m.listResult, nil
}

func (m *mockFileRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockArticleRepo struct {
	mu       sync.Mutex
	articles map[string]repository.Article
	err      error
}

func newMockArticleRepo(items ...repository.Article) *mockArticleRepo {
	m := &mockArticleRepo{articles: map[string]repository.Article{}}
	for _, a := range items {
		m.articles[a.ID] = a
	}
	return m
}

func (m *mockArticleRepo) Create(ctx context.Context, a *repository.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.articles[a.ID] = *a
	return nil
}

func (m *mockArticleRepo) GetByID(ctx context.Context, id string) (*repository.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *mockArticleRepo) List(ctx context.Context) ([]repository.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]repository.Article, 0, len(m.articles))
	for _, a := range m.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreateTime.After(out[j].CreateTime) })
	return out, nil
}

func (m *mockArticleRepo) Update(ctx context.Context, a *repository.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.ID]; !ok {
		return repository.ErrNotFound
	}
	m.articles[a.ID] = *a
	return nil
}

func (m *mockArticleRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

type mockEssayRepo struct {
	essays []repository.Essay
	err    error
}

func (m *mockEssayRepo) Create(ctx context.Context, e *repository.Essay) error {
	m.essays = append(m.essays, *e)
	return nil
}

func (m *mockEssayRepo) List(ctx context.Context) ([]repository.Essay, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.essays, nil
}

func (m *mockEssayRepo) Update(ctx context.Context, e *repository.Essay) error {
	for i := range m.essays {
		if m.essays[i].ID == e.ID {
			m.essays[i].Content = e.Content
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockEssayRepo) Delete(ctx context.Context, id string) error {
	return repository.ErrNotFound
}

type mockPhotoRepo struct {
	created []repository.Photo
	listed  []repository.Photo
}

func (m *mockPhotoRepo) Create(ctx context.Context, p *repository.Photo) error {
	m.created = append(m.created, *p)
	return nil
}

func (m *mockPhotoRepo) List(ctx context.Context) ([]repository.Photo, error) {
	return m.listed, nil
}

func (m *mockPhotoRepo) Update(ctx context.Context, p *repository.Photo) error { return nil }

func (m *mockPhotoRepo) Delete(ctx context.Context, id string) error { return nil }

type mockTokenRepo struct {
	tokens []repository.Token
}

func (m *mockTokenRepo) Create(ctx context.Context, t *repository.Token) error {
	m.tokens = append(m.tokens, *t)
	return nil
}

func (m *mockTokenRepo) List(ctx context.Context) ([]repository.Token, error) {
	return m.tokens, nil
}

func (m *mockTokenRepo) Delete(ctx context.Context, id string) error {
	for i, t := range m.tokens {
		if t.ID == id {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockTokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	for _, t := range m.tokens {
		if t.Token == token {
			return true, nil
		}
	}
	return false, nil
}

type issueCall struct {
	number int
	create *github.CreateIssueRequest
	update *github.UpdateIssueRequest
}

type mockIssues struct {
	calls     []issueCall
	nextIssue int
	err       error
}

func (m *mockIssues) CreateIssue(ctx context.Context, req github.CreateIssueRequest) (*github.Issue, error) {
	m.calls = append(m.calls, issueCall{create: &req})
	if m.err != nil {
		return nil, m.err
	}
	return &github.Issue{Number: m.nextIssue, Title: req.Title}, nil
}

func (m *mockIssues) UpdateIssue(ctx context.Context, number int, req github.UpdateIssueRequest) (*github.Issue, error) {
	m.calls = append(m.calls, issueCall{number: number, update: &req})
	if m.err != nil {
		return nil, m.err
	}
	return &github.Issue{Number: number}, nil
}
