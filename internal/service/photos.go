package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quill/internal/repository"

	"github.com/google/uuid"
)

// StaticImagePrefix 是规范文件对外暴露的 URL 前缀。
const StaticImagePrefix = "/static/image/"

// PhotoService 管理相册，照片引用已上传的文件记录。
type PhotoService struct {
	repo  repository.PhotoRepository
	files repository.FileRepository
	now   func() time.Time
}

func NewPhotoService(repo repository.PhotoRepository, files repository.FileRepository) *PhotoService {
	return &PhotoService{repo: repo, files: files, now: time.Now}
}

type PhotoInput struct {
	FileID        string    `json:"fileId"`
	Description   string    `json:"description"`
	ShootingTime  time.Time `json:"shooting_time"`
	ShootingPlace string    `json:"shooting_place"`
}

func (s *PhotoService) validate(ctx context.Context, in PhotoInput) error {
	if in.FileID == "" {
		return fmt.Errorf("%w: fileId is required", ErrInvalidInput)
	}
	if in.ShootingTime.IsZero() {
		return fmt.Errorf("%w: shooting_time is required", ErrInvalidInput)
	}
	if _, err := s.files.GetByID(ctx, in.FileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: file %s does not exist", ErrInvalidInput, in.FileID)
		}
		return err
	}
	return nil
}

func (s *PhotoService) Create(ctx context.Context, in PhotoInput) (*repository.Photo, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	photo := &repository.Photo{
		ID:            uuid.NewString(),
		FileID:        in.FileID,
		Description:   in.Description,
		ShootingTime:  in.ShootingTime.UTC(),
		ShootingPlace: in.ShootingPlace,
		CreateTime:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// List 返回带访问 URL 的照片列表。
func (s *PhotoService) List(ctx context.Context) ([]repository.Photo, error) {
	photos, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range photos {
		if photos[i].Filename != "" {
			photos[i].URL = StaticImagePrefix + photos[i].Filename
		}
	}
	return photos, nil
}

func (s *PhotoService) Update(ctx context.Context, id string, in PhotoInput) error {
	if err := s.validate(ctx, in); err != nil {
		return err
	}
	return s.repo.Update(ctx, &repository.Photo{
		ID:            id,
		FileID:        in.FileID,
		Description:   in.Description,
		ShootingTime:  in.ShootingTime.UTC(),
		ShootingPlace: in.ShootingPlace,
	})
}

func (s *PhotoService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
