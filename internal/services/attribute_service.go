package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pitchside/internal/domain"
	"pitchside/internal/repos"
	"pitchside/internal/validate"
)

type AttributeInput struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	// Category is only used for sizes.
	Category string `json:"category"`
}

type AttributeService struct {
	Attrs *repos.AttributeRepo
}

func NewAttributeService(attrs *repos.AttributeRepo) *AttributeService {
	return &AttributeService{Attrs: attrs}
}

func (s *AttributeService) Sizes(ctx context.Context, categoryID string) ([]domain.Size, error) {
	return s.Attrs.Sizes(ctx, strings.TrimSpace(categoryID))
}

func (s *AttributeService) CreateSize(ctx context.Context, in AttributeInput) (domain.Size, error) {
	name, err := attrName(in)
	if err != nil {
		return domain.Size{}, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return domain.Size{}, domain.Validation("category is required")
	}
	sz := domain.Size{ID: uuid.NewString(), Name: name, CategoryID: strings.TrimSpace(in.Category), CreatedAt: time.Now().UTC()}
	if err := s.Attrs.CreateSize(ctx, sz); err != nil {
		return domain.Size{}, err
	}
	return sz, nil
}

func (s *AttributeService) RenameSize(ctx context.Context, id string, in AttributeInput) error {
	name, err := attrName(in)
	if err != nil {
		return err
	}
	return s.Attrs.RenameSize(ctx, id, name)
}

func (s *AttributeService) DeleteSize(ctx context.Context, id string) error {
	return s.Attrs.DeleteSize(ctx, id)
}

func (s *AttributeService) Colors(ctx context.Context) ([]domain.Color, error) {
	return s.Attrs.Colors(ctx)
}

func (s *AttributeService) CreateColor(ctx context.Context, in AttributeInput) (domain.Color, error) {
	name, err := attrName(in)
	if err != nil {
		return domain.Color{}, err
	}
	c := domain.Color{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.Attrs.CreateColor(ctx, c); err != nil {
		return domain.Color{}, err
	}
	return c, nil
}

func (s *AttributeService) RenameColor(ctx context.Context, id string, in AttributeInput) error {
	name, err := attrName(in)
	if err != nil {
		return err
	}
	return s.Attrs.RenameColor(ctx, id, name)
}

func (s *AttributeService) DeleteColor(ctx context.Context, id string) error {
	return s.Attrs.DeleteColor(ctx, id)
}

func (s *AttributeService) Qualities(ctx context.Context) ([]domain.Quality, error) {
	return s.Attrs.Qualities(ctx)
}

func (s *AttributeService) CreateQuality(ctx context.Context, in AttributeInput) (domain.Quality, error) {
	name, err := attrName(in)
	if err != nil {
		return domain.Quality{}, err
	}
	q := domain.Quality{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.Attrs.CreateQuality(ctx, q); err != nil {
		return domain.Quality{}, err
	}
	return q, nil
}

func (s *AttributeService) RenameQuality(ctx context.Context, id string, in AttributeInput) error {
	name, err := attrName(in)
	if err != nil {
		return err
	}
	return s.Attrs.RenameQuality(ctx, id, name)
}

func (s *AttributeService) DeleteQuality(ctx context.Context, id string) error {
	return s.Attrs.DeleteQuality(ctx, id)
}

func attrName(in AttributeInput) (string, error) {
	if err := validate.Struct(in); err != nil {
		return "", err
	}
	return strings.TrimSpace(in.Name), nil
}
