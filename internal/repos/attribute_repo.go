package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pitchside/internal/domain"
)

// AttributeRepo stores the facet vocabularies: sizes (per category), colors
// and qualities.
type AttributeRepo struct{ db *sqlx.DB }

func NewAttributeRepo(db *sqlx.DB) *AttributeRepo { return &AttributeRepo{db: db} }

// Sizes lists sizes of one category, or of all categories when categoryID
// is empty.
func (r *AttributeRepo) Sizes(ctx context.Context, categoryID string) ([]domain.Size, error) {
	out := []domain.Size{}
	q := `SELECT id, name, category_id, created_at FROM sizes`
	var args []any
	if categoryID != "" {
		q += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	err := r.db.SelectContext(ctx, &out, q+` ORDER BY created_at, name`, args...)
	return out, err
}

func (r *AttributeRepo) CreateSize(ctx context.Context, s domain.Size) error {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories WHERE id=?`, s.CategoryID); err != nil {
		return err
	}
	if n == 0 {
		return domain.Validation("Category %q does not exist", s.CategoryID)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO sizes(id,name,category_id,created_at) VALUES(?,?,?,?)`,
		s.ID, s.Name, s.CategoryID, s.CreatedAt.UTC())
	if isUnique(err) {
		return domain.Conflict("Size %q already exists for this category", s.Name)
	}
	return err
}

func (r *AttributeRepo) RenameSize(ctx context.Context, id, name string) error {
	return r.rename(ctx, "sizes", "Size", id, name)
}

func (r *AttributeRepo) DeleteSize(ctx context.Context, id string) error {
	return r.delete(ctx, "sizes", "Size", id)
}

func (r *AttributeRepo) Colors(ctx context.Context) ([]domain.Color, error) {
	out := []domain.Color{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, created_at FROM colors ORDER BY created_at, name`)
	return out, err
}

func (r *AttributeRepo) CreateColor(ctx context.Context, c domain.Color) error {
	return r.create(ctx, "colors", "Color", c.ID, c.Name, c.CreatedAt)
}

func (r *AttributeRepo) RenameColor(ctx context.Context, id, name string) error {
	return r.rename(ctx, "colors", "Color", id, name)
}

func (r *AttributeRepo) DeleteColor(ctx context.Context, id string) error {
	return r.delete(ctx, "colors", "Color", id)
}

func (r *AttributeRepo) Qualities(ctx context.Context) ([]domain.Quality, error) {
	out := []domain.Quality{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, created_at FROM qualities ORDER BY created_at, name`)
	return out, err
}

func (r *AttributeRepo) CreateQuality(ctx context.Context, q domain.Quality) error {
	return r.create(ctx, "qualities", "Quality", q.ID, q.Name, q.CreatedAt)
}

func (r *AttributeRepo) RenameQuality(ctx context.Context, id, name string) error {
	return r.rename(ctx, "qualities", "Quality", id, name)
}

func (r *AttributeRepo) DeleteQuality(ctx context.Context, id string) error {
	return r.delete(ctx, "qualities", "Quality", id)
}

func (r *AttributeRepo) create(ctx context.Context, table, label, id, name string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO `+table+`(id,name,created_at) VALUES(?,?,?)`, id, name, at.UTC())
	if isUnique(err) {
		return domain.Conflict("%s %q already exists", label, name)
	}
	return err
}

func (r *AttributeRepo) rename(ctx context.Context, table, label, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET name=? WHERE id=?`, name, id)
	if isUnique(err) {
		return domain.Conflict("%s %q already exists", label, name)
	}
	if err != nil {
		return err
	}
	return mustAffect(res, label+" not found")
}

func (r *AttributeRepo) delete(ctx context.Context, table, label, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, label+" not found")
}
