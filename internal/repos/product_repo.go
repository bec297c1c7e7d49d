package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pitchside/internal/catalog"
	"pitchside/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, name, slug, short_description, detailed_description, price, original_price, discount, tax,
    quality, size, colors, tags_json, in_stock, images_json, category_id, subcategory_id,
    COALESCE(sub_subcategory_id,'') AS sub_subcategory_id, created_at, updated_at`

// newest first; rowid breaks ties between rows created in the same instant
const newestFirst = `ORDER BY created_at DESC, rowid DESC`

// Find returns one page of products matching p and the total match count.
func (r *ProductRepo) Find(ctx context.Context, p catalog.Predicate, limit, offset int) ([]domain.Product, int, error) {
	where, args, ok := predicateSQL(p)
	if !ok {
		return []domain.Product{}, 0, nil
	}

	q, qargs, err := sqlx.In(`SELECT COUNT(*) FROM products WHERE `+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(q), qargs...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	if total == 0 {
		return []domain.Product{}, 0, nil
	}

	q, qargs, err = sqlx.In(`SELECT `+productCols+` FROM products WHERE `+where+` `+newestFirst+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	out := []domain.Product{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), qargs...); err != nil {
		return nil, 0, fmt.Errorf("select products: %w", err)
	}
	if err := decodeAll(out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// predicateSQL renders p as a WHERE clause for sqlx.In. ok is false when
// the predicate cannot match anything.
func predicateSQL(p catalog.Predicate) (string, []any, bool) {
	var scope []string
	var args []any
	addIn := func(dst *[]string, col string, vals []string) {
		if len(vals) > 0 {
			*dst = append(*dst, col+` IN (?)`)
			args = append(args, vals)
		}
	}
	addIn(&scope, "category_id", p.Scope.CategoryIDs)
	addIn(&scope, "subcategory_id", p.Scope.SubcategoryIDs)
	addIn(&scope, "sub_subcategory_id", p.Scope.SubSubcategoryIDs)
	if len(scope) == 0 {
		return "", nil, false
	}
	clauses := []string{"(" + strings.Join(scope, " OR ") + ")"}

	if p.FilterSubcategories {
		if len(p.SubcategoryIDs) == 0 {
			return "", nil, false
		}
		clauses = append(clauses, `(subcategory_id IN (?) OR sub_subcategory_id IN (?))`)
		args = append(args, p.SubcategoryIDs, p.SubcategoryIDs)
	}
	addIn(&clauses, "size", p.Sizes)
	addIn(&clauses, "colors", p.Colors)
	addIn(&clauses, "quality", p.Qualities)
	if p.PriceMin != nil {
		clauses = append(clauses, `price >= ?`)
		args = append(args, *p.PriceMin)
	}
	if p.PriceMax != nil {
		clauses = append(clauses, `price <= ?`)
		args = append(args, *p.PriceMax)
	}
	return strings.Join(clauses, " AND "), args, true
}

// ByTags returns products carrying any of tags, compared case-insensitively.
func (r *ProductRepo) ByTags(ctx context.Context, tags []string, limit int) ([]domain.Product, error) {
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	out := []domain.Product{}
	if len(lowered) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`
	  SELECT `+productCols+` FROM products
	  WHERE EXISTS (SELECT 1 FROM json_each(products.tags_json) j WHERE LOWER(j.value) IN (?))
	  `+newestFirst+` LIMIT ?`, lowered, limit)
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("select products by tag: %w", err)
	}
	return out, decodeAll(out)
}

func (r *ProductRepo) BySlug(ctx context.Context, slug string) (domain.Product, error) {
	return r.one(ctx, `SELECT `+productCols+` FROM products WHERE slug = ?`, slug)
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return r.one(ctx, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
}

func (r *ProductRepo) one(ctx context.Context, q string, arg string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.NotFound("This item is no longer available")
	}
	if err != nil {
		return p, err
	}
	return p, decode(&p)
}

func (r *ProductRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE slug = ?`, slug); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	if err := encode(&p); err != nil {
		return err
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO products(id,name,slug,short_description,detailed_description,price,original_price,discount,tax,
	    quality,size,colors,tags_json,in_stock,images_json,category_id,subcategory_id,sub_subcategory_id,
	    created_at,updated_at)
	  VALUES(:id,:name,:slug,:short_description,:detailed_description,:price,:original_price,:discount,:tax,
	    :quality,:size,:colors,:tags_json,:in_stock,:images_json,:category_id,:subcategory_id,
	    NULLIF(:sub_subcategory_id,''),:created_at,:updated_at)`, p)
	if isUnique(err) {
		return domain.Conflict("Slug %q is already taken", p.Slug)
	}
	return err
}

func (r *ProductRepo) SetStock(ctx context.Context, id string, inStock bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET in_stock=?, updated_at=? WHERE id=?`,
		inStock, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return mustAffect(res, "Product not found")
}

func encode(p *domain.Product) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Images == nil {
		p.Images = []domain.ProductImage{}
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	imgs, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	p.TagsJSON, p.ImagesJSON = string(tags), string(imgs)
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return nil
}

func decode(p *domain.Product) error {
	p.Tags, p.Images = []string{}, []domain.ProductImage{}
	if p.TagsJSON != "" {
		if err := json.Unmarshal([]byte(p.TagsJSON), &p.Tags); err != nil {
			return fmt.Errorf("product %s tags: %w", p.ID, err)
		}
	}
	if p.ImagesJSON != "" {
		if err := json.Unmarshal([]byte(p.ImagesJSON), &p.Images); err != nil {
			return fmt.Errorf("product %s images: %w", p.ID, err)
		}
	}
	return nil
}

func decodeAll(ps []domain.Product) error {
	for i := range ps {
		if err := decode(&ps[i]); err != nil {
			return err
		}
	}
	return nil
}
