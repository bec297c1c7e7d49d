package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pitchside/internal/catalog"
	"pitchside/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const subcategoryCols = `id, name, rank, parent_category_id,
    COALESCE(parent_subcategory_id,'') AS parent_subcategory_id, created_at, updated_at`

// Snapshot loads every category and subcategory.
func (r *CategoryRepo) Snapshot(ctx context.Context) (domain.TreeSnapshot, error) {
	var snap domain.TreeSnapshot
	if err := r.db.SelectContext(ctx, &snap.Categories, `
	  SELECT id, name, description, rank, created_at, updated_at
	  FROM categories
	  ORDER BY rank, created_at, id
	`); err != nil {
		return snap, fmt.Errorf("load categories: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snap.Subcategories, `
	  SELECT `+subcategoryCols+`
	  FROM subcategories
	  ORDER BY rank, created_at, id
	`); err != nil {
		return snap, fmt.Errorf("load subcategories: %w", err)
	}
	return snap, nil
}

func (r *CategoryRepo) Category(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `
	  SELECT id, name, description, rank, created_at, updated_at FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.NotFound("Category not found")
	}
	return c, err
}

func (r *CategoryRepo) Subcategory(ctx context.Context, id string) (domain.Subcategory, error) {
	return getSubcategory(ctx, r.db, id)
}

func getSubcategory(ctx context.Context, q sqlx.QueryerContext, id string) (domain.Subcategory, error) {
	var s domain.Subcategory
	err := sqlx.GetContext(ctx, q, &s, `SELECT `+subcategoryCols+` FROM subcategories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFound("Subcategory not found")
	}
	return s, err
}

func (r *CategoryRepo) CreateCategory(ctx context.Context, c domain.Category) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := uniqueCategoryName(ctx, tx, c.Name, c.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
		  INSERT INTO categories(id,name,description,rank,created_at,updated_at) VALUES(?,?,?,?,?,?)`,
			c.ID, c.Name, c.Description, c.Rank, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
		return err
	})
}

func (r *CategoryRepo) UpdateCategory(ctx context.Context, c domain.Category) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := uniqueCategoryName(ctx, tx, c.Name, c.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
		  UPDATE categories SET name=?, description=?, rank=?, updated_at=? WHERE id=?`,
			c.Name, c.Description, c.Rank, c.UpdatedAt.UTC(), c.ID)
		if err != nil {
			return err
		}
		return mustAffect(res, "Category not found")
	})
}

// DeleteCategory refuses while subcategories or products still point at it.
func (r *CategoryRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var subs, prods int
		if err := tx.GetContext(ctx, &subs, `SELECT COUNT(*) FROM subcategories WHERE parent_category_id=?`, id); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &prods, `SELECT COUNT(*) FROM products WHERE category_id=?`, id); err != nil {
			return err
		}
		if subs > 0 || prods > 0 {
			return domain.Conflict("Category still has %d subcategories and %d products", subs, prods)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sizes WHERE category_id=?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
		if err != nil {
			return err
		}
		return mustAffect(res, "Category not found")
	})
}

func (r *CategoryRepo) CreateSubcategory(ctx context.Context, s domain.Subcategory) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkParents(ctx, tx, s); err != nil {
			return err
		}
		if err := uniqueSiblingName(ctx, tx, s); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
		  INSERT INTO subcategories(id,name,rank,parent_category_id,parent_subcategory_id,created_at,updated_at)
		  VALUES(?,?,?,?,?,?,?)`,
			s.ID, s.Name, s.Rank, s.ParentCategoryID, nullable(s.ParentSubcategoryID), s.CreatedAt.UTC(), s.UpdatedAt.UTC())
		return err
	})
}

// UpdateSubcategory saves name, rank and parents. Moving a subcategory
// carries its whole subtree along, products included.
func (r *CategoryRepo) UpdateSubcategory(ctx context.Context, s domain.Subcategory) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := getSubcategory(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if err := checkParents(ctx, tx, s); err != nil {
			return err
		}
		if err := uniqueSiblingName(ctx, tx, s); err != nil {
			return err
		}
		if s.ParentSubcategoryID != "" {
			desc, err := descendantIDs(ctx, tx, s.ID)
			if err != nil {
				return err
			}
			for _, d := range append(desc, s.ID) {
				if d == s.ParentSubcategoryID {
					return domain.Validation("A subcategory cannot be nested under itself or its descendants")
				}
			}
		}
		if _, err := tx.ExecContext(ctx, `
		  UPDATE subcategories SET name=?, rank=?, parent_category_id=?, parent_subcategory_id=?, updated_at=?
		  WHERE id=?`,
			s.Name, s.Rank, s.ParentCategoryID, nullable(s.ParentSubcategoryID), s.UpdatedAt.UTC(), s.ID); err != nil {
			return err
		}
		if cur.ParentCategoryID == s.ParentCategoryID && cur.ParentSubcategoryID == s.ParentSubcategoryID {
			return nil
		}
		desc, err := descendantIDs(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if cur.ParentCategoryID != s.ParentCategoryID && len(desc) > 0 {
			q, args, err := sqlx.In(`UPDATE subcategories SET parent_category_id=?, updated_at=? WHERE id IN (?)`,
				s.ParentCategoryID, s.UpdatedAt.UTC(), desc)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
				return err
			}
		}
		return repointProducts(ctx, tx, append(desc, s.ID), s.UpdatedAt.UTC())
	})
}

type productRef struct {
	ID     string `db:"id"`
	Sub    string `db:"subcategory_id"`
	SubSub string `db:"sub_subcategory_id"`
}

// repointProducts rewrites the tree references of every product filed
// under ids so they follow the moved subtree. A product keeps its deepest
// node; it is refused with Conflict when that node would end up more than
// two levels below its category.
func repointProducts(ctx context.Context, tx *sqlx.Tx, ids []string, now time.Time) error {
	q, args, err := sqlx.In(`
	  SELECT id, subcategory_id, COALESCE(sub_subcategory_id, '') AS sub_subcategory_id FROM products
	  WHERE subcategory_id IN (?) OR sub_subcategory_id IN (?)`, ids, ids)
	if err != nil {
		return err
	}
	var refs []productRef
	if err := tx.SelectContext(ctx, &refs, tx.Rebind(q), args...); err != nil {
		return err
	}
	for _, p := range refs {
		leafID := p.SubSub
		if leafID == "" {
			leafID = p.Sub
		}
		leaf, err := getSubcategory(ctx, tx, leafID)
		if err != nil {
			return err
		}
		sub, subsub := leaf.ID, ""
		if leaf.Nested() {
			parent, err := getSubcategory(ctx, tx, leaf.ParentSubcategoryID)
			if err != nil {
				return err
			}
			if parent.Nested() {
				return domain.Conflict("Product %s would sit more than two levels deep after this move", p.ID)
			}
			sub, subsub = parent.ID, leaf.ID
		}
		if _, err := tx.ExecContext(ctx, `
		  UPDATE products SET category_id=?, subcategory_id=?, sub_subcategory_id=?, updated_at=? WHERE id=?`,
			leaf.ParentCategoryID, sub, nullable(subsub), now, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSubcategory refuses while nested subcategories or products still
// point at it.
func (r *CategoryRepo) DeleteSubcategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var kids, prods int
		if err := tx.GetContext(ctx, &kids, `SELECT COUNT(*) FROM subcategories WHERE parent_subcategory_id=?`, id); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &prods, `
		  SELECT COUNT(*) FROM products WHERE subcategory_id=? OR sub_subcategory_id=?`, id, id); err != nil {
			return err
		}
		if kids > 0 || prods > 0 {
			return domain.Conflict("Subcategory still has %d nested subcategories and %d products", kids, prods)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM subcategories WHERE id=?`, id)
		if err != nil {
			return err
		}
		return mustAffect(res, "Subcategory not found")
	})
}

// ApplyCategoryRanks writes every change or none.
func (r *CategoryRepo) ApplyCategoryRanks(ctx context.Context, changes []catalog.RankChange) error {
	return r.applyRanks(ctx, "categories", changes)
}

func (r *CategoryRepo) ApplySubcategoryRanks(ctx context.Context, changes []catalog.RankChange) error {
	return r.applyRanks(ctx, "subcategories", changes)
}

func (r *CategoryRepo) applyRanks(ctx context.Context, table string, changes []catalog.RankChange) error {
	if len(changes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, ch := range changes {
			res, err := tx.ExecContext(ctx, `UPDATE `+table+` SET rank=?, updated_at=? WHERE id=?`, ch.Rank, now, ch.ID)
			if err != nil {
				return err
			}
			if err := mustAffect(res, "Item not found"); err != nil {
				return err
			}
		}
		return nil
	})
}

// Dangling lists references that point at rows which no longer exist.
func (r *CategoryRepo) Dangling(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `
	  SELECT 'subcategory ' || s.id || ' -> category ' || s.parent_category_id
	  FROM subcategories s LEFT JOIN categories c ON c.id = s.parent_category_id
	  WHERE c.id IS NULL
	  UNION ALL
	  SELECT 'subcategory ' || s.id || ' -> subcategory ' || s.parent_subcategory_id
	  FROM subcategories s LEFT JOIN subcategories p ON p.id = s.parent_subcategory_id
	  WHERE s.parent_subcategory_id IS NOT NULL AND p.id IS NULL
	  UNION ALL
	  SELECT 'subcategory ' || s.id || ' -> category mismatch with parent ' || p.id
	  FROM subcategories s JOIN subcategories p ON p.id = s.parent_subcategory_id
	  WHERE p.parent_category_id <> s.parent_category_id
	  UNION ALL
	  SELECT 'product ' || p.id || ' -> category ' || p.category_id
	  FROM products p LEFT JOIN categories c ON c.id = p.category_id
	  WHERE c.id IS NULL
	  UNION ALL
	  SELECT 'product ' || p.id || ' -> subcategory ' || p.subcategory_id
	  FROM products p LEFT JOIN subcategories s ON s.id = p.subcategory_id
	  WHERE s.id IS NULL
	  UNION ALL
	  SELECT 'product ' || p.id || ' -> sub-subcategory ' || p.sub_subcategory_id
	  FROM products p LEFT JOIN subcategories s ON s.id = p.sub_subcategory_id
	  WHERE p.sub_subcategory_id IS NOT NULL AND s.id IS NULL
	  UNION ALL
	  SELECT 'product ' || p.id || ' -> category mismatch with subcategory ' || s.id
	  FROM products p JOIN subcategories s ON s.id = p.subcategory_id
	  WHERE s.parent_category_id <> p.category_id OR s.parent_subcategory_id IS NOT NULL
	  UNION ALL
	  SELECT 'product ' || p.id || ' -> sub-subcategory ' || l.id || ' outside subcategory ' || p.subcategory_id
	  FROM products p JOIN subcategories l ON l.id = p.sub_subcategory_id
	  WHERE l.parent_subcategory_id IS NULL OR l.parent_subcategory_id <> p.subcategory_id
	`)
	return out, err
}

func (r *CategoryRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func uniqueCategoryName(ctx context.Context, tx *sqlx.Tx, name, id string) error {
	var n int
	if err := tx.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM categories WHERE LOWER(name)=LOWER(?) AND id<>?`, name, id); err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflict("Category %q already exists", name)
	}
	return nil
}

func uniqueSiblingName(ctx context.Context, tx *sqlx.Tx, s domain.Subcategory) error {
	var n int
	var err error
	if s.Nested() {
		err = tx.GetContext(ctx, &n, `
		  SELECT COUNT(*) FROM subcategories
		  WHERE parent_subcategory_id=? AND LOWER(name)=LOWER(?) AND id<>?`,
			s.ParentSubcategoryID, s.Name, s.ID)
	} else {
		err = tx.GetContext(ctx, &n, `
		  SELECT COUNT(*) FROM subcategories
		  WHERE parent_category_id=? AND parent_subcategory_id IS NULL AND LOWER(name)=LOWER(?) AND id<>?`,
			s.ParentCategoryID, s.Name, s.ID)
	}
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflict("Subcategory %q already exists here", s.Name)
	}
	return nil
}

// checkParents enforces that the parent category exists and that a parent
// subcategory, when given, belongs to the same category.
func checkParents(ctx context.Context, tx *sqlx.Tx, s domain.Subcategory) error {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories WHERE id=?`, s.ParentCategoryID); err != nil {
		return err
	}
	if n == 0 {
		return domain.Validation("Parent category %q does not exist", s.ParentCategoryID)
	}
	if !s.Nested() {
		return nil
	}
	parent, err := getSubcategory(ctx, tx, s.ParentSubcategoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Validation("Parent subcategory %q does not exist", s.ParentSubcategoryID)
	}
	if err != nil {
		return err
	}
	if parent.ParentCategoryID != s.ParentCategoryID {
		return domain.Validation("Parent subcategory belongs to a different category")
	}
	return nil
}

func descendantIDs(ctx context.Context, tx *sqlx.Tx, id string) ([]string, error) {
	var out []string
	err := tx.SelectContext(ctx, &out, `
	  WITH RECURSIVE tree(id) AS (
	    SELECT id FROM subcategories WHERE parent_subcategory_id = ?
	    UNION
	    SELECT s.id FROM subcategories s JOIN tree t ON s.parent_subcategory_id = t.id
	  )
	  SELECT id FROM tree`, id)
	return out, err
}

func mustAffect(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(msg)
	}
	return nil
}

// isUnique reports a sqlite unique constraint violation.
func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
