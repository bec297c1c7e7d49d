package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) Ensure(ctx context.Context, sessionID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM wishlists WHERE session_id=?`, sessionID); err == nil {
		return id, nil
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO wishlists(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *WishlistRepo) Add(ctx context.Context, wishlistID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO wishlist_items(wishlist_id, product_id, created_at)
	  VALUES(?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(wishlist_id, product_id) DO NOTHING
	`, wishlistID, productID)
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, wishlistID, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id=? AND product_id=?`, wishlistID, productID)
	return err
}

type WishlistRow struct {
	ProductID string  `db:"product_id" json:"productId"`
	Name      string  `db:"name" json:"name"`
	Slug      string  `db:"slug" json:"slug"`
	Price     float64 `db:"price" json:"price"`
	InStock   bool    `db:"in_stock" json:"inStock"`
}

func (r *WishlistRepo) List(ctx context.Context, wishlistID string) ([]WishlistRow, error) {
	out := []WishlistRow{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT p.id AS product_id, p.name, p.slug, p.price, p.in_stock
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.wishlist_id = ?
	  ORDER BY p.name
	`, wishlistID)
	return out, err
}
