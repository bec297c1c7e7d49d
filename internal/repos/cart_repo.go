package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// MaxLineQty caps a single cart line.
const MaxLineQty = 50

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type CartItemRow struct {
	ProductID  string  `db:"product_id" json:"productId"`
	Name       string  `db:"name" json:"name"`
	Slug       string  `db:"slug" json:"slug"`
	InStock    bool    `db:"in_stock" json:"inStock"`
	Qty        int     `db:"qty" json:"qty"`
	PriceAtAdd float64 `db:"price_at_add" json:"priceAtAdd"`
	Subtotal   float64 `db:"subtotal" json:"subtotal"`
}

func (r *CartRepo) EnsureCart(ctx context.Context, sessionID string) (string, error) {
	var cartID string
	if err := r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpsertItem adds qty to the line, capped at MaxLineQty.
func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID string, qty int, price float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id,product_id,qty,price_at_add,created_at)
		VALUES(?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id) DO UPDATE
		SET qty = MIN(?, cart_items.qty + excluded.qty), updated_at = CURRENT_TIMESTAMP
	`, cartID, productID, qty, price, MaxLineQty)
	return err
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return err
}

func (r *CartRepo) View(ctx context.Context, cartID string) ([]CartItemRow, float64, error) {
	rows := []CartItemRow{}
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT ci.product_id, p.name, p.slug, p.in_stock, ci.qty, ci.price_at_add,
	         (ci.qty*ci.price_at_add) AS subtotal
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at, p.name
	`, cartID); err != nil {
		return nil, 0, err
	}
	total := 0.0
	for _, it := range rows {
		total += it.Subtotal
	}
	return rows, total, nil
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
