package services

import (
	"context"

	"pitchside/internal/domain"
	"pitchside/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// Add puts qty of a product in the session's cart at its current price.
// Out of stock products are refused.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if qty > repos.MaxLineQty {
		qty = repos.MaxLineQty
	}
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !p.InStock {
		return domain.Conflict("%s is out of stock", p.Name)
	}
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.UpsertItem(ctx, cartID, productID, qty, p.Price)
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) error {
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.RemoveItem(ctx, cartID, productID)
}

type CartView struct {
	Items []repos.CartItemRow `json:"items"`
	Total float64             `json:"total"`
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	items, total, err := s.Carts.View(ctx, cartID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Total: total}, nil
}
