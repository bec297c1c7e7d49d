package services

import (
	"context"

	"pitchside/internal/repos"
)

type WishlistService struct {
	Repo  *repos.WishlistRepo
	Prods *repos.ProductRepo
}

func NewWishlistService(r *repos.WishlistRepo, prods *repos.ProductRepo) *WishlistService {
	return &WishlistService{Repo: r, Prods: prods}
}

// Save is idempotent; unknown products are NotFound.
func (s *WishlistService) Save(ctx context.Context, sessionID, productID string) error {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return err
	}
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Add(ctx, id, productID)
}

func (s *WishlistService) Unsave(ctx context.Context, sessionID, productID string) error {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Remove(ctx, id, productID)
}

func (s *WishlistService) List(ctx context.Context, sessionID string) ([]repos.WishlistRow, error) {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, id)
}
