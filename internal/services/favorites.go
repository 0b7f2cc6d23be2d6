package services

import (
	"context"
	"fmt"

	"pharmacy-api/internal/models"
)

// FavoriteView pairs a favorite with the current catalog entry.
type FavoriteView struct {
	models.FavoriteProduct
	Product models.Product `json:"product"`
}

// ListFavorites skips favorites whose product left the catalog.
func (s *Service) ListFavorites(ctx context.Context, caller models.Profile) ([]FavoriteView, error) {
	favs, err := s.store.ListFavorites(ctx, caller.ID)
	if err != nil {
		return nil, storeErr(err, "favorites")
	}
	out := make([]FavoriteView, 0, len(favs))
	for _, f := range favs {
		p, ok := s.catalog.Product(f.ProductID)
		if !ok {
			continue
		}
		out = append(out, FavoriteView{FavoriteProduct: f, Product: p})
	}
	return out, nil
}

func (s *Service) AddFavorite(ctx context.Context, caller models.Profile, productID string) (FavoriteView, error) {
	p, ok := s.catalog.Product(productID)
	if !ok {
		return FavoriteView{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	f, err := s.store.AddFavorite(ctx, caller.ID, productID)
	if err != nil {
		return FavoriteView{}, storeErr(err, "favorite")
	}
	return FavoriteView{FavoriteProduct: f, Product: p}, nil
}

func (s *Service) RemoveFavorite(ctx context.Context, caller models.Profile, productID string) error {
	return storeErr(s.store.RemoveFavorite(ctx, caller.ID, productID), "favorite")
}
