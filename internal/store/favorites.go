package store

import (
	"context"

	"pharmacy-api/internal/models"

	"github.com/google/uuid"
)

func (s *Postgres) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteProduct, error) {
	favorites := []models.FavoriteProduct{}
	err := s.db.SelectContext(ctx, &favorites, `
		SELECT id, user_id, product_id, created_at FROM favorite_products
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	return favorites, mapErr(err)
}

// AddFavorite is idempotent: adding an existing favorite returns the stored row.
func (s *Postgres) AddFavorite(ctx context.Context, userID, productID string) (models.FavoriteProduct, error) {
	var f models.FavoriteProduct
	err := s.db.GetContext(ctx, &f, `
		INSERT INTO favorite_products (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET product_id = favorite_products.product_id
		RETURNING id, user_id, product_id, created_at`,
		uuid.NewString(), userID, productID, s.now())
	return f, mapErr(err)
}

func (s *Postgres) RemoveFavorite(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorite_products WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}
