package store

import (
	"context"

	"pharmacy-api/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const addressColumns = `id, user_id, label, street, city, state, postal_code, phone, is_default, created_at`

func (s *Postgres) ListAddresses(ctx context.Context, userID string) ([]models.SavedAddress, error) {
	addresses := []models.SavedAddress{}
	err := s.db.SelectContext(ctx, &addresses, `
		SELECT `+addressColumns+` FROM saved_addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at`, userID)
	return addresses, mapErr(err)
}

func (s *Postgres) GetAddress(ctx context.Context, userID, id string) (models.SavedAddress, error) {
	var a models.SavedAddress
	err := s.db.GetContext(ctx, &a, `
		SELECT `+addressColumns+` FROM saved_addresses
		WHERE id = $1 AND user_id = $2`, id, userID)
	return a, mapErr(err)
}

// CreateAddress inserts the address. The user's first address becomes the
// default; a new default clears the flag on the others.
func (s *Postgres) CreateAddress(ctx context.Context, a models.SavedAddress) (models.SavedAddress, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM saved_addresses WHERE user_id = $1`, a.UserID); err != nil {
			return err
		}
		if count == 0 {
			a.IsDefault = true
		}
		if a.IsDefault && count > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE saved_addresses SET is_default = false WHERE user_id = $1`, a.UserID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO saved_addresses (`+addressColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.UserID, a.Label, a.Street, a.City, a.State, a.PostalCode, a.Phone, a.IsDefault, a.CreatedAt)
		return err
	})
	if err != nil {
		return models.SavedAddress{}, mapErr(err)
	}
	return a, nil
}

func (s *Postgres) UpdateAddress(ctx context.Context, a models.SavedAddress) (models.SavedAddress, error) {
	var out models.SavedAddress
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE saved_addresses SET is_default = false WHERE user_id = $1 AND id <> $2`, a.UserID, a.ID); err != nil {
				return err
			}
		}
		return tx.GetContext(ctx, &out, `
			UPDATE saved_addresses
			SET label = $3, street = $4, city = $5, state = $6, postal_code = $7, phone = $8, is_default = $9
			WHERE id = $1 AND user_id = $2
			RETURNING `+addressColumns,
			a.ID, a.UserID, a.Label, a.Street, a.City, a.State, a.PostalCode, a.Phone, a.IsDefault)
	})
	return out, mapErr(err)
}

func (s *Postgres) DeleteAddress(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}

func (s *Postgres) SetDefaultAddress(ctx context.Context, userID, id string) (models.SavedAddress, error) {
	var out models.SavedAddress
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE saved_addresses SET is_default = false WHERE user_id = $1 AND id <> $2`, userID, id); err != nil {
			return err
		}
		return tx.GetContext(ctx, &out, `
			UPDATE saved_addresses SET is_default = true
			WHERE id = $1 AND user_id = $2
			RETURNING `+addressColumns, id, userID)
	})
	return out, mapErr(err)
}
