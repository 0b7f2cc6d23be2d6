package store

import (
	"context"

	"pharmacy-api/internal/models"
)

const profileColumns = `id, email, full_name, phone, date_of_birth, allergies, medical_conditions, role, created_at, updated_at`

func (s *Postgres) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return p, mapErr(err)
}

// CreateProfile inserts the profile, or returns the existing row when one
// with the same id already exists.
func (s *Postgres) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	now := s.now()
	if p.Role == "" {
		p.Role = models.RoleCustomer
	}
	var out models.Profile
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO profiles (id, email, full_name, phone, date_of_birth, allergies, medical_conditions, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET id = profiles.id
		RETURNING `+profileColumns,
		p.ID, p.Email, p.FullName, p.Phone, p.DateOfBirth, p.Allergies, p.MedicalConditions, p.Role, now)
	return out, mapErr(err)
}

// UpdateProfile writes the contact and medical fields. Role and email are
// left untouched.
func (s *Postgres) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	var out models.Profile
	err := s.db.GetContext(ctx, &out, `
		UPDATE profiles
		SET full_name = $2, phone = $3, date_of_birth = $4, allergies = $5, medical_conditions = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+profileColumns,
		p.ID, p.FullName, p.Phone, p.DateOfBirth, p.Allergies, p.MedicalConditions, s.now())
	return out, mapErr(err)
}

func (s *Postgres) UpdateProfileRole(ctx context.Context, id string, role models.Role) (models.Profile, error) {
	var out models.Profile
	err := s.db.GetContext(ctx, &out, `
		UPDATE profiles SET role = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+profileColumns,
		id, role, s.now())
	return out, mapErr(err)
}

func (s *Postgres) ListProfiles(ctx context.Context, role models.Role) ([]models.Profile, error) {
	profiles := []models.Profile{}
	err := s.db.SelectContext(ctx, &profiles, `
		SELECT `+profileColumns+` FROM profiles
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC`, string(role))
	return profiles, mapErr(err)
}
