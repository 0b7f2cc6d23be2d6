package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pharmacy-api/internal/auth"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/store"
)

type ProfileUpdate struct {
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
	DateOfBirth       string `json:"date_of_birth"`
	Allergies         string `json:"allergies"`
	MedicalConditions string `json:"medical_conditions"`
}

// EnsureProfile loads the caller's profile, creating a customer profile on
// first access.
func (s *Service) EnsureProfile(ctx context.Context, id auth.Identity) (models.Profile, error) {
	p, err := s.store.GetProfile(ctx, id.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Profile{}, storeErr(err, "profile")
	}

	p, err = s.store.CreateProfile(ctx, models.Profile{ID: id.UserID, Email: id.Email, Role: models.RoleCustomer})
	if err != nil {
		return models.Profile{}, storeErr(err, "profile")
	}
	slog.Info("Created profile", "user_id", p.ID)
	return p, nil
}

func (u ProfileUpdate) validate(now time.Time) error {
	if len(u.FullName) > 200 {
		return invalid("full_name is too long")
	}
	if len(u.Phone) > 40 {
		return invalid("phone is too long")
	}
	if u.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, u.DateOfBirth)
		if err != nil {
			return invalid("date_of_birth must be YYYY-MM-DD")
		}
		if dob.After(now) {
			return invalid("date_of_birth is in the future")
		}
	}
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, caller models.Profile, u ProfileUpdate) (models.Profile, error) {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Phone = strings.TrimSpace(u.Phone)
	if err := u.validate(s.now()); err != nil {
		return models.Profile{}, err
	}

	p := caller
	p.FullName = u.FullName
	p.Phone = u.Phone
	p.DateOfBirth = u.DateOfBirth
	p.Allergies = u.Allergies
	p.MedicalConditions = u.MedicalConditions

	out, err := s.store.UpdateProfile(ctx, p)
	return out, storeErr(err, "profile")
}

func (s *Service) ListProfiles(ctx context.Context, caller models.Profile, role models.Role) ([]models.Profile, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	profiles, err := s.store.ListProfiles(ctx, role)
	return profiles, storeErr(err, "profiles")
}

// SetRole changes another user's role. Admins cannot change their own role.
func (s *Service) SetRole(ctx context.Context, caller models.Profile, userID string, role models.Role) (models.Profile, error) {
	if err := requireAdmin(caller); err != nil {
		return models.Profile{}, err
	}
	if !role.Valid() {
		return models.Profile{}, invalid("unknown role %q", role)
	}
	if userID == caller.ID {
		return models.Profile{}, fmt.Errorf("%w: admins cannot change their own role", ErrConflict)
	}

	p, err := s.store.UpdateProfileRole(ctx, userID, role)
	if err != nil {
		return models.Profile{}, storeErr(err, "profile")
	}
	slog.Info("Changed profile role", "user_id", userID, "role", role, "by", caller.ID)
	return p, nil
}
