package services

import (
	"context"
	"strings"

	"pharmacy-api/internal/models"
)

type AddressInput struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

func (in AddressInput) normalize() (AddressInput, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.Street = strings.TrimSpace(in.Street)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Street == "" || in.City == "" {
		return in, invalid("street and city are required")
	}
	if in.Label == "" {
		in.Label = "Home"
	}
	return in, nil
}

func (s *Service) ListAddresses(ctx context.Context, caller models.Profile) ([]models.SavedAddress, error) {
	out, err := s.store.ListAddresses(ctx, caller.ID)
	return out, storeErr(err, "addresses")
}

func (s *Service) CreateAddress(ctx context.Context, caller models.Profile, in AddressInput) (models.SavedAddress, error) {
	in, err := in.normalize()
	if err != nil {
		return models.SavedAddress{}, err
	}
	a, err := s.store.CreateAddress(ctx, models.SavedAddress{
		UserID:     caller.ID,
		Label:      in.Label,
		Street:     in.Street,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Phone:      in.Phone,
		IsDefault:  in.IsDefault,
	})
	return a, storeErr(err, "address")
}

func (s *Service) UpdateAddress(ctx context.Context, caller models.Profile, id string, in AddressInput) (models.SavedAddress, error) {
	in, err := in.normalize()
	if err != nil {
		return models.SavedAddress{}, err
	}
	a, err := s.store.GetAddress(ctx, caller.ID, id)
	if err != nil {
		return models.SavedAddress{}, storeErr(err, "address")
	}
	a.Label = in.Label
	a.Street = in.Street
	a.City = in.City
	a.State = in.State
	a.PostalCode = in.PostalCode
	a.Phone = in.Phone
	// Unsetting the default happens by choosing another one.
	a.IsDefault = a.IsDefault || in.IsDefault

	a, err = s.store.UpdateAddress(ctx, a)
	return a, storeErr(err, "address")
}

func (s *Service) DeleteAddress(ctx context.Context, caller models.Profile, id string) error {
	return storeErr(s.store.DeleteAddress(ctx, caller.ID, id), "address")
}

func (s *Service) SetDefaultAddress(ctx context.Context, caller models.Profile, id string) (models.SavedAddress, error) {
	a, err := s.store.SetDefaultAddress(ctx, caller.ID, id)
	return a, storeErr(err, "address")
}
