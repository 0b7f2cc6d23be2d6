package services

import (
	"fmt"

	"pharmacy-api/internal/catalog"
	"pharmacy-api/internal/models"
)

func (s *Service) Products(f catalog.Filter) []models.Product {
	return s.catalog.List(f)
}

func (s *Service) Product(id string) (models.Product, error) {
	p, ok := s.catalog.Product(id)
	if !ok {
		return models.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return p, nil
}
