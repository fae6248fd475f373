package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
)

type VenueService struct {
	store VenueStore
}

func NewVenueService(store VenueStore) *VenueService {
	return &VenueService{store: store}
}

func (s *VenueService) List(ctx context.Context) ([]*models.Venue, error) {
	return s.store.List(ctx)
}

func (s *VenueService) Create(ctx context.Context, v *models.Venue) (*models.Venue, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return nil, apperror.ValidationFailed("name", "venue name is required")
	}
	v.LastUpdated = time.Now().UTC()

	if err := s.store.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("creating venue: %w", err)
	}
	return v, nil
}
