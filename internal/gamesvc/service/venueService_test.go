package service

import (
	"context"
	"testing"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/avvvet/pickup-services/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenues(t *testing.T) {
	svc := NewVenueService(&testutil.VenueStore{})
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.Venue{Name: " "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, &models.Venue{Name: "Polar Ice", City: "Chicago"})
	require.NoError(t, err)
	v, err := svc.Create(ctx, &models.Venue{Name: "Johnny's IceHouse"})
	require.NoError(t, err)
	assert.False(t, v.LastUpdated.IsZero())

	venues, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "Johnny's IceHouse", venues[0].Name)
}
