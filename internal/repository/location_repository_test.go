package repository

import (
	"context"
	"testing"

	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationRepository_DefaultLocation(t *testing.T) {
	setupRedis(t)
	repo := NewLocationRepository()

	coords, err := repo.GetLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Coordinates{Lat: -27.407260, Lon: 152.919906}, coords)
}

func TestLocationRepository_SaveAndGet(t *testing.T) {
	mr := setupRedis(t)
	repo := NewLocationRepository()
	ctx := context.Background()

	want := model.Coordinates{Lat: 51.5072, Lon: -0.1276}
	require.NoError(t, repo.SaveLocation(ctx, want))
	assert.True(t, mr.Exists("location:current"))

	got, err := repo.GetLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocationRepository_RejectsInvalid(t *testing.T) {
	mr := setupRedis(t)
	repo := NewLocationRepository()

	for _, c := range []model.Coordinates{{Lat: 91}, {Lat: -90.5}, {Lon: 181}, {Lon: -200}} {
		err := repo.SaveLocation(context.Background(), c)
		assert.ErrorIs(t, err, model.ErrInvalidCoordinates)
	}
	assert.False(t, mr.Exists("location:current"))
}

func TestLocationRepository_RedisDown(t *testing.T) {
	mr := setupRedis(t)
	repo := NewLocationRepository()
	mr.Close()

	coords, err := repo.GetLocation(context.Background())
	require.NoError(t, err)
	lat, lon := -27.407260, 152.919906
	assert.Equal(t, model.Coordinates{Lat: lat, Lon: lon}, coords)

	err = repo.SaveLocation(context.Background(), model.Coordinates{Lat: 1, Lon: 1})
	assert.Error(t, err)
}
