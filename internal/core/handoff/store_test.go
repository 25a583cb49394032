package handoff

import (
	"context"
	"net/http"
	"testing"
	"time"

	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	backend := cache.NewManager(cache.Options{Name: "handoff", MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = backend.Close() })
	return NewStore(backend, ttl)
}

func TestSaveAndConsume(t *testing.T) {
	store := newStore(t, time.Minute)
	ctx := context.Background()

	payload := Payload{
		Day: "Wednesday",
		Meal: nutrition.MealDetails{
			Name:             "Oatmeal",
			Calories:         "350-450",
			Macros:           nutrition.MacroRanges{Protein: "20-25g", Carbs: "30-40g", Fat: "15-20g"},
			ImageDescription: "Bowl of oatmeal",
			ImageURL:         "https://images.example/oats.png",
		},
	}

	ticket, err := store.Save(ctx, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Token)
	assert.WithinDuration(t, time.Now().Add(time.Minute), ticket.ExpiresAt, 5*time.Second)

	got, err := store.Consume(ctx, ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, payload, *got)

	_, err = store.Consume(ctx, ticket.Token)
	var nf *nutrition.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, http.StatusNotFound, common.StatusOf(err))
}

func TestConcurrentHandoffsAreIndependent(t *testing.T) {
	store := newStore(t, time.Minute)
	ctx := context.Background()

	a, err := store.Save(ctx, Payload{Day: "Monday"})
	require.NoError(t, err)
	b, err := store.Save(ctx, Payload{Day: "Tuesday"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)

	gotB, err := store.Consume(ctx, b.Token)
	require.NoError(t, err)
	assert.Equal(t, "Tuesday", gotB.Day)

	gotA, err := store.Consume(ctx, a.Token)
	require.NoError(t, err)
	assert.Equal(t, "Monday", gotA.Day)
}

func TestConsumeExpired(t *testing.T) {
	store := newStore(t, 20*time.Millisecond)
	ctx := context.Background()

	ticket, err := store.Save(ctx, Payload{Day: "Friday"})
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = store.Consume(ctx, ticket.Token)
	var nf *nutrition.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, 15*time.Minute, NewStore(nil, 0).TTL())
}
