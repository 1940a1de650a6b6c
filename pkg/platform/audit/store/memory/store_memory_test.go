package memory

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "paperledger/pkg/platform/audit"
)

func TestInMemoryStore_CapacityKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(WithCapacity(3))

	for i := range 10 {
		require.NoError(t, store.Append(ctx, audit.Event{ID: strconv.Itoa(i), Actor: "bob"}))
	}

	events, err := store.ListRecent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"7", "8", "9"}, []string{events[0].ID, events[1].ID, events[2].ID})

	byActor, err := store.ListByActor(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, byActor, 3)
}

func TestInMemoryStore_UnboundedByDefault(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for i := range 5 {
		require.NoError(t, store.Append(ctx, audit.Event{ID: strconv.Itoa(i)}))
	}

	events, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "3", events[0].ID)
	assert.Equal(t, "4", events[1].ID)
}
