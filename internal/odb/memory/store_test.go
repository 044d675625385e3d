package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/svcstorego/internal/odb/memory"
	"github.com/vk/svcstorego/internal/provenance"
)

func TestAddService_AssignsDistinctIDs(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	idA, activeA, err := store.AddService(ctx, "a", "ns.a", false, "t1", nil, provenance.Provenance{})
	require.NoError(t, err)
	idB, activeB, err := store.AddService(ctx, "b", "ns.b", false, "t1", nil, provenance.Provenance{})
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
	assert.True(t, activeA)
	assert.True(t, activeB)
	assert.Equal(t, 2, store.Len())
}

func TestAddService_ReregistrationKeepsIDAndActivation(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	id1, _, err := store.AddService(ctx, "a", "ns.a", false, "t1", nil, provenance.Provenance{})
	require.NoError(t, err)

	store.SetActive("ns.a", false)

	id2, active, err := store.AddService(ctx, "a", "ns.a", false, "t2", nil, provenance.Provenance{})
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "identity keeps its row id across re-registrations")
	assert.False(t, active, "a deactivated identity stays inactive when re-registered")
	assert.Equal(t, 1, store.Len())
}

func TestSetActive_UnknownIdentityIsIgnored(t *testing.T) {
	store := memory.New()
	store.SetActive("ns.ghost", false)
	assert.Equal(t, 0, store.Len())
}

func TestAddService_ConcurrentRegistrations(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	const workers = 16
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			identity := fmt.Sprintf("ns.svc%d", n)
			_, _, err := store.AddService(ctx, "svc", identity, false, "t", nil, provenance.Provenance{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, workers, store.Len())
}
