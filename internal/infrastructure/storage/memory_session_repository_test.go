package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rice-guard/internal/domain/entity"
)

func TestMemorySessionRepository_GetCreates(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	s, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, s.State)
	require.Equal(t, int64(10), s.ChatID)
}

func TestMemorySessionRepository_SaveAndUpdate(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	s, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	s.CompleteCheck()
	require.NoError(t, repo.Save(ctx, s))

	require.NoError(t, repo.UpdateState(ctx, 1, entity.StateAwaitingPhoto))

	got, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, got.State)
	require.Equal(t, 1, got.Checks)
}

func TestMemorySessionRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	s, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	s.SetState(entity.StateProcessing)

	got, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, got.State, "unsaved changes are not visible")
}

func TestMemorySessionRepository_Concurrent(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s, err := repo.Get(ctx, id%5, id)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, s))
		}(i)
	}
	wg.Wait()
}
