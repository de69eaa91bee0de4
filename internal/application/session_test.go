package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"rice-guard/internal/domain/entity"
	"rice-guard/internal/infrastructure/storage"
)

func TestSessionService_BeginCheckAndCancel(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())
	ctx := context.Background()

	session, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, session.State)

	session, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
}

func TestSessionService_ProcessingAndComplete(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())
	ctx := context.Background()

	session, err := svc.StartProcessing(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, session.State)

	_, err = svc.CompleteCheck(ctx, 2, 20)
	require.NoError(t, err)
	session, err = svc.CompleteCheck(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
	require.Equal(t, 2, session.Checks)

	session, err = svc.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, 2, session.Checks)
}

func TestSessionService_RunCheckCountsOnlySuccess(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())
	ctx := context.Background()

	err := svc.RunCheck(ctx, 3, 30, func() error {
		session, err := svc.Get(ctx, 3, 30)
		require.NoError(t, err)
		require.Equal(t, entity.StateProcessing, session.State)
		return nil
	})
	require.NoError(t, err)

	failure := errors.New("download failed")
	err = svc.RunCheck(ctx, 3, 30, func() error { return failure })
	require.ErrorIs(t, err, failure)

	session, err := svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
	require.Equal(t, 1, session.Checks)
}
