package app_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

func createValidUserID(t *testing.T) domain.UserID {
	t.Helper()

	id, err := domain.UserIDFromUUID(uuid.Must(uuid.NewV7()))
	require.NoError(t, err)

	return id
}

func mustEventID(t *testing.T, s string) domain.EventID {
	t.Helper()

	id, err := domain.EventIDFromString(s)
	require.NoError(t, err)

	return id
}
