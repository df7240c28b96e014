package repository

import (
	"context"
	"testing"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantRepository_LeaveAndRejoin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	wagerRepo := NewWagerRepositoryScoped(testDB.DB.Pool)
	repo := NewParticipantRepositoryScoped(testDB.DB.Pool)

	wager := testutil.CreateTestWager(100, 25, 3)
	require.NoError(t, wagerRepo.Create(ctx, wager))

	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestParticipant(wager.ID, 300, 25)))
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestParticipant(wager.ID, 200, 25)))

	require.NoError(t, repo.UpdateStatus(ctx, wager.ID, 200, entities.ParticipantStatusLeft, time.Now()))

	participants, err := repo.ListByWager(ctx, wager.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, int64(200), participants[0].UserID, "ordered by user id")
	assert.Equal(t, entities.ParticipantStatusLeft, participants[0].Status)
	assert.NotNil(t, participants[0].LeftAt)
	assert.Len(t, entities.ActiveParticipants(participants), 1)

	rejoin := testutil.CreateTestParticipant(wager.ID, 200, 25)
	require.NoError(t, repo.Upsert(ctx, rejoin))

	participants, err = repo.ListByWager(ctx, wager.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ParticipantStatusActive, participants[0].Status)
	assert.Nil(t, participants[0].LeftAt)
	assert.Equal(t, int64(50), entities.SumStakes(entities.ActiveParticipants(participants)))
}

func TestParticipantRepository_UpdateMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewParticipantRepositoryScoped(testDB.DB.Pool)

	err := repo.UpdateStatus(context.Background(), 1, 2, entities.ParticipantStatusRefunded, time.Now())
	assert.Error(t, err)
}
