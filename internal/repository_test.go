package internal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/api-pgd-client/internal/models"
	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

func setupTestDB(t *testing.T) OutboxRepository {
	tmpFile, err := os.CreateTemp("", "pgd_outbox_test-*.db")
	require.NoError(t, err)
	dbPath := tmpFile.Name()
	_ = tmpFile.Close()

	t.Cleanup(func() {
		_ = os.Remove(dbPath)
	})

	db, err := Connect(dbPath)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	err = Migrate(dbPath)
	require.NoError(t, err)

	repo := NewOutboxRepository(db)
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func participantEntry(t *testing.T, siape string, lotacao int) models.OutboxEntry {
	entry, err := models.ParticipantEntry(&pgd.Participant{
		CPF:                    "11122233344",
		MatriculaSIAPE:         siape,
		OrigemUnidade:          "SIAPE",
		CodUnidadeAutorizadora: 26,
		CodUnidadeLotacao:      lotacao,
	})
	require.NoError(t, err)
	return entry
}

func TestOutboxIntegration(t *testing.T) {
	repo := setupTestDB(t)

	n, err := repo.Enqueue([]models.OutboxEntry{
		participantEntry(t, "111", 1),
		participantEntry(t, "222", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := repo.Pending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	first := pending[0]
	assert.Equal(t, models.KindParticipant, first.Kind)
	assert.Equal(t, "SIAPE/26/1/111", first.Key)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Zero(t, first.Attempts)
	assert.Nil(t, first.LastError)
	assert.False(t, first.CreatedAt.IsZero())

	var p pgd.Participant
	require.NoError(t, first.DecodePayload(&p))
	assert.Equal(t, "111", p.MatriculaSIAPE)

	require.NoError(t, repo.MarkSent(first.ID, `{"matricula_siape":"111"}`))
	require.NoError(t, repo.MarkFailed(pending[1].ID, "Endpoint malformed"))

	pending, err = repo.Pending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "a failed entry stays pending until it runs out of attempts")
	assert.Equal(t, 1, pending[0].Attempts)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "Endpoint malformed", *pending[0].LastError)

	counts, err := repo.Summary()
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.OutboxCount{
		{Kind: models.KindParticipant, Status: models.StatusPending, Attempts: 1, Count: 1},
		{Kind: models.KindParticipant, Status: models.StatusSent, Attempts: 1, Count: 1},
	}, counts)
}

func TestOutbox_MarkFailedGivesUpAfterMaxAttempts(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Enqueue([]models.OutboxEntry{participantEntry(t, "111", 1)})
	require.NoError(t, err)
	pending, err := repo.Pending(1)
	require.NoError(t, err)
	id := pending[0].ID

	for range MAX_ATTEMPTS {
		require.NoError(t, repo.MarkFailed(id, "timeout"))
	}

	pending, err = repo.Pending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	counts, err := repo.Summary()
	require.NoError(t, err)
	assert.Equal(t, []models.OutboxCount{
		{Kind: models.KindParticipant, Status: models.StatusFailed, Attempts: MAX_ATTEMPTS, Count: 1},
	}, counts)
}

func TestOutbox_EnqueueReplacesQueuedVersion(t *testing.T) {
	repo := setupTestDB(t)

	entry := participantEntry(t, "111", 1)
	_, err := repo.Enqueue([]models.OutboxEntry{entry})
	require.NoError(t, err)

	pending, err := repo.Pending(1)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(pending[0].ID, "{}"))

	updated, err := models.ParticipantEntry(&pgd.Participant{
		CPF:                    "99988877766",
		MatriculaSIAPE:         "111",
		OrigemUnidade:          "SIAPE",
		CodUnidadeAutorizadora: 26,
		CodUnidadeLotacao:      1,
	})
	require.NoError(t, err)
	_, err = repo.Enqueue([]models.OutboxEntry{updated})
	require.NoError(t, err)

	pending, err = repo.Pending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, pending[0].Key, entry.Key)
	assert.Zero(t, pending[0].Attempts)
	assert.Nil(t, pending[0].Response)

	var p pgd.Participant
	require.NoError(t, pending[0].DecodePayload(&p))
	assert.Equal(t, "99988877766", p.CPF)
}

func TestOutbox_EmptyBatchAndUnknownID(t *testing.T) {
	repo := setupTestDB(t)

	n, err := repo.Enqueue(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Error(t, repo.MarkSent(42, "{}"))
	assert.Error(t, repo.MarkFailed(42, "boom"))

	counts, err := repo.Summary()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestOutbox_Check(t *testing.T) {
	repo := setupTestDB(t)

	check := repo.Check()
	assert.Equal(t, "outbox-db", check.Name())
	assert.True(t, check.Pass())
}
