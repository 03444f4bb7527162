package repository_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/repository"
	testingutil "github.com/dimpinis9/estately/testing"
	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withDB runs fn against a throwaway database, skipping when PostgreSQL is not reachable
func withDB(t *testing.T, fn func(*testingutil.TestDB) error) {
	t.Helper()
	err := testingutil.TestWithDB(fn)
	if errors.Is(err, testingutil.ErrDatabaseUnavailable) {
		t.Skipf("skipping database test: %v", err)
	}
	require.NoError(t, err)
}

func TestLeadRepository(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		repo := repository.NewLeadRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		const owner, stranger uint = 7, 8

		t.Run("DefaultStatusOnCreate", func(t *testing.T) {
			lead := &models.Lead{OwnerID: owner, Name: "No Status"}
			require.NoError(t, repo.Save(ctx, lead))
			assert.NotEqual(t, uuid.Nil, lead.ID)
			assert.Equal(t, models.LeadStatusNew, lead.Status)
		})

		t.Run("ByOwnerAndID", func(t *testing.T) {
			lead, err := fixtures.CreateTestLead(owner, models.LeadStatusContacted, time.Time{})
			require.NoError(t, err)

			got, err := repo.ByOwnerAndID(ctx, owner, lead.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, models.LeadStatusContacted, got.Status)

			foreign, err := repo.ByOwnerAndID(ctx, stranger, lead.ID)
			assert.NoError(t, err)
			assert.Nil(t, foreign)
		})

		t.Run("UpdateStatusScopedToOwner", func(t *testing.T) {
			lead, err := fixtures.CreateTestLead(owner, models.LeadStatusNew, time.Time{})
			require.NoError(t, err)

			matched, err := repo.UpdateStatus(ctx, stranger, lead.ID, models.LeadStatusClosed)
			require.NoError(t, err)
			assert.False(t, matched)

			matched, err = repo.UpdateStatus(ctx, owner, lead.ID, models.LeadStatusContacted)
			require.NoError(t, err)
			assert.True(t, matched)

			got, err := repo.ByOwnerAndID(ctx, owner, lead.ID)
			require.NoError(t, err)
			assert.Equal(t, models.LeadStatusContacted, got.Status)
		})

		t.Run("AppendNote", func(t *testing.T) {
			lead, err := fixtures.CreateTestLead(owner, models.LeadStatusNew, time.Time{})
			require.NoError(t, err)

			for _, entry := range []string{"[a] first", "[b] second"} {
				matched, err := repo.AppendNote(ctx, owner, lead.ID, entry)
				require.NoError(t, err)
				assert.True(t, matched)
			}

			got, err := repo.ByOwnerAndID(ctx, owner, lead.ID)
			require.NoError(t, err)
			assert.Equal(t, "[a] first\n[b] second", got.Notes)
		})

		t.Run("DeleteOwned", func(t *testing.T) {
			lead, err := fixtures.CreateTestLead(owner, models.LeadStatusNew, time.Time{})
			require.NoError(t, err)

			matched, err := repo.DeleteOwned(ctx, stranger, lead.ID)
			require.NoError(t, err)
			assert.False(t, matched)

			matched, err = repo.DeleteOwned(ctx, owner, lead.ID)
			require.NoError(t, err)
			assert.True(t, matched)

			exists, err := repo.Exists(ctx, models.LeadFilter{ID: &lead.ID})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("CountByStatus", func(t *testing.T) {
			closed := models.LeadStatusClosed
			before, err := repo.Count(ctx, models.LeadFilter{OwnerID: utils.ToPtr(owner), Status: &closed})
			require.NoError(t, err)

			_, err = fixtures.CreateTestLead(owner, models.LeadStatusClosed, time.Time{})
			require.NoError(t, err)

			after, err := repo.Count(ctx, models.LeadFilter{OwnerID: utils.ToPtr(owner), Status: &closed})
			require.NoError(t, err)
			assert.Equal(t, before+1, after)
		})

		return nil
	})
}

func TestPropertyRepository(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		repo := repository.NewPropertyRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		const owner uint = 11

		t.Run("DefaultStatusOnCreate", func(t *testing.T) {
			property := &models.Property{OwnerID: owner, Title: "Loft"}
			require.NoError(t, repo.Save(ctx, property))
			assert.Equal(t, models.PropertyStatusAvailable, property.Status)
		})

		t.Run("ListByOwner", func(t *testing.T) {
			_, err := fixtures.CreateTestProperty(owner, models.PropertyStatusSold, time.Time{})
			require.NoError(t, err)
			_, err = fixtures.CreateTestProperty(owner+1, models.PropertyStatusSold, time.Time{})
			require.NoError(t, err)

			rows, err := repo.ListByOwner(ctx, owner)
			require.NoError(t, err)
			for _, row := range rows {
				assert.Equal(t, owner, row.OwnerID)
			}
		})

		return nil
	})
}

func TestEntityStore(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		store := repository.NewEntityStoreFromDB(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		const owner, stranger uint = 21, 22

		lead, err := fixtures.CreateTestLead(owner, models.LeadStatusNew, time.Time{})
		require.NoError(t, err)
		property, err := fixtures.CreateTestProperty(owner, models.PropertyStatusAvailable, time.Time{})
		require.NoError(t, err)

		t.Run("GetEntity", func(t *testing.T) {
			entity, err := store.GetEntity(ctx, owner, models.EntityKindLead, lead.ID.String())
			require.NoError(t, err)
			assert.Equal(t, models.EntityKindLead, entity.Kind)
			assert.Equal(t, "new", entity.Status)
			assert.Equal(t, owner, entity.OwnerID)
		})

		t.Run("NotFoundIsIndistinguishable", func(t *testing.T) {
			_, errForeign := store.GetEntity(ctx, stranger, models.EntityKindLead, lead.ID.String())
			_, errMissing := store.GetEntity(ctx, owner, models.EntityKindLead, uuid.NewString())
			_, errGarbage := store.GetEntity(ctx, owner, models.EntityKindLead, "not-a-uuid")

			assert.ErrorIs(t, errForeign, repository.ErrEntityNotFound)
			assert.ErrorIs(t, errMissing, repository.ErrEntityNotFound)
			assert.ErrorIs(t, errGarbage, repository.ErrEntityNotFound)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			require.NoError(t, store.UpdateStatus(ctx, owner, models.EntityKindProperty, property.ID.String(), "pending"))

			entity, err := store.GetEntity(ctx, owner, models.EntityKindProperty, property.ID.String())
			require.NoError(t, err)
			assert.Equal(t, "pending", entity.Status)

			err = store.UpdateStatus(ctx, stranger, models.EntityKindProperty, property.ID.String(), "sold")
			assert.ErrorIs(t, err, repository.ErrEntityNotFound)

			err = store.UpdateStatus(ctx, owner, models.EntityKindLead, lead.ID.String(), "proposal")
			assert.ErrorIs(t, err, repository.ErrUnsupportedState)
		})

		t.Run("AppendNote", func(t *testing.T) {
			require.NoError(t, store.AppendNote(ctx, owner, models.EntityKindLead, lead.ID.String(), "[t] called back"))

			entity, err := store.GetEntity(ctx, owner, models.EntityKindLead, lead.ID.String())
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(entity.Notes, "[t] called back"))
		})

		t.Run("ListOwnedAppointments", func(t *testing.T) {
			_, err := fixtures.CreateTestAppointment(owner, &lead.ID, utils.UTCNow().Add(24*time.Hour))
			require.NoError(t, err)

			rows, err := store.ListOwnedAppointments(ctx, owner)
			require.NoError(t, err)
			assert.Len(t, rows, 1)

			rows, err = store.ListOwnedAppointments(ctx, stranger)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("DeleteEntity", func(t *testing.T) {
			require.NoError(t, store.DeleteEntity(ctx, owner, models.EntityKindLead, lead.ID.String()))
			err := store.DeleteEntity(ctx, owner, models.EntityKindLead, lead.ID.String())
			assert.ErrorIs(t, err, repository.ErrEntityNotFound)
		})

		t.Run("UnsupportedKind", func(t *testing.T) {
			_, err := store.ListOwned(ctx, owner, models.EntityKind("contact"))
			assert.ErrorIs(t, err, repository.ErrUnsupportedKind)
		})

		return nil
	})
}

func TestAuditLogRepository(t *testing.T) {
	withDB(t, func(testDB *testingutil.TestDB) error {
		repo := repository.NewAuditLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		owner := uint(31)
		require.NoError(t, repo.Save(ctx, &models.AuditLog{
			OwnerID: &owner,
			Action:  models.AuditActionBulkStatusUpdated,
			Success: utils.ToPtr(true),
		}))

		logs, err := repo.ListByOwner(ctx, owner, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.AuditActionBulkStatusUpdated, logs[0].Action)

		logs, err = repo.ListByAction(ctx, models.AuditActionBulkOperationRejected, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, logs)

		return nil
	})
}
