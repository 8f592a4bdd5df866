package synclog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"
	"go-iam/internal/features/audit"
	"go-iam/internal/features/integration"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type allDefinitions struct{}

func (allDefinitions) DefinitionExists(ctx context.Context, id string) (bool, error) {
	return true, nil
}

type testEnv struct {
	svc     SyncLogService
	systems integration.IntegrationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&SyncLog{}, &integration.IntegrationSystem{}, &audit.AuditLog{}))

	wrapped := &database.Database{DB: db}
	systems := integration.NewIntegrationRepository(wrapped)
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(wrapped))
	svc := NewSyncLogService(NewSyncLogRepository(wrapped), systems, allDefinitions{}, auditSvc)
	return &testEnv{svc: svc, systems: systems}
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), models.ActorIDKey, "scheduler")
}

func (e *testEnv) seedSystem(t *testing.T) *integration.IntegrationSystem {
	t.Helper()
	sys := &integration.IntegrationSystem{
		Name:        "HR_System",
		DisplayName: "HR",
		SystemType:  "HR",
		IsActive:    true,
	}
	sys.StampCreate("seed")
	require.NoError(t, e.systems.Create(testCtx(), sys))
	return sys
}

func TestStartSyncOpensRunAndMarksSystem(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	sys := env.seedSystem(t)

	log, err := env.svc.StartSync(ctx, StartSyncRequest{IntegrationSystemID: sys.ID})
	require.NoError(t, err)
	require.Equal(t, models.SyncStatusInProgress, log.Status)
	require.Equal(t, "scheduler", log.TriggeredBy)
	require.Nil(t, log.CompletedAt)

	refreshed, err := env.systems.FindByID(ctx, sys.ID)
	require.NoError(t, err)
	require.Equal(t, models.SyncStatusInProgress, refreshed.LastSyncStatus)
	require.NotNil(t, refreshed.LastSyncedAt)
}

func TestStartSyncUnknownSystem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.StartSync(testCtx(), StartSyncRequest{IntegrationSystemID: uuid.NewString()})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCompleteSyncFinalizesRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	sys := env.seedSystem(t)

	log, err := env.svc.StartSync(ctx, StartSyncRequest{IntegrationSystemID: sys.ID})
	require.NoError(t, err)

	done, err := env.svc.CompleteSync(ctx, log.ID, CompleteSyncRequest{
		Status:           models.SyncStatusSuccess,
		RecordsProcessed: 120,
		RecordsCreated:   5,
		RecordsUpdated:   110,
		RecordsFailed:    5,
	})
	require.NoError(t, err)
	require.Equal(t, models.SyncStatusSuccess, done.Status)
	require.NotNil(t, done.CompletedAt)
	require.Equal(t, 120, done.RecordsProcessed)

	refreshed, err := env.systems.FindByID(ctx, sys.ID)
	require.NoError(t, err)
	require.Equal(t, models.SyncStatusSuccess, refreshed.LastSyncStatus)

	// A finished run cannot be completed again.
	_, err = env.svc.CompleteSync(ctx, log.ID, CompleteSyncRequest{Status: models.SyncStatusFailed})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCompleteSyncRejectsNonTerminalStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	sys := env.seedSystem(t)

	log, err := env.svc.StartSync(ctx, StartSyncRequest{IntegrationSystemID: sys.ID})
	require.NoError(t, err)

	_, err = env.svc.CompleteSync(ctx, log.ID, CompleteSyncRequest{Status: models.SyncStatusInProgress})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListSyncLogsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	sys := env.seedSystem(t)
	other := env.seedSystem2(t)

	var last *SyncLog
	for i := 0; i < 3; i++ {
		log, err := env.svc.StartSync(ctx, StartSyncRequest{IntegrationSystemID: sys.ID})
		require.NoError(t, err)
		last = log
		time.Sleep(2 * time.Millisecond)
	}
	_, err := env.svc.StartSync(ctx, StartSyncRequest{IntegrationSystemID: other.ID})
	require.NoError(t, err)

	result, err := env.svc.ListSyncLogs(ctx, ListFilter{IntegrationSystemID: sys.ID}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.TotalCount)
	require.Equal(t, last.ID, result.Items[0].ID)

	result, err = env.svc.ListSyncLogs(ctx, ListFilter{Status: models.SyncStatusInProgress}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(4), result.TotalCount)
}

func (e *testEnv) seedSystem2(t *testing.T) *integration.IntegrationSystem {
	t.Helper()
	sys := &integration.IntegrationSystem{
		Name:        "EMR_System",
		DisplayName: "EMR",
		SystemType:  "EMR",
		IsActive:    true,
	}
	sys.StampCreate("seed")
	require.NoError(t, e.systems.Create(testCtx(), sys))
	return sys
}
