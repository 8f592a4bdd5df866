package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (AuditService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&AuditLog{}))
	return NewAuditService(NewAuditRepository(&database.Database{DB: db})), db
}

func requestCtx(actor, correlationID string) context.Context {
	ctx := context.WithValue(context.Background(), models.ActorIDKey, actor)
	ctx = context.WithValue(ctx, models.CorrelationIDKey, correlationID)
	return context.WithValue(ctx, models.RequestMetaKey, models.RequestMeta{
		IPAddress: "10.0.0.7",
		Path:      "/api/integration-systems",
		Method:    "POST",
	})
}

func TestRecordCapturesRequestContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := requestCtx("alice", "corr-123")

	err := svc.Record(ctx, Entry{
		EntityType: "IntegrationSystem",
		EntityID:   "sys-1",
		Action:     models.AuditActionCreate,
		NewValues:  map[string]string{"name": "HR_System"},
	})
	require.NoError(t, err)

	result, err := svc.ListByEntity(ctx, "IntegrationSystem", "sys-1", models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.TotalCount)

	row := result.Items[0]
	require.Equal(t, "alice", row.UserID)
	require.Equal(t, "corr-123", row.CorrelationID)
	require.Equal(t, "10.0.0.7", row.IPAddress)
	require.Equal(t, "POST", row.Method)
	require.JSONEq(t, `{"name":"HR_System"}`, string(row.NewValues))
	require.Empty(t, row.OldValues)
}

func TestSearchCombinesPredicates(t *testing.T) {
	svc, _ := newTestService(t)

	entries := []struct {
		actor  string
		action models.AuditAction
		entity string
	}{
		{"alice", models.AuditActionCreate, "sys-1"},
		{"bob", models.AuditActionUpdate, "sys-1"},
		{"alice", models.AuditActionDelete, "sys-2"},
	}
	for _, e := range entries {
		err := svc.Record(requestCtx(e.actor, "corr"), Entry{
			EntityType: "IntegrationSystem",
			EntityID:   e.entity,
			Action:     e.action,
		})
		require.NoError(t, err)
	}

	result, err := svc.Search(context.Background(), SearchFilter{UserID: "alice"}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), result.TotalCount)

	result, err = svc.Search(context.Background(), SearchFilter{
		UserID: "alice",
		Action: models.AuditActionDelete,
	}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.TotalCount)
	require.Equal(t, "sys-2", result.Items[0].EntityID)

	future := time.Now().Add(time.Hour)
	result, err = svc.Search(context.Background(), SearchFilter{From: &future}, models.PageRequest{})
	require.NoError(t, err)
	require.Zero(t, result.TotalCount)
}

func TestListByEntityNewestFirst(t *testing.T) {
	svc, db := newTestService(t)
	ctx := requestCtx("alice", "corr")

	for i, action := range []models.AuditAction{models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete} {
		require.NoError(t, svc.Record(ctx, Entry{
			EntityType: "EntityInstance",
			EntityID:   "inst-1",
			Action:     action,
		}))
		// Distinct timestamps for a stable order.
		require.NoError(t, db.Model(&AuditLog{}).
			Where("action = ?", action).
			Update("created_at", time.Now().UTC().Add(time.Duration(i)*time.Second)).Error)
	}

	result, err := svc.ListByEntity(ctx, "EntityInstance", "inst-1", models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.TotalCount)
	require.Equal(t, models.AuditActionDelete, result.Items[0].Action)
	require.Equal(t, models.AuditActionCreate, result.Items[2].Action)
}

func TestRecordFailurePropagates(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Migrator().DropTable(&AuditLog{}))

	err := svc.Record(requestCtx("alice", "corr"), Entry{
		EntityType: "IntegrationSystem",
		EntityID:   "sys-1",
		Action:     models.AuditActionCreate,
	})
	require.Error(t, err)
	require.True(t, apperr.IsInternal(err))
}
