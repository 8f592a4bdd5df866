package integration

import (
	"context"
	"fmt"
	"testing"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"
	"go-iam/internal/features/audit"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubCounter struct{ n int64 }

func (s stubCounter) CountBySystem(ctx context.Context, systemID string) (int64, error) {
	return s.n, nil
}

func openTestDB(t *testing.T) *database.Database {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&IntegrationSystem{}, &audit.AuditLog{}))
	return &database.Database{DB: db}
}

func newTestService(t *testing.T, definitions DefinitionCounter) (IntegrationService, *database.Database) {
	t.Helper()
	db := openTestDB(t)
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(db))
	return NewIntegrationService(NewIntegrationRepository(db), definitions, auditSvc), db
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), models.ActorIDKey, "tester")
}

func TestCreateSystemRejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService(t, stubCounter{})
	ctx := testCtx()

	req := CreateSystemRequest{
		Name:        "HR_System",
		DisplayName: "HR",
		SystemType:  "HR",
	}
	sys, err := svc.CreateSystem(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, sys.ID)
	require.Equal(t, int64(1), sys.Version)
	require.Equal(t, "tester", sys.CreatedBy)

	req.DisplayName = "Another HR"
	_, err = svc.CreateSystem(ctx, req)
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	req.Name = "hr_system"
	_, err = svc.CreateSystem(ctx, req)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err), "name uniqueness is case-insensitive")
}

func TestCreateSystemRejectsUnknownAuthType(t *testing.T) {
	svc, _ := newTestService(t, stubCounter{})

	_, err := svc.CreateSystem(testCtx(), CreateSystemRequest{
		Name:               "EMR",
		DisplayName:        "EMR",
		SystemType:         "EMR",
		AuthenticationType: "Kerberos",
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateSystemDefaultsAuthType(t *testing.T) {
	svc, _ := newTestService(t, stubCounter{})
	ctx := testCtx()

	sys, err := svc.CreateSystem(ctx, CreateSystemRequest{
		Name: "HR_System", DisplayName: "HR", SystemType: "HR",
	})
	require.NoError(t, err)

	// Omitting the field defaults to None, same as create.
	updated, err := svc.UpdateSystem(ctx, sys.ID, UpdateSystemRequest{
		Name: "HR_System", DisplayName: "HR v2", SystemType: "HR", Version: sys.Version,
	})
	require.NoError(t, err)
	require.Equal(t, AuthTypeNone, updated.AuthenticationType)

	_, err = svc.UpdateSystem(ctx, sys.ID, UpdateSystemRequest{
		Name: "HR_System", DisplayName: "HR v3", SystemType: "HR",
		AuthenticationType: "Kerberos", Version: updated.Version,
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateSystemStaleVersionConflicts(t *testing.T) {
	svc, _ := newTestService(t, stubCounter{})
	ctx := testCtx()

	sys, err := svc.CreateSystem(ctx, CreateSystemRequest{
		Name: "HR_System", DisplayName: "HR", SystemType: "HR",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateSystem(ctx, sys.ID, UpdateSystemRequest{
		Name: "HR_System", DisplayName: "HR v2", SystemType: "HR", Version: sys.Version,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)
	require.NotEqual(t, sys.RowStamp, updated.RowStamp)

	_, err = svc.UpdateSystem(ctx, sys.ID, UpdateSystemRequest{
		Name: "HR_System", DisplayName: "HR v3", SystemType: "HR", Version: sys.Version,
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDeleteSystemBlockedByDefinitions(t *testing.T) {
	svc, _ := newTestService(t, stubCounter{n: 2})
	ctx := testCtx()

	sys, err := svc.CreateSystem(ctx, CreateSystemRequest{
		Name: "HR_System", DisplayName: "HR", SystemType: "HR",
	})
	require.NoError(t, err)

	err = svc.DeleteSystem(ctx, sys.ID)
	require.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

func TestDeleteSystemRemovesFromReads(t *testing.T) {
	svc, _ := newTestService(t, stubCounter{})
	ctx := testCtx()

	sys, err := svc.CreateSystem(ctx, CreateSystemRequest{
		Name: "HR_System", DisplayName: "HR", SystemType: "HR",
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSystem(ctx, sys.ID))

	_, err = svc.GetSystem(ctx, sys.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	result, err := svc.ListSystems(ctx, ListFilter{}, models.PageRequest{})
	require.NoError(t, err)
	require.Zero(t, result.TotalCount)

	err = svc.DeleteSystem(ctx, sys.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "delete is not idempotent")
}

func TestMutationsAreAudited(t *testing.T) {
	db := openTestDB(t)
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(db))
	svc := NewIntegrationService(NewIntegrationRepository(db), stubCounter{}, auditSvc)
	ctx := testCtx()

	sys, err := svc.CreateSystem(ctx, CreateSystemRequest{
		Name: "HR_System", DisplayName: "HR", SystemType: "HR",
	})
	require.NoError(t, err)

	_, err = svc.UpdateSystem(ctx, sys.ID, UpdateSystemRequest{
		Name: "HR_System", DisplayName: "HR v2", SystemType: "HR", Version: 1,
	})
	require.NoError(t, err)

	trail, err := auditSvc.ListByEntity(ctx, EntityType, sys.ID, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), trail.TotalCount)
	require.Equal(t, models.AuditActionUpdate, trail.Items[0].Action, "newest first")
	require.Equal(t, "tester", trail.Items[0].UserID)
}
