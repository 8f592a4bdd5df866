package definition

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

type stubSystems struct{ known map[string]bool }

func (s stubSystems) SystemExists(ctx context.Context, id string) (bool, error) {
	return s.known[id], nil
}

func newTestService(t *testing.T, systems SystemFinder) DefinitionService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&EntityDefinition{}, &audit.AuditLog{}))

	wrapped := &database.Database{DB: db}
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(wrapped))
	return NewDefinitionService(NewDefinitionRepository(wrapped), systems, auditSvc)
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), models.ActorIDKey, "tester")
}

func TestCreateDefinitionUnknownSystem(t *testing.T) {
	svc := newTestService(t, stubSystems{})

	_, err := svc.CreateDefinition(testCtx(), CreateDefinitionRequest{
		IntegrationSystemID: uuid.NewString(),
		Name:                "User",
		DisplayName:         "User",
	})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDefinitionNameUniquePerSystem(t *testing.T) {
	systemA := uuid.NewString()
	systemB := uuid.NewString()
	svc := newTestService(t, stubSystems{known: map[string]bool{systemA: true, systemB: true}})
	ctx := testCtx()

	_, err := svc.CreateDefinition(ctx, CreateDefinitionRequest{
		IntegrationSystemID: systemA, Name: "User", DisplayName: "User",
	})
	require.NoError(t, err)

	_, err = svc.CreateDefinition(ctx, CreateDefinitionRequest{
		IntegrationSystemID: systemA, Name: "user", DisplayName: "User again",
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Same name under a different system is fine.
	_, err = svc.CreateDefinition(ctx, CreateDefinitionRequest{
		IntegrationSystemID: systemB, Name: "User", DisplayName: "User",
	})
	require.NoError(t, err)
}

func TestListDefinitionsFiltersAndOrders(t *testing.T) {
	systemID := uuid.NewString()
	svc := newTestService(t, stubSystems{known: map[string]bool{systemID: true}})
	ctx := testCtx()

	for i, name := range []string{"Role", "User", "Department"} {
		_, err := svc.CreateDefinition(ctx, CreateDefinitionRequest{
			IntegrationSystemID: systemID,
			Name:                name,
			DisplayName:         name,
			SortOrder:           3 - i,
		})
		require.NoError(t, err)
	}

	result, err := svc.ListDefinitions(ctx, ListFilter{IntegrationSystemID: systemID}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.TotalCount)
	require.Equal(t, "Department", result.Items[0].Name, "sort_order ascending")
	require.Equal(t, "Role", result.Items[2].Name)

	result, err = svc.ListDefinitions(ctx, ListFilter{Search: "dep"}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.TotalCount)
}

func TestUpdateDefinitionStaleVersionConflicts(t *testing.T) {
	systemID := uuid.NewString()
	svc := newTestService(t, stubSystems{known: map[string]bool{systemID: true}})
	ctx := testCtx()

	def, err := svc.CreateDefinition(ctx, CreateDefinitionRequest{
		IntegrationSystemID: systemID, Name: "User", DisplayName: "User",
	})
	require.NoError(t, err)

	_, err = svc.UpdateDefinition(ctx, def.ID, UpdateDefinitionRequest{
		Name: "User", DisplayName: "Person", Version: def.Version,
	})
	require.NoError(t, err)

	_, err = svc.UpdateDefinition(ctx, def.ID, UpdateDefinitionRequest{
		Name: "User", DisplayName: "Someone else", Version: def.Version,
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
