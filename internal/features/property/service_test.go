package property

import (
	"context"
	"fmt"
	"testing"
	"time"

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

type stubDefinitions struct{ known map[string]bool }

func (s stubDefinitions) DefinitionExists(ctx context.Context, id string) (bool, error) {
	return s.known[id], nil
}

// propertyValueRow mirrors the columns the delete cascade touches; the
// owning model lives in the instance store.
type propertyValueRow struct {
	ID                   string `gorm:"primaryKey"`
	PropertyDefinitionID string
	IsDeleted            bool
	DeletedAt            *time.Time
	DeletedBy            string
	UpdatedAt            time.Time
	UpdatedBy            string
}

func (propertyValueRow) TableName() string { return "property_values" }

func newTestService(t *testing.T, definitions DefinitionFinder) PropertyService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&PropertyDefinition{}, &propertyValueRow{}, &audit.AuditLog{}))

	wrapped := &database.Database{DB: db}
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(wrapped))
	return NewPropertyService(NewPropertyRepository(wrapped), definitions, auditSvc)
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), models.ActorIDKey, "tester")
}

func TestCreatePropertyRejectsUnknownDataType(t *testing.T) {
	defID := uuid.NewString()
	svc := newTestService(t, stubDefinitions{known: map[string]bool{defID: true}})

	_, err := svc.CreateProperty(testCtx(), CreatePropertyRequest{
		EntityDefinitionID: defID,
		Name:               "Email",
		DisplayName:        "Email",
		DataType:           "Varchar",
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreatePropertyNameUniquePerDefinition(t *testing.T) {
	defA := uuid.NewString()
	defB := uuid.NewString()
	svc := newTestService(t, stubDefinitions{known: map[string]bool{defA: true, defB: true}})
	ctx := testCtx()

	_, err := svc.CreateProperty(ctx, CreatePropertyRequest{
		EntityDefinitionID: defA, Name: "Email", DisplayName: "Email", DataType: DataTypeEmail,
	})
	require.NoError(t, err)

	_, err = svc.CreateProperty(ctx, CreatePropertyRequest{
		EntityDefinitionID: defA, Name: "email", DisplayName: "Mail", DataType: DataTypeString,
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.CreateProperty(ctx, CreatePropertyRequest{
		EntityDefinitionID: defB, Name: "Email", DisplayName: "Email", DataType: DataTypeEmail,
	})
	require.NoError(t, err)
}

func TestCreatePropertyDisplayedAndEditableDefaultTrue(t *testing.T) {
	defID := uuid.NewString()
	svc := newTestService(t, stubDefinitions{known: map[string]bool{defID: true}})

	prop, err := svc.CreateProperty(testCtx(), CreatePropertyRequest{
		EntityDefinitionID: defID, Name: "Email", DisplayName: "Email", DataType: DataTypeEmail,
	})
	require.NoError(t, err)
	require.True(t, prop.IsDisplayed)
	require.True(t, prop.IsEditable)
}

func TestDeletePropertyHidesItFromListing(t *testing.T) {
	defID := uuid.NewString()
	svc := newTestService(t, stubDefinitions{known: map[string]bool{defID: true}})
	ctx := testCtx()

	prop, err := svc.CreateProperty(ctx, CreatePropertyRequest{
		EntityDefinitionID: defID, Name: "Email", DisplayName: "Email", DataType: DataTypeEmail,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProperty(ctx, prop.ID))

	result, err := svc.ListProperties(ctx, ListFilter{EntityDefinitionID: defID}, models.PageRequest{})
	require.NoError(t, err)
	require.Zero(t, result.TotalCount)

	// Name becomes reusable once the holder is gone.
	_, err = svc.CreateProperty(ctx, CreatePropertyRequest{
		EntityDefinitionID: defID, Name: "Email", DisplayName: "Email", DataType: DataTypeEmail,
	})
	require.NoError(t, err)
}
