package instance

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"go-iam/internal/common/apperr"
	"go-iam/internal/common/models"
	"go-iam/internal/database"
	"go-iam/internal/features/assignment"
	"go-iam/internal/features/audit"
	"go-iam/internal/features/property"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type allDefinitions struct{}

func (allDefinitions) DefinitionExists(ctx context.Context, id string) (bool, error) {
	return true, nil
}

type testEnv struct {
	svc         InstanceService
	props       property.PropertyRepository
	assignments assignment.AssignmentRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&EntityInstance{},
		&PropertyValue{},
		&property.PropertyDefinition{},
		&assignment.AccessAssignment{},
		&audit.AuditLog{},
	))

	wrapped := &database.Database{DB: db}
	props := property.NewPropertyRepository(wrapped)
	assignments := assignment.NewAssignmentRepository(wrapped)
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(wrapped))
	svc := NewInstanceService(NewInstanceRepository(wrapped), allDefinitions{}, props, assignments, auditSvc)
	return &testEnv{svc: svc, props: props, assignments: assignments}
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), models.ActorIDKey, "tester")
}

func (e *testEnv) seedProperty(t *testing.T, defID, name string, required bool, defaultValue string) *property.PropertyDefinition {
	t.Helper()
	prop := &property.PropertyDefinition{
		EntityDefinitionID: defID,
		Name:               name,
		DisplayName:        name,
		DataType:           property.DataTypeString,
		IsRequired:         required,
		IsDisplayed:        true,
		DefaultValue:       defaultValue,
	}
	prop.StampCreate("seed")
	require.NoError(t, e.props.Create(testCtx(), prop))
	return prop
}

func TestCreateInstanceFillsRequiredDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()
	email := env.seedProperty(t, defID, "Email", true, "")
	dept := env.seedProperty(t, defID, "Department", true, "General")

	inst, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID,
		ExternalID:         "EMP001",
		DisplayName:        "Ada Lovelace",
		PropertyValues: []PropertyValueInput{
			{PropertyDefinitionID: email.ID, Value: "ada@example.com"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.SyncStatusSuccess, inst.SyncStatus)
	require.NotNil(t, inst.LastSyncedAt)
	require.Len(t, inst.PropertyValues, 2)

	byProp := map[string]PropertyValueDTO{}
	for _, v := range inst.PropertyValues {
		byProp[v.PropertyDefinitionID] = v
	}
	require.Equal(t, "ada@example.com", byProp[email.ID].Value)
	require.False(t, byProp[email.ID].IsDefault)
	require.Equal(t, "Email", byProp[email.ID].PropertyDefinitionName)
	require.Equal(t, property.DataTypeString, byProp[email.ID].PropertyDataType)
	require.Equal(t, "General", byProp[dept.ID].Value)
	require.True(t, byProp[dept.ID].IsDefault)
}

func TestCreateInstanceMissingRequiredValue(t *testing.T) {
	env := newTestEnv(t)
	defID := uuid.NewString()
	env.seedProperty(t, defID, "Email", true, "")

	_, err := env.svc.CreateInstance(testCtx(), CreateInstanceRequest{
		EntityDefinitionID: defID,
		ExternalID:         "EMP001",
		DisplayName:        "Ada Lovelace",
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateInstanceRejectsForeignProperty(t *testing.T) {
	env := newTestEnv(t)
	defID := uuid.NewString()
	otherDef := uuid.NewString()
	foreign := env.seedProperty(t, otherDef, "Email", false, "")

	_, err := env.svc.CreateInstance(testCtx(), CreateInstanceRequest{
		EntityDefinitionID: defID,
		ExternalID:         "EMP001",
		DisplayName:        "Ada Lovelace",
		PropertyValues: []PropertyValueInput{
			{PropertyDefinitionID: foreign.ID, Value: "ada@example.com"},
		},
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateInstanceDuplicateExternalID(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()

	_, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID, ExternalID: "EMP001", DisplayName: "Ada",
	})
	require.NoError(t, err)

	_, err = env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID, ExternalID: "emp001", DisplayName: "Ada again",
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// The same external id under another definition does not collide.
	_, err = env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: uuid.NewString(), ExternalID: "EMP001", DisplayName: "Ada",
	})
	require.NoError(t, err)
}

func TestUpdateInstanceReplacesValueSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()
	email := env.seedProperty(t, defID, "Email", false, "")
	phone := env.seedProperty(t, defID, "Phone", false, "")
	title := env.seedProperty(t, defID, "Title", false, "")

	inst, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID,
		ExternalID:         "EMP001",
		DisplayName:        "Ada Lovelace",
		PropertyValues: []PropertyValueInput{
			{PropertyDefinitionID: email.ID, Value: "ada@example.com"},
			{PropertyDefinitionID: phone.ID, Value: "555-0100"},
		},
	})
	require.NoError(t, err)

	var emailValueID string
	for _, v := range inst.PropertyValues {
		if v.PropertyDefinitionID == email.ID {
			emailValueID = v.ID
		}
	}
	require.NotEmpty(t, emailValueID)

	// Keep email (changed), drop phone, add title.
	updated, err := env.svc.UpdateInstance(ctx, inst.ID, UpdateInstanceRequest{
		ExternalID:  "EMP001",
		DisplayName: "Ada King",
		PropertyValues: []PropertyValueInput{
			{ID: &emailValueID, PropertyDefinitionID: email.ID, Value: "countess@example.com"},
			{PropertyDefinitionID: title.ID, Value: "Countess"},
		},
		Version: inst.Version,
	})
	require.NoError(t, err)
	require.Equal(t, "Ada King", updated.DisplayName)
	require.Equal(t, inst.Version+1, updated.Version)
	require.Len(t, updated.PropertyValues, 2)

	byProp := map[string]PropertyValueDTO{}
	for _, v := range updated.PropertyValues {
		byProp[v.PropertyDefinitionID] = v
	}
	require.Equal(t, "countess@example.com", byProp[email.ID].Value)
	require.Equal(t, emailValueID, byProp[email.ID].ID, "kept value retains its id")
	require.Equal(t, "Countess", byProp[title.ID].Value)
	_, phoneKept := byProp[phone.ID]
	require.False(t, phoneKept, "omitted value is removed")
}

func TestUpdateInstanceValueCannotChangeProperty(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()
	email := env.seedProperty(t, defID, "Email", false, "")
	phone := env.seedProperty(t, defID, "Phone", false, "")

	inst, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID,
		ExternalID:         "EMP001",
		DisplayName:        "Ada Lovelace",
		PropertyValues: []PropertyValueInput{
			{PropertyDefinitionID: email.ID, Value: "ada@example.com"},
		},
	})
	require.NoError(t, err)
	emailValueID := inst.PropertyValues[0].ID

	// Repointing the stored email value at Phone while inserting a new
	// Email value would leave two live values on one property.
	_, err = env.svc.UpdateInstance(ctx, inst.ID, UpdateInstanceRequest{
		ExternalID:  "EMP001",
		DisplayName: "Ada Lovelace",
		PropertyValues: []PropertyValueInput{
			{ID: &emailValueID, PropertyDefinitionID: phone.ID, Value: "555-0100"},
			{PropertyDefinitionID: email.ID, Value: "countess@example.com"},
		},
		Version: inst.Version,
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	fetched, err := env.svc.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, fetched.PropertyValues, 1, "rejected update changes nothing")
	require.Equal(t, email.ID, fetched.PropertyValues[0].PropertyDefinitionID)
	require.Equal(t, "ada@example.com", fetched.PropertyValues[0].Value)
}

func TestUpdateInstanceStaleVersionConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()

	inst, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID, ExternalID: "EMP001", DisplayName: "Ada",
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateInstance(ctx, inst.ID, UpdateInstanceRequest{
		ExternalID: "EMP001", DisplayName: "Ada v2", Version: inst.Version,
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateInstance(ctx, inst.ID, UpdateInstanceRequest{
		ExternalID: "EMP001", DisplayName: "Ada v3", Version: inst.Version,
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDeleteInstanceBlockedWhileAssigned(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()

	inst, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID, ExternalID: "EMP001", DisplayName: "Ada",
	})
	require.NoError(t, err)

	grant := &assignment.AccessAssignment{
		UserInstanceID: inst.ID,
		RoleInstanceID: uuid.NewString(),
		TargetSystemID: uuid.NewString(),
		AssignmentType: assignment.AssignmentDirect,
		IsActive:       true,
	}
	grant.StampCreate("tester")
	require.NoError(t, env.assignments.Create(ctx, grant))

	err = env.svc.DeleteInstance(ctx, inst.ID)
	require.Equal(t, apperr.KindDependency, apperr.KindOf(err))

	grant.StampDelete("tester")
	require.NoError(t, env.assignments.SoftDelete(ctx, grant))

	require.NoError(t, env.svc.DeleteInstance(ctx, inst.ID))

	_, err = env.svc.GetInstance(ctx, inst.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	result, err := env.svc.ListInstances(ctx, ListFilter{EntityDefinitionID: defID}, models.PageRequest{})
	require.NoError(t, err)
	require.Zero(t, result.TotalCount)
}

func TestListInstancesPaginates(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()

	for i := 1; i <= 25; i++ {
		_, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
			EntityDefinitionID: defID,
			ExternalID:         fmt.Sprintf("EMP%03d", i),
			DisplayName:        fmt.Sprintf("User %02d", i),
		})
		require.NoError(t, err)
	}

	result, err := env.svc.ListInstances(ctx,
		ListFilter{EntityDefinitionID: defID},
		models.PageRequest{PageNumber: 2, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(25), result.TotalCount)
	require.Equal(t, 2, result.PageNumber)
	require.Len(t, result.Items, 10)
	require.Equal(t, "User 11", result.Items[0].DisplayName)
	require.Equal(t, "User 20", result.Items[9].DisplayName)
}

func TestExportInstancesBuildsWorkbook(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx()
	defID := uuid.NewString()
	email := env.seedProperty(t, defID, "Email", false, "")

	_, err := env.svc.CreateInstance(ctx, CreateInstanceRequest{
		EntityDefinitionID: defID,
		ExternalID:         "EMP001",
		DisplayName:        "Ada Lovelace",
		PropertyValues: []PropertyValueInput{
			{PropertyDefinitionID: email.ID, Value: "ada@example.com"},
		},
	})
	require.NoError(t, err)

	_, _, err = env.svc.ExportInstances(ctx, ListFilter{})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err), "definition filter is mandatory")

	data, name, err := env.svc.ExportInstances(ctx, ListFilter{EntityDefinitionID: defID})
	require.NoError(t, err)
	require.Contains(t, name, ".xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"External ID", "Display Name", "Active", "Sync Status", "Email"}, rows[0])
	require.Equal(t, "EMP001", rows[1][0])
	require.Equal(t, "ada@example.com", rows[1][4])
}
