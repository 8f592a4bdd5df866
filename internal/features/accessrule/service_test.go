package accessrule

import (
	"context"
	"encoding/json"
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

func newTestService(t *testing.T, systems SystemFinder) RuleService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&AccessRule{}, &audit.AuditLog{}))

	wrapped := &database.Database{DB: db}
	auditSvc := audit.NewAuditService(audit.NewAuditRepository(wrapped))
	return NewRuleService(NewRuleRepository(wrapped), systems, auditSvc)
}

func testCtx() context.Context {
	return context.WithValue(context.Background(), models.ActorIDKey, "tester")
}

func TestCreateRuleValidatesEnums(t *testing.T) {
	svc := newTestService(t, stubSystems{})

	_, err := svc.CreateRule(testCtx(), CreateRuleRequest{
		Name:        "auto-assign-nurse",
		TriggerType: "OnLogin",
		ActionType:  ActionAssignRole,
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateRule(testCtx(), CreateRuleRequest{
		Name:        "auto-assign-nurse",
		TriggerType: TriggerOnSync,
		ActionType:  "GrantAll",
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateRuleChecksSystemReference(t *testing.T) {
	systemID := uuid.NewString()
	svc := newTestService(t, stubSystems{known: map[string]bool{systemID: true}})
	ctx := testCtx()

	_, err := svc.CreateRule(ctx, CreateRuleRequest{
		Name:                "auto-assign-nurse",
		IntegrationSystemID: uuid.NewString(),
		TriggerType:         TriggerOnSync,
		ActionType:          ActionAssignRole,
	})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	rule, err := svc.CreateRule(ctx, CreateRuleRequest{
		Name:                "auto-assign-nurse",
		IntegrationSystemID: systemID,
		TriggerType:         TriggerOnSync,
		ActionType:          ActionAssignRole,
		Condition:           json.RawMessage(`{"field":"Department","equals":"Nursing"}`),
	})
	require.NoError(t, err)
	require.True(t, rule.IsActive)

	// A rule without a system scope is global and needs no lookup.
	_, err = svc.CreateRule(ctx, CreateRuleRequest{
		Name:        "notify-admin",
		TriggerType: TriggerManual,
		ActionType:  ActionNotifyAdmin,
	})
	require.NoError(t, err)
}

func TestListRulesOrdersByPriority(t *testing.T) {
	svc := newTestService(t, stubSystems{})
	ctx := testCtx()

	for name, priority := range map[string]int{"low": 30, "high": 1, "mid": 10} {
		_, err := svc.CreateRule(ctx, CreateRuleRequest{
			Name:        name,
			TriggerType: TriggerOnSync,
			ActionType:  ActionAssignRole,
			Priority:    priority,
		})
		require.NoError(t, err)
	}

	result, err := svc.ListRules(ctx, ListFilter{}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.TotalCount)
	require.Equal(t, "high", result.Items[0].Name)
	require.Equal(t, "low", result.Items[2].Name)
}

func TestUpdateRuleStaleVersionConflicts(t *testing.T) {
	svc := newTestService(t, stubSystems{})
	ctx := testCtx()

	rule, err := svc.CreateRule(ctx, CreateRuleRequest{
		Name:        "auto-assign-nurse",
		TriggerType: TriggerOnSync,
		ActionType:  ActionAssignRole,
	})
	require.NoError(t, err)

	_, err = svc.UpdateRule(ctx, rule.ID, UpdateRuleRequest{
		Name:        "auto-assign-nurse",
		TriggerType: TriggerOnCreate,
		ActionType:  ActionAssignRole,
		Version:     rule.Version,
	})
	require.NoError(t, err)

	_, err = svc.UpdateRule(ctx, rule.ID, UpdateRuleRequest{
		Name:        "auto-assign-nurse",
		TriggerType: TriggerOnDelete,
		ActionType:  ActionAssignRole,
		Version:     rule.Version,
	})
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
