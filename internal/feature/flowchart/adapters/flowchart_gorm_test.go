package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flowchart_backend/internal/config"
	"flowchart_backend/internal/feature/flowchart/domain"
	"flowchart_backend/internal/feature/flowchart/domain/entity"
	"flowchart_backend/internal/platform/db"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.Database{
		Driver:         db.DriverSQLite,
		DSN:            "file::memory:",
		AutoMigrate:    true,
		ConnectTimeout: time.Second,
	}, &entity.FlowChart{})
	require.NoError(t, err, "failed to initialize test database")
	return gdb
}

func newChart(owner uuid.UUID, diagram string) *entity.FlowChart {
	return &entity.FlowChart{UserID: owner, AIModel: "Gemini", InputMethod: "Text/README", MermaidString: diagram}
}

func TestFlowChartGorm_CreateAndFind(t *testing.T) {
	t.Parallel()
	repo := NewFlowChartGorm(setupTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	diagram := "graph TD\n  A[\"quoted\"] --> B\n  %% comment"
	f := newChart(owner, diagram)
	require.NoError(t, repo.Create(ctx, f))
	assert.NotEqual(t, uuid.Nil, f.ID)
	assert.False(t, f.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, owner, f.ID)
	require.NoError(t, err)
	assert.Equal(t, diagram, got.MermaidString, "round trip must preserve the diagram exactly")
	assert.Equal(t, owner, got.UserID)

	_, err = repo.FindByID(ctx, uuid.New(), f.ID)
	assert.ErrorIs(t, err, domain.ErrFlowChartNotFound, "other owners cannot read")

	_, err = repo.FindByID(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, domain.ErrFlowChartNotFound)
}

func TestFlowChartGorm_ListByOwner(t *testing.T) {
	t.Parallel()
	repo := NewFlowChartGorm(setupTestDB(t))
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, d := range []string{"first", "second", "third"} {
		f := newChart(u1, d)
		f.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, f))
	}
	require.NoError(t, repo.Create(ctx, newChart(u2, "other")))

	list, err := repo.ListByOwner(ctx, u1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].MermaidString)
	assert.Equal(t, "first", list[2].MermaidString)
	for _, f := range list {
		assert.Equal(t, u1, f.UserID)
	}

	empty, err := repo.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFlowChartGorm_UpdateDiagram(t *testing.T) {
	t.Parallel()
	repo := NewFlowChartGorm(setupTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	f := newChart(owner, "graph TD; A-->B")
	f.InputText = "original"
	require.NoError(t, repo.Create(ctx, f))

	updated, err := repo.UpdateDiagram(ctx, owner, f.ID, "graph LR; X-->Y")
	require.NoError(t, err)
	assert.Equal(t, "graph LR; X-->Y", updated.MermaidString)
	assert.Equal(t, "original", updated.InputText, "only the diagram changes")

	_, err = repo.UpdateDiagram(ctx, uuid.New(), f.ID, "graph stolen")
	assert.ErrorIs(t, err, domain.ErrFlowChartNotFound)

	got, err := repo.FindByID(ctx, owner, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "graph LR; X-->Y", got.MermaidString)
}

func TestFlowChartGorm_Delete(t *testing.T) {
	t.Parallel()
	repo := NewFlowChartGorm(setupTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	f := newChart(owner, "graph TD")
	require.NoError(t, repo.Create(ctx, f))

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New(), f.ID), domain.ErrFlowChartNotFound)
	require.NoError(t, repo.Delete(ctx, owner, f.ID))
	assert.ErrorIs(t, repo.Delete(ctx, owner, f.ID), domain.ErrFlowChartNotFound)

	_, err := repo.FindByID(ctx, owner, f.ID)
	assert.ErrorIs(t, err, domain.ErrFlowChartNotFound)
}
