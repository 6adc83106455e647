package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/models"
)

func strptr(s string) *string { return &s }

func newFilterTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Todo{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	now := time.Now()
	todos := []models.Todo{
		{TodolistID: 1, WorkspaceID: 1, Name: "buy milk", Description: "2 liters", DueDate: now, Status: "pending", Priority: strptr("high"), LastModified: now},
		{TodolistID: 1, WorkspaceID: 1, Name: "walk dog", Description: "evening", DueDate: now, Status: "done", Priority: strptr("low"), LastModified: now},
		{TodolistID: 1, WorkspaceID: 1, Name: "pay rent", Description: "by friday", DueDate: now, Status: "pending", Priority: nil, LastModified: now},
	}
	require.NoError(t, db.Create(&todos).Error)
	return db
}

func TestApplyEq(t *testing.T) {
	db := newFilterTestDB(t)
	h, err := For("Todo")
	require.NoError(t, err)

	q, err := h.Apply(db.Model(&models.Todo{}), "status", "[eq]pending")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Len(t, todos, 2)
}

func TestApplyEqNull(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	q, err := h.Apply(db.Model(&models.Todo{}), "priority", "[eq]NULL")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Len(t, todos, 1)
	require.Equal(t, "pay rent", todos[0].Name)
}

func TestApplyNeExcludesNull(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	// SQL three-valued logic: rows with NULL priority do not match <>.
	q, err := h.Apply(db.Model(&models.Todo{}), "priority", "[ne]high")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Len(t, todos, 1)
	require.Equal(t, "walk dog", todos[0].Name)
}

func TestApplyNeNull(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	q, err := h.Apply(db.Model(&models.Todo{}), "priority", "[ne]null")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Len(t, todos, 2)
}

func TestApplyCombinedFiltersIntersect(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	q, err := h.Apply(db.Model(&models.Todo{}), "status", "[eq]pending")
	require.NoError(t, err)
	q, err = h.Apply(q, "priority", "[eq]high")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Len(t, todos, 1)
	require.Equal(t, "buy milk", todos[0].Name)
}

func TestApplyRangeOperators(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	q, err := h.Apply(db.Model(&models.Todo{}), "name", "[ge]pay rent")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Len(t, todos, 2) // "pay rent", "walk dog"
}

func TestSort(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	q, err := h.Sort(db.Model(&models.Todo{}), "name", "desc")
	require.NoError(t, err)

	var todos []models.Todo
	require.NoError(t, q.Find(&todos).Error)
	require.Equal(t, "walk dog", todos[0].Name)

	q, err = h.Sort(db.Model(&models.Todo{}), "name", "")
	require.NoError(t, err)
	require.NoError(t, q.Find(&todos).Error)
	require.Equal(t, "buy milk", todos[0].Name)
}

func TestMalformedSpec(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	for _, spec := range []string{"pending", "[xx]pending", "eq]pending", "[eq"} {
		_, err := h.Apply(db.Model(&models.Todo{}), "status", spec)
		var appErr *apperr.Error
		require.True(t, errors.As(err, &appErr), "spec %q", spec)
		require.Equal(t, "ValidationError", appErr.Name)
	}
}

func TestUnknownField(t *testing.T) {
	db := newFilterTestDB(t)
	h, _ := For("Todo")

	_, err := h.Apply(db.Model(&models.Todo{}), "workspace_id", "[eq]1")
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "ValidationError", appErr.Name)

	_, err = h.Sort(db.Model(&models.Todo{}), "todo_id", "asc")
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "ValidationError", appErr.Name)
}

func TestUnknownModel(t *testing.T) {
	_, err := For("Product")
	require.Error(t, err)
}
