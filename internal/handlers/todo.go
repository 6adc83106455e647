package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/events"
	"github.com/mvoronin/taskspace/internal/logging"
	"github.com/mvoronin/taskspace/internal/models"
	"github.com/mvoronin/taskspace/internal/repo"
	"github.com/mvoronin/taskspace/internal/service/search"
)

type TodoHandler struct {
	DB       *gorm.DB
	Q        *repo.Queries
	Gate     *auth.Gate
	Producer *events.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

func todoView(todo *models.Todo) map[string]any {
	var priority any
	if todo.Priority != nil {
		priority = *todo.Priority
	}
	return map[string]any{
		"todo_id":            todo.TodoID,
		"todo_name":          todo.Name,
		"todo_description":   todo.Description,
		"todo_due_date":      todo.DueDate.Format(time.RFC3339),
		"todo_priority":      priority,
		"todo_status":        todo.Status,
		"todo_last_modified": todo.LastModified.Format(time.RFC3339),
	}
}

func (h *TodoHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Producer.PublishEvent(ctx, "todo_events", fmt.Sprint(event["todo_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

// index mirrors the todo into Elasticsearch. Best-effort: a stale index is
// acceptable, a failed request is not.
func (h *TodoHandler) index(c echo.Context, todo *models.Todo) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := search.Index(ctx, h.ES, h.ESIndex, todo); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "error", err, "todo_id", todo.TodoID)
	}
}

func (h *TodoHandler) unindex(c echo.Context, todoID uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := search.Delete(ctx, h.ES, h.ESIndex, todoID); err != nil {
		logging.FromContext(c.Request().Context()).Error("es delete error", "error", err, "todo_id", todoID)
	}
}

func (h *TodoHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username             string    `json:"username"`
		WorkspaceDefaultName string    `json:"workspace_default_name"`
		TodolistID           uint      `json:"todolist_id"`
		TodoName             string    `json:"todo_name"`
		TodoDescription      string    `json:"todo_description"`
		TodoDueDate          time.Time `json:"todo_due_date"`
		TodoStatus           string    `json:"todo_status"`
		TodoPriority         *string   `json:"todo_priority"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", req.Username); err != nil {
		return err
	}

	if _, err := h.Q.AccountByUsername(ctx, req.Username); err != nil {
		return err
	}
	ws, err := h.Q.WorkspaceByName(ctx, req.WorkspaceDefaultName)
	if err != nil {
		return err
	}
	if _, err := h.Q.Membership(ctx, req.Username, req.WorkspaceDefaultName); err != nil {
		return err
	}
	list, err := h.Q.TodoListByID(ctx, req.TodolistID)
	if err != nil {
		return err
	}

	// Workspace is denormalized from the todolist, never trusted from input.
	todo := models.Todo{
		TodolistID:   list.TodolistID,
		WorkspaceID:  ws.WorkspaceID,
		Name:         req.TodoName,
		Description:  req.TodoDescription,
		DueDate:      req.TodoDueDate,
		Status:       req.TodoStatus,
		Priority:     req.TodoPriority,
		LastModified: time.Now(),
	}
	if err := h.DB.WithContext(ctx).Create(&todo).Error; err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":    "todo_created",
		"todo_id": todo.TodoID,
		"name":    todo.Name,
	})
	h.index(c, &todo)

	return respond(c, http.StatusCreated, todo.TodoID,
		fmt.Sprintf(`Todo "%s" in todo list "%s" in workspace "%s" created successfully.`,
			req.TodoName, list.TodolistName, ws.WorkspaceDefaultName))
}

// Change applies a partial update; last_modified moves only when something
// actually changed.
func (h *TodoHandler) Change(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username             string     `json:"username"`
		WorkspaceDefaultName string     `json:"workspace_default_name"`
		TodolistID           uint       `json:"todolist_id"`
		TodoID               uint       `json:"todo_id"`
		TodoName             string     `json:"todo_name"`
		TodoDescription      string     `json:"todo_description"`
		TodoDueDate          *time.Time `json:"todo_due_date"`
		TodoStatus           string     `json:"todo_status"`
		TodoPriority         *string    `json:"todo_priority"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", req.Username); err != nil {
		return err
	}

	if _, err := h.Q.AccountByUsername(ctx, req.Username); err != nil {
		return err
	}
	if _, err := h.Q.WorkspaceByName(ctx, req.WorkspaceDefaultName); err != nil {
		return err
	}
	if _, err := h.Q.Membership(ctx, req.Username, req.WorkspaceDefaultName); err != nil {
		return err
	}
	list, err := h.Q.TodoListByID(ctx, req.TodolistID)
	if err != nil {
		return err
	}
	todo, err := h.Q.TodoByID(ctx, req.TodoID)
	if err != nil {
		return err
	}

	origName := todo.Name
	changed := false
	if req.TodoName != "" {
		changed = true
		todo.Name = req.TodoName
	}
	if req.TodoDescription != "" {
		changed = true
		todo.Description = req.TodoDescription
	}
	if req.TodoDueDate != nil {
		changed = true
		todo.DueDate = *req.TodoDueDate
	}
	if req.TodoPriority != nil {
		changed = true
		todo.Priority = req.TodoPriority
	}
	if req.TodoStatus != "" {
		changed = true
		todo.Status = req.TodoStatus
	}
	if changed {
		todo.LastModified = time.Now()
		if err := h.DB.WithContext(ctx).Save(todo).Error; err != nil {
			return err
		}
		h.publish(c, map[string]any{
			"type":    "todo_updated",
			"todo_id": todo.TodoID,
			"name":    todo.Name,
		})
		h.index(c, todo)
	}

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`Content of todo "%s" has been modified in todo list "%s" in workspace "%s" successfully.`,
			origName, list.TodolistName, req.WorkspaceDefaultName))
}

func (h *TodoHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.QueryParam("username")
	workspaceName := c.QueryParam("workspace_default_name")
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", username); err != nil {
		return err
	}
	todolistID, err := parseID(c, "todolist_id")
	if err != nil {
		return err
	}
	todoID, err := parseID(c, "todo_id")
	if err != nil {
		return err
	}

	if _, err := h.Q.AccountByUsername(ctx, username); err != nil {
		return err
	}
	if _, err := h.Q.WorkspaceByName(ctx, workspaceName); err != nil {
		return err
	}
	if _, err := h.Q.Membership(ctx, username, workspaceName); err != nil {
		return err
	}
	list, err := h.Q.TodoListByID(ctx, todolistID)
	if err != nil {
		return err
	}
	todo, err := h.Q.TodoByID(ctx, todoID)
	if err != nil {
		return err
	}

	origName := todo.Name
	if err := h.DB.WithContext(ctx).Delete(todo).Error; err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":    "todo_deleted",
		"todo_id": todoID,
		"name":    origName,
	})
	h.unindex(c, todoID)

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`Todo "%s" has been deleted in todo list "%s" in workspace "%s" successfully.`,
			origName, list.TodolistName, workspaceName))
}
