package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/filter"
	"github.com/mvoronin/taskspace/internal/models"
	"github.com/mvoronin/taskspace/internal/repo"
)

type TodoListHandler struct {
	DB     *gorm.DB
	Q      *repo.Queries
	Gate   *auth.Gate
	Filter filter.Handler
}

func parseID(c echo.Context, param string) (uint, error) {
	raw := c.QueryParam(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("Invalid %s %q.", param, raw)
	}
	return uint(id), nil
}

func (h *TodoListHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username             string `json:"username"`
		WorkspaceDefaultName string `json:"workspace_default_name"`
		TodolistName         string `json:"todolist_name"`
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

	list := models.TodoList{
		WorkspaceID:  ws.WorkspaceID,
		TodolistName: req.TodolistName,
	}
	if err := h.DB.WithContext(ctx).Create(&list).Error; err != nil {
		return err
	}

	return respond(c, http.StatusCreated, list.TodolistID,
		fmt.Sprintf(`Todo list "%s" in workspace "%s" created successfully.`,
			req.TodolistName, req.WorkspaceDefaultName))
}

func (h *TodoListHandler) Rename(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username             string `json:"username"`
		WorkspaceDefaultName string `json:"workspace_default_name"`
		TodolistID           uint   `json:"todolist_id"`
		NewTodolistName      string `json:"new_todolist_name"`
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

	origName := list.TodolistName
	list.TodolistName = req.NewTodolistName
	if err := h.DB.WithContext(ctx).Save(list).Error; err != nil {
		return err
	}

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`User "%s" has changed the name of todolist from "%s" to "%s" in workspace "%s" successfully.`,
			req.Username, origName, req.NewTodolistName, req.WorkspaceDefaultName))
}

// Delete removes a todolist and everything under it.
func (h *TodoListHandler) Delete(c echo.Context) error {
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

	if err := h.Q.DeleteTodoList(ctx, list.TodolistID); err != nil {
		return err
	}

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`User "%s" has deleted todolist "%s" in workspace "%s" successfully.`,
			username, list.TodolistName, workspaceName))
}

// Filterable query params on the todo listing endpoint. Each may repeat;
// repeated filters intersect.
var todoFilterParams = []string{"name", "description", "due_date", "priority", "status"}

// Todos lists the todos of one todolist, refined by "[op]value" filter specs
// and an optional sort_by/order_by pair.
func (h *TodoListHandler) Todos(c echo.Context) error {
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

	if _, err := h.Q.AccountByUsername(ctx, username); err != nil {
		return err
	}
	ws, err := h.Q.WorkspaceByName(ctx, workspaceName)
	if err != nil {
		return err
	}
	list, err := h.Q.TodoListByID(ctx, todolistID)
	if err != nil {
		return err
	}
	if _, err := h.Q.Membership(ctx, username, workspaceName); err != nil {
		return err
	}

	q := h.DB.WithContext(ctx).
		Model(&models.Todo{}).
		Where("workspace_id = ?", ws.WorkspaceID).
		Where("todolist_id = ?", list.TodolistID)

	params := c.QueryParams()
	for _, field := range todoFilterParams {
		for _, spec := range params[field] {
			q, err = h.Filter.Apply(q, field, spec)
			if err != nil {
				return err
			}
		}
	}
	if sortBy := c.QueryParam("sort_by"); sortBy != "" {
		q, err = h.Filter.Sort(q, sortBy, c.QueryParam("order_by"))
		if err != nil {
			return err
		}
	}

	var todos []models.Todo
	if err := q.Find(&todos).Error; err != nil {
		return err
	}

	views := make([]map[string]any, 0, len(todos))
	for i := range todos {
		views = append(views, todoView(&todos[i]))
	}

	return respond(c, http.StatusOK, views,
		fmt.Sprintf(`Get all todos in todolist "%s" in workspace "%s" successfully.`,
			list.TodolistName, workspaceName))
}
