package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/events"
	"github.com/mvoronin/taskspace/internal/logging"
	"github.com/mvoronin/taskspace/internal/models"
	"github.com/mvoronin/taskspace/internal/repo"
)

type WorkspaceHandler struct {
	DB       *gorm.DB
	Q        *repo.Queries
	Gate     *auth.Gate
	Producer *events.Producer
}

func (h *WorkspaceHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Producer.PublishEvent(ctx, "workspace_events", fmt.Sprint(event["workspace_default_name"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *WorkspaceHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username             string `json:"username"`
		WorkspaceDefaultName string `json:"workspace_default_name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", req.Username); err != nil {
		return err
	}

	owner, err := h.Q.AccountByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if _, err := h.Q.WorkspaceByName(ctx, req.WorkspaceDefaultName); err == nil {
		return apperr.Duplicate(`Workspace "%s" already exists.`, req.WorkspaceDefaultName)
	}

	// The creator becomes owner and first member in the same transaction.
	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ws := models.WorkSpace{
			WorkspaceDefaultName: req.WorkspaceDefaultName,
			WorkspaceOwnerID:     owner.UserID,
		}
		if err := tx.Create(&ws).Error; err != nil {
			return err
		}
		link := models.WorkspaceAccountLink{
			UserID:      owner.UserID,
			WorkspaceID: ws.WorkspaceID,
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":                   "workspace_created",
		"workspace_default_name": req.WorkspaceDefaultName,
		"owner":                  req.Username,
	})

	return respond(c, http.StatusCreated, nil,
		fmt.Sprintf(`Workspace "%s" created successfully.`, req.WorkspaceDefaultName))
}

// Invite adds another account as a member. Only the workspace owner may
// invite.
func (h *WorkspaceHandler) Invite(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		OwnerUsername        string `json:"owner_username"`
		InviteeUsername      string `json:"invitee_username"`
		WorkspaceDefaultName string `json:"workspace_default_name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", req.OwnerUsername); err != nil {
		return err
	}

	owner, err := h.Q.AccountByUsername(ctx, req.OwnerUsername)
	if err != nil {
		return err
	}
	ws, err := h.Q.WorkspaceByName(ctx, req.WorkspaceDefaultName)
	if err != nil {
		return err
	}
	invitee, err := h.Q.AccountByUsername(ctx, req.InviteeUsername)
	if err != nil {
		return err
	}
	if ws.WorkspaceOwnerID != owner.UserID {
		return apperr.Unauthorized()
	}
	if _, err := h.Q.Membership(ctx, req.InviteeUsername, req.WorkspaceDefaultName); err == nil {
		return apperr.Duplicate(`User "%s" has already joined workspace "%s".`,
			req.InviteeUsername, req.WorkspaceDefaultName)
	}

	link := models.WorkspaceAccountLink{
		UserID:      invitee.UserID,
		WorkspaceID: ws.WorkspaceID,
	}
	if err := h.DB.WithContext(ctx).Create(&link).Error; err != nil {
		return err
	}

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`Invited user "%s" to workspace "%s" successfully.`,
			req.InviteeUsername, req.WorkspaceDefaultName))
}

// ChangeAlias updates the caller's private display name for a workspace.
func (h *WorkspaceHandler) ChangeAlias(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username             string `json:"username"`
		WorkspaceDefaultName string `json:"workspace_default_name"`
		NewWorkspaceAlias    string `json:"new_workspace_alias"`
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
	link, err := h.Q.Membership(ctx, req.Username, req.WorkspaceDefaultName)
	if err != nil {
		return err
	}

	origAlias := "null"
	if link.LocaleAlias != nil {
		origAlias = *link.LocaleAlias
	}
	err = h.DB.WithContext(ctx).
		Model(&models.WorkspaceAccountLink{}).
		Where("user_id = ? AND workspace_id = ?", link.UserID, link.WorkspaceID).
		Update("locale_alias", req.NewWorkspaceAlias).Error
	if err != nil {
		return err
	}

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`User "%s" has changed the workspace "%s" alias from "%s" to "%s" successfully.`,
			req.Username, req.WorkspaceDefaultName, origAlias, req.NewWorkspaceAlias))
}

// Leave removes the caller from a workspace. When the owner leaves, the
// whole workspace goes with them: todos, todolists and membership links.
func (h *WorkspaceHandler) Leave(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.QueryParam("username")
	workspaceName := c.QueryParam("workspace_default_name")
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", username); err != nil {
		return err
	}

	account, err := h.Q.AccountByUsername(ctx, username)
	if err != nil {
		return err
	}
	ws, err := h.Q.WorkspaceByName(ctx, workspaceName)
	if err != nil {
		return err
	}
	link, err := h.Q.Membership(ctx, username, workspaceName)
	if err != nil {
		return err
	}

	if ws.WorkspaceOwnerID == account.UserID {
		if err := h.Q.DeleteWorkspace(ctx, ws.WorkspaceID); err != nil {
			return err
		}
	} else {
		err := h.DB.WithContext(ctx).
			Where("user_id = ? AND workspace_id = ?", link.UserID, link.WorkspaceID).
			Delete(&models.WorkspaceAccountLink{}).Error
		if err != nil {
			return err
		}
	}

	h.publish(c, map[string]any{
		"type":                   "workspace_left",
		"workspace_default_name": workspaceName,
		"username":               username,
	})

	return respond(c, http.StatusAccepted, nil,
		fmt.Sprintf(`User "%s" has left workspace "%s" successfully.`, username, workspaceName))
}

// TodolistsTodos returns every todolist in a workspace with its todos nested.
func (h *WorkspaceHandler) TodolistsTodos(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.QueryParam("username")
	workspaceName := c.QueryParam("workspace_default_name")
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", username); err != nil {
		return err
	}

	if _, err := h.Q.AccountByUsername(ctx, username); err != nil {
		return err
	}
	ws, err := h.Q.WorkspaceByName(ctx, workspaceName)
	if err != nil {
		return err
	}
	if _, err := h.Q.Membership(ctx, username, workspaceName); err != nil {
		return err
	}

	var lists []models.TodoList
	if err := h.DB.WithContext(ctx).Where("workspace_id = ?", ws.WorkspaceID).Find(&lists).Error; err != nil {
		return err
	}
	var todos []models.Todo
	if err := h.DB.WithContext(ctx).Where("workspace_id = ?", ws.WorkspaceID).Find(&todos).Error; err != nil {
		return err
	}

	todosByList := map[uint][]map[string]any{}
	for i := range todos {
		todosByList[todos[i].TodolistID] = append(todosByList[todos[i].TodolistID], todoView(&todos[i]))
	}

	result := make([]map[string]any, 0, len(lists))
	for _, list := range lists {
		views := todosByList[list.TodolistID]
		if views == nil {
			views = []map[string]any{}
		}
		result = append(result, map[string]any{
			"todolist_id":   list.TodolistID,
			"todolist_name": list.TodolistName,
			"todos":         views,
		})
	}

	return respond(c, http.StatusOK, result,
		fmt.Sprintf(`Get all todolists and corresponding todos in workspace "%s" successfully.`, workspaceName))
}
