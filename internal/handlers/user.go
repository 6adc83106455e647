package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/events"
	"github.com/mvoronin/taskspace/internal/hash"
	"github.com/mvoronin/taskspace/internal/logging"
	"github.com/mvoronin/taskspace/internal/models"
	"github.com/mvoronin/taskspace/internal/repo"
)

type UserHandler struct {
	DB       *gorm.DB
	Q        *repo.Queries
	Hasher   hash.Hasher
	Gate     *auth.Gate
	Producer *events.Producer
}

func (h *UserHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["username"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *UserHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if strings.TrimSpace(req.Username) == "" {
		return apperr.Validation("Username cannot be empty!")
	}
	if !isEmailFormat(req.Email) {
		return apperr.Validation(`Email "%s" is invalid!`, req.Email)
	}
	if len(req.Password) < 8 {
		return apperr.Validation("Password too short!")
	}

	if _, err := h.Q.AccountByUsername(ctx, req.Username); err == nil {
		return apperr.Duplicate(`Username "%s" already exists.`, req.Username)
	}
	if _, err := h.Q.AccountByEmail(ctx, req.Email); err == nil {
		return apperr.Duplicate(`Email "%s" already exists.`, req.Email)
	}

	salt := hash.NewSalt()
	account := models.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: h.Hasher.Hash(req.Password, salt),
		PasswordSalt: salt,
	}
	if err := h.DB.WithContext(ctx).Create(&account).Error; err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_created",
		"user_id":  account.UserID,
		"username": account.Username,
	})

	return respond(c, http.StatusCreated, account.UserID,
		fmt.Sprintf(`User "%s" created successfully.`, req.Username))
}

func (h *UserHandler) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username    string `json:"username"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if len(req.NewPassword) < 8 {
		return apperr.Validation("Password too short!")
	}

	account, err := h.Q.AccountByUsername(ctx, req.Username)
	if err != nil {
		// Do not reveal whether the account exists.
		return apperr.InvalidCredentials()
	}
	if !h.Hasher.Verify(req.OldPassword, account.PasswordSalt, account.PasswordHash) {
		return apperr.InvalidCredentials()
	}

	salt := hash.NewSalt()
	account.PasswordHash = h.Hasher.Hash(req.NewPassword, salt)
	account.PasswordSalt = salt
	if err := h.DB.WithContext(ctx).Save(account).Error; err != nil {
		return err
	}

	return respond(c, http.StatusOK, nil, "Password updated successfully.")
}

// Workspaces lists every workspace the user has joined, with the member's
// own alias for each.
func (h *UserHandler) Workspaces(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.QueryParam("username")
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", username); err != nil {
		return err
	}

	account, err := h.Q.AccountByUsername(ctx, username)
	if err != nil {
		return err
	}

	type row struct {
		WorkspaceDefaultName string  `json:"workspace_default_name"`
		WorkspaceAlias       *string `json:"workspace_alias"`
	}
	var rows []row
	err = h.DB.WithContext(ctx).
		Model(&models.WorkspaceAccountLink{}).
		Select("work_spaces.workspace_default_name AS workspace_default_name, workspace_account_links.locale_alias AS workspace_alias").
		Joins("JOIN work_spaces ON work_spaces.workspace_id = workspace_account_links.workspace_id").
		Where("workspace_account_links.user_id = ?", account.UserID).
		Scan(&rows).Error
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []row{}
	}

	return respond(c, http.StatusOK, rows,
		fmt.Sprintf(`Get all workspaces joined by "%s" successfully.`, username))
}
