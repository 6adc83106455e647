package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/events"
	"github.com/mvoronin/taskspace/internal/hash"
	"github.com/mvoronin/taskspace/internal/logging"
	"github.com/mvoronin/taskspace/internal/models"
	"github.com/mvoronin/taskspace/internal/repo"
	"github.com/mvoronin/taskspace/internal/tokens"
)

type AuthHandler struct {
	DB       *gorm.DB
	Q        *repo.Queries
	Hasher   hash.Hasher
	Issuer   *tokens.Issuer
	Producer *events.Producer
}

type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Type         string `json:"type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// rotate mints a fresh access/refresh pair and overwrites the account's
// login row. Both login and refresh go through here: last token wins.
func (h *AuthHandler) rotate(ctx context.Context, account *models.Account) (*tokenData, error) {
	accessToken, accessExp, err := h.Issuer.CreateAccessToken(account.Username)
	if err != nil {
		return nil, err
	}

	refreshToken := h.Issuer.NewRefreshToken()
	refreshSalt := hash.NewSalt()
	login := &models.Login{
		UserID:           account.UserID,
		RefreshTokenHash: h.Hasher.Hash(refreshToken, refreshSalt),
		RefreshTokenSalt: refreshSalt,
		ExpiryDate:       h.Issuer.RefreshExpiry(),
	}
	if err := h.Q.UpsertLogin(ctx, account.UserID, login.RefreshTokenHash, login.RefreshTokenSalt, login); err != nil {
		return nil, err
	}

	return &tokenData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Type:         "Bearer",
		ExpiresIn:    accessExp.Unix(),
	}, nil
}

// Login accepts either a username or an email in input_field, decided by
// format sniffing.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req struct {
		InputField string `json:"input_field"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	var (
		account *models.Account
		err     error
	)
	if isEmailFormat(req.InputField) {
		account, err = h.Q.AccountByEmail(ctx, req.InputField)
	} else {
		account, err = h.Q.AccountByUsername(ctx, req.InputField)
	}
	if err != nil {
		l.Warn("login failed", "reason", "unknown account")
		return apperr.InvalidCredentials()
	}
	if !h.Hasher.Verify(req.Password, account.PasswordSalt, account.PasswordHash) {
		l.Warn("login failed", "reason", "bad password", "username", account.Username)
		return apperr.InvalidCredentials()
	}

	data, err := h.rotate(ctx, account)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"user_id":  account.UserID,
		"username": account.Username,
	})

	return respond(c, http.StatusCreated, data, "Login successful.")
}

// Refresh exchanges a valid (username, refresh_token) pair for a fresh
// access/refresh pair. Checks run in a fixed order: account exists, a login
// session exists, the stored expiry has not passed, the token hash matches.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username     string `json:"username"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	account, err := h.Q.AccountByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	login, err := h.Q.LoginByUserID(ctx, account.UserID)
	if err != nil {
		return err
	}
	if login.ExpiryDate.Before(time.Now()) {
		return apperr.TokenExpired()
	}
	if !h.Hasher.Verify(req.RefreshToken, login.RefreshTokenSalt, login.RefreshTokenHash) {
		return apperr.InvalidToken()
	}

	data, err := h.rotate(ctx, account)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, data, "Refreshed access and refresh tokens.")
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["username"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
