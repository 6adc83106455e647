package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/models"
)

// Queries wraps the single-result-or-not-found lookups shared by the route
// handlers. Misses surface as domain errors with the exact messages the API
// exposes, anything else is passed through as a database failure.
type Queries struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Queries {
	return &Queries{DB: db}
}

func (q *Queries) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := q.DB.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(`User "%s" not found.`, username)
		}
		return nil, err
	}
	return &account, nil
}

func (q *Queries) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := q.DB.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(`User "%s" not found.`, email)
		}
		return nil, err
	}
	return &account, nil
}

func (q *Queries) WorkspaceByName(ctx context.Context, defaultName string) (*models.WorkSpace, error) {
	var ws models.WorkSpace
	if err := q.DB.WithContext(ctx).Where("workspace_default_name = ?", defaultName).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(`Workspace "%s" not found.`, defaultName)
		}
		return nil, err
	}
	return &ws, nil
}

func (q *Queries) TodoListByID(ctx context.Context, todolistID uint) (*models.TodoList, error) {
	var list models.TodoList
	if err := q.DB.WithContext(ctx).Where("todolist_id = ?", todolistID).First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(`Todo list of id "%d" not found.`, todolistID)
		}
		return nil, err
	}
	return &list, nil
}

func (q *Queries) TodoByID(ctx context.Context, todoID uint) (*models.Todo, error) {
	var todo models.Todo
	if err := q.DB.WithContext(ctx).Where("todo_id = ?", todoID).First(&todo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(`Todo of id "%d" not found.`, todoID)
		}
		return nil, err
	}
	return &todo, nil
}

// Membership fails with the "has not joined" NotFound when the user holds no
// link row for the workspace.
func (q *Queries) Membership(ctx context.Context, username, workspaceDefaultName string) (*models.WorkspaceAccountLink, error) {
	var link models.WorkspaceAccountLink
	err := q.DB.WithContext(ctx).
		Joins("JOIN accounts ON accounts.user_id = workspace_account_links.user_id").
		Joins("JOIN work_spaces ON work_spaces.workspace_id = workspace_account_links.workspace_id").
		Where("accounts.username = ?", username).
		Where("work_spaces.workspace_default_name = ?", workspaceDefaultName).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(`User "%s" has not joined workspace "%s".`, username, workspaceDefaultName)
		}
		return nil, err
	}
	return &link, nil
}

func (q *Queries) LoginByUserID(ctx context.Context, userID uint) (*models.Login, error) {
	var login models.Login
	if err := q.DB.WithContext(ctx).Where("user_id = ?", userID).First(&login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized()
		}
		return nil, err
	}
	return &login, nil
}

// UpsertLogin overwrites the account's single login row: last token wins,
// no history is retained.
func (q *Queries) UpsertLogin(ctx context.Context, userID uint, tokenHash, tokenSalt string, login *models.Login) error {
	db := q.DB.WithContext(ctx)

	var existing models.Login
	err := db.Where("user_id = ?", userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing = models.Login{UserID: userID}
	} else if err != nil {
		return err
	}

	existing.RefreshTokenHash = tokenHash
	existing.RefreshTokenSalt = tokenSalt
	existing.ExpiryDate = login.ExpiryDate
	return db.Save(&existing).Error
}

// DeleteWorkspace removes a workspace with everything it owns, mirroring the
// schema cascade explicitly inside one transaction.
func (q *Queries) DeleteWorkspace(ctx context.Context, workspaceID uint) error {
	return q.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.Todo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.TodoList{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.WorkspaceAccountLink{}).Error; err != nil {
			return err
		}
		return tx.Where("workspace_id = ?", workspaceID).Delete(&models.WorkSpace{}).Error
	})
}

// DeleteTodoList removes a todolist together with its todos.
func (q *Queries) DeleteTodoList(ctx context.Context, todolistID uint) error {
	return q.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("todolist_id = ?", todolistID).Delete(&models.Todo{}).Error; err != nil {
			return err
		}
		return tx.Where("todolist_id = ?", todolistID).Delete(&models.TodoList{}).Error
	})
}
