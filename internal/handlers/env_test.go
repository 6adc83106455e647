package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/events"
	"github.com/mvoronin/taskspace/internal/filter"
	"github.com/mvoronin/taskspace/internal/hash"
	"github.com/mvoronin/taskspace/internal/models"
	"github.com/mvoronin/taskspace/internal/repo"
	"github.com/mvoronin/taskspace/internal/tokens"
)

type testEnv struct {
	DB     *gorm.DB
	Q      *repo.Queries
	Hasher hash.Hasher
	Issuer *tokens.Issuer
	Gate   *auth.Gate

	User      *UserHandler
	Auth      *AuthHandler
	Workspace *WorkspaceHandler
	TodoList  *TodoListHandler
	Todo      *TodoHandler

	e *echo.Echo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Login{},
		&models.WorkSpace{},
		&models.WorkspaceAccountLink{},
		&models.TodoList{},
		&models.Todo{},
	))

	hasher, err := hash.New("blake2b")
	require.NoError(t, err)
	todoFilter, err := filter.For("Todo")
	require.NoError(t, err)

	issuer := tokens.NewIssuer([]byte("test_secret"), 15*time.Minute, 24*time.Hour)
	gate := auth.NewGate(issuer)
	q := repo.New(db)
	prod := &events.Producer{}

	return &testEnv{
		DB:     db,
		Q:      q,
		Hasher: hasher,
		Issuer: issuer,
		Gate:   gate,

		User:      &UserHandler{DB: db, Q: q, Hasher: hasher, Gate: gate, Producer: prod},
		Auth:      &AuthHandler{DB: db, Q: q, Hasher: hasher, Issuer: issuer, Producer: prod},
		Workspace: &WorkspaceHandler{DB: db, Q: q, Gate: gate, Producer: prod},
		TodoList:  &TodoListHandler{DB: db, Q: q, Gate: gate, Filter: todoFilter},
		Todo:      &TodoHandler{DB: db, Q: q, Gate: gate, Producer: prod},

		e: echo.New(),
	}
}

// doJSON builds an echo context for a request with an optional JSON body and
// an optional bearer token. Query params go in the target string.
func (env *testEnv) doJSON(t *testing.T, method, target string, body any, token string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return rec, env.e.NewContext(req, rec)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// createAccount inserts an account directly, bypassing the handler.
func (env *testEnv) createAccount(t *testing.T, username, email, password string) *models.Account {
	t.Helper()
	salt := hash.NewSalt()
	account := models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: env.Hasher.Hash(password, salt),
		PasswordSalt: salt,
	}
	require.NoError(t, env.DB.Create(&account).Error)
	return &account
}

func (env *testEnv) accessToken(t *testing.T, username string) string {
	t.Helper()
	token, _, err := env.Issuer.CreateAccessToken(username)
	require.NoError(t, err)
	return token
}

// createWorkspace inserts a workspace owned by the account, with the owner's
// membership link, the way the create handler would.
func (env *testEnv) createWorkspace(t *testing.T, owner *models.Account, name string) *models.WorkSpace {
	t.Helper()
	ws := models.WorkSpace{WorkspaceDefaultName: name, WorkspaceOwnerID: owner.UserID}
	require.NoError(t, env.DB.Create(&ws).Error)
	link := models.WorkspaceAccountLink{UserID: owner.UserID, WorkspaceID: ws.WorkspaceID}
	require.NoError(t, env.DB.Create(&link).Error)
	return &ws
}

func (env *testEnv) createTodoList(t *testing.T, ws *models.WorkSpace, name string) *models.TodoList {
	t.Helper()
	list := models.TodoList{WorkspaceID: ws.WorkspaceID, TodolistName: name}
	require.NoError(t, env.DB.Create(&list).Error)
	return &list
}

func (env *testEnv) createTodo(t *testing.T, list *models.TodoList, name, status string, priority *string, due time.Time) *models.Todo {
	t.Helper()
	todo := models.Todo{
		TodolistID:   list.TodolistID,
		WorkspaceID:  list.WorkspaceID,
		Name:         name,
		Description:  name + " description",
		DueDate:      due,
		Status:       status,
		Priority:     priority,
		LastModified: time.Now(),
	}
	require.NoError(t, env.DB.Create(&todo).Error)
	return &todo
}

func strptr(s string) *string { return &s }
