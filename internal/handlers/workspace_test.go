package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvoronin/taskspace/internal/models"
)

func TestCreateWorkspace(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	token := env.accessToken(t, "alice")

	payload := map[string]string{
		"username":               "alice",
		"workspace_default_name": "team_rocket",
	}
	rec, c := env.doJSON(t, http.MethodPost, "/api/workspace", payload, token)
	require.NoError(t, env.Workspace.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, `Workspace "team_rocket" created successfully.`, decodeEnvelope(t, rec)["msg"])

	var ws models.WorkSpace
	require.NoError(t, env.DB.Where("workspace_default_name = ?", "team_rocket").First(&ws).Error)
	require.Equal(t, alice.UserID, ws.WorkspaceOwnerID)

	// The creator is already a member.
	var link models.WorkspaceAccountLink
	require.NoError(t, env.DB.Where("user_id = ? AND workspace_id = ?", alice.UserID, ws.WorkspaceID).First(&link).Error)
	require.Nil(t, link.LocaleAlias)

	// Same name again.
	_, c = env.doJSON(t, http.MethodPost, "/api/workspace", payload, token)
	appErr := requireAppErr(t, env.Workspace.Create(c), "DuplicateError", http.StatusConflict)
	require.Equal(t, `Workspace "team_rocket" already exists.`, appErr.Message)
}

func TestInvite(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	bob := env.createAccount(t, "bob", "bob@example.com", "super_secret")
	ws := env.createWorkspace(t, alice, "team_rocket")

	payload := map[string]string{
		"owner_username":         "alice",
		"invitee_username":       "bob",
		"workspace_default_name": "team_rocket",
	}
	rec, c := env.doJSON(t, http.MethodPut, "/api/workspace/invite", payload, env.accessToken(t, "alice"))
	require.NoError(t, env.Workspace.Invite(c))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, `Invited user "bob" to workspace "team_rocket" successfully.`, decodeEnvelope(t, rec)["msg"])

	var link models.WorkspaceAccountLink
	require.NoError(t, env.DB.Where("user_id = ? AND workspace_id = ?", bob.UserID, ws.WorkspaceID).First(&link).Error)

	// Inviting an existing member.
	_, c = env.doJSON(t, http.MethodPut, "/api/workspace/invite", payload, env.accessToken(t, "alice"))
	appErr := requireAppErr(t, env.Workspace.Invite(c), "DuplicateError", http.StatusConflict)
	require.Equal(t, `User "bob" has already joined workspace "team_rocket".`, appErr.Message)
}

func TestInviteOnlyOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	bob := env.createAccount(t, "bob", "bob@example.com", "super_secret")
	env.createAccount(t, "carol", "carol@example.com", "super_secret")
	ws := env.createWorkspace(t, alice, "team_rocket")

	// Bob is a member but not the owner.
	require.NoError(t, env.DB.Create(&models.WorkspaceAccountLink{UserID: bob.UserID, WorkspaceID: ws.WorkspaceID}).Error)

	payload := map[string]string{
		"owner_username":         "bob",
		"invitee_username":       "carol",
		"workspace_default_name": "team_rocket",
	}
	_, c := env.doJSON(t, http.MethodPut, "/api/workspace/invite", payload, env.accessToken(t, "bob"))
	appErr := requireAppErr(t, env.Workspace.Invite(c), "UnauthorizedError", http.StatusUnauthorized)
	require.Equal(t, "Unauthorized action.", appErr.Message)
}

func TestChangeAlias(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	ws := env.createWorkspace(t, alice, "team_rocket")
	token := env.accessToken(t, "alice")

	payload := map[string]string{
		"username":               "alice",
		"workspace_default_name": "team_rocket",
		"new_workspace_alias":    "rockets",
	}
	rec, c := env.doJSON(t, http.MethodPut, "/api/workspace/alias", payload, token)
	require.NoError(t, env.Workspace.ChangeAlias(c))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t,
		`User "alice" has changed the workspace "team_rocket" alias from "null" to "rockets" successfully.`,
		decodeEnvelope(t, rec)["msg"])

	var link models.WorkspaceAccountLink
	require.NoError(t, env.DB.Where("user_id = ? AND workspace_id = ?", alice.UserID, ws.WorkspaceID).First(&link).Error)
	require.NotNil(t, link.LocaleAlias)
	require.Equal(t, "rockets", *link.LocaleAlias)

	// Second change reports the previous alias.
	payload["new_workspace_alias"] = "rockets v2"
	rec, c = env.doJSON(t, http.MethodPut, "/api/workspace/alias", payload, token)
	require.NoError(t, env.Workspace.ChangeAlias(c))
	require.Equal(t,
		`User "alice" has changed the workspace "team_rocket" alias from "rockets" to "rockets v2" successfully.`,
		decodeEnvelope(t, rec)["msg"])
}

func TestMemberLeave(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	bob := env.createAccount(t, "bob", "bob@example.com", "super_secret")
	ws := env.createWorkspace(t, alice, "team_rocket")
	require.NoError(t, env.DB.Create(&models.WorkspaceAccountLink{UserID: bob.UserID, WorkspaceID: ws.WorkspaceID}).Error)

	rec, c := env.doJSON(t, http.MethodDelete,
		"/api/workspace?username=bob&workspace_default_name=team_rocket", nil, env.accessToken(t, "bob"))
	require.NoError(t, env.Workspace.Leave(c))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, `User "bob" has left workspace "team_rocket" successfully.`, decodeEnvelope(t, rec)["msg"])

	// The workspace survives, bob's membership does not.
	var count int64
	require.NoError(t, env.DB.Model(&models.WorkSpace{}).Where("workspace_id = ?", ws.WorkspaceID).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.NoError(t, env.DB.Model(&models.WorkspaceAccountLink{}).
		Where("user_id = ? AND workspace_id = ?", bob.UserID, ws.WorkspaceID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// Leaving twice fails the membership check.
	_, c = env.doJSON(t, http.MethodDelete,
		"/api/workspace?username=bob&workspace_default_name=team_rocket", nil, env.accessToken(t, "bob"))
	appErr := requireAppErr(t, env.Workspace.Leave(c), "NotFoundError", http.StatusNotFound)
	require.Equal(t, `User "bob" has not joined workspace "team_rocket".`, appErr.Message)
}

func TestOwnerLeaveCascades(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	bob := env.createAccount(t, "bob", "bob@example.com", "super_secret")
	ws := env.createWorkspace(t, alice, "team_rocket")
	require.NoError(t, env.DB.Create(&models.WorkspaceAccountLink{UserID: bob.UserID, WorkspaceID: ws.WorkspaceID}).Error)

	list := env.createTodoList(t, ws, "chores")
	env.createTodo(t, list, "laundry", "pending", nil, time.Now().Add(24*time.Hour))
	env.createTodo(t, list, "dishes", "done", strptr("low"), time.Now().Add(48*time.Hour))

	rec, c := env.doJSON(t, http.MethodDelete,
		"/api/workspace?username=alice&workspace_default_name=team_rocket", nil, env.accessToken(t, "alice"))
	require.NoError(t, env.Workspace.Leave(c))
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Everything under the workspace is gone.
	var count int64
	require.NoError(t, env.DB.Model(&models.WorkSpace{}).Where("workspace_id = ?", ws.WorkspaceID).Count(&count).Error)
	require.EqualValues(t, 0, count)
	require.NoError(t, env.DB.Model(&models.TodoList{}).Where("workspace_id = ?", ws.WorkspaceID).Count(&count).Error)
	require.EqualValues(t, 0, count)
	require.NoError(t, env.DB.Model(&models.Todo{}).Where("workspace_id = ?", ws.WorkspaceID).Count(&count).Error)
	require.EqualValues(t, 0, count)
	require.NoError(t, env.DB.Model(&models.WorkspaceAccountLink{}).Where("workspace_id = ?", ws.WorkspaceID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// Accounts are untouched.
	require.NoError(t, env.DB.Model(&models.Account{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestTodolistsTodos(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createAccount(t, "alice", "alice@example.com", "super_secret")
	ws := env.createWorkspace(t, alice, "team_rocket")
	chores := env.createTodoList(t, ws, "chores")
	env.createTodoList(t, ws, "someday")
	env.createTodo(t, chores, "laundry", "pending", nil, time.Now().Add(24*time.Hour))
	env.createTodo(t, chores, "dishes", "done", strptr("low"), time.Now().Add(48*time.Hour))

	rec, c := env.doJSON(t, http.MethodGet,
		"/api/workspace/todolists/todos?username=alice&workspace_default_name=team_rocket", nil, env.accessToken(t, "alice"))
	require.NoError(t, env.Workspace.TodolistsTodos(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.Equal(t, `Get all todolists and corresponding todos in workspace "team_rocket" successfully.`, resp["msg"])
	lists := resp["data"].([]any)
	require.Len(t, lists, 2)

	byName := map[string][]any{}
	for _, raw := range lists {
		entry := raw.(map[string]any)
		byName[entry["todolist_name"].(string)] = entry["todos"].([]any)
	}
	require.Len(t, byName["chores"], 2)
	require.Len(t, byName["someday"], 0)

	first := byName["chores"][0].(map[string]any)
	require.Contains(t, first, "todo_name")
	require.Contains(t, first, "todo_due_date")
	require.Contains(t, first, "todo_priority")

	// Non-member is rejected by the membership check.
	env.createAccount(t, "mallory", "mallory@example.com", "super_secret")
	_, c = env.doJSON(t, http.MethodGet,
		"/api/workspace/todolists/todos?username=mallory&workspace_default_name=team_rocket", nil, env.accessToken(t, "mallory"))
	requireAppErr(t, env.Workspace.TodolistsTodos(c), "NotFoundError", http.StatusNotFound)
}
