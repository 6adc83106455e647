package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/handlers"
)

type Deps struct {
	UserHandler      *handlers.UserHandler
	AuthHandler      *handlers.AuthHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	TodoListHandler  *handlers.TodoListHandler
	TodoHandler      *handlers.TodoHandler
	SearchHandler    *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	api := e.Group("/api")

	api.GET("/healthcheck", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handlers.Envelope{Msg: "OK"})
	})

	api.POST("/user", d.UserHandler.Create)
	api.PUT("/user/password", d.UserHandler.UpdatePassword)
	api.GET("/user/workspace", d.UserHandler.Workspaces)

	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)

	api.POST("/workspace", d.WorkspaceHandler.Create)
	api.PUT("/workspace/invite", d.WorkspaceHandler.Invite)
	api.PUT("/workspace/alias", d.WorkspaceHandler.ChangeAlias)
	api.DELETE("/workspace", d.WorkspaceHandler.Leave)
	api.GET("/workspace/todolists/todos", d.WorkspaceHandler.TodolistsTodos)

	api.POST("/todolist", d.TodoListHandler.Create)
	api.PUT("/todolist", d.TodoListHandler.Rename)
	api.DELETE("/todolist", d.TodoListHandler.Delete)
	api.GET("/todolist/todos", d.TodoListHandler.Todos)

	api.POST("/todo", d.TodoHandler.Create)
	api.PUT("/todo", d.TodoHandler.Change)
	api.DELETE("/todo", d.TodoHandler.Delete)

	api.GET("/search/todos", d.SearchHandler.Todos)
}

// ErrorHandler maps domain errors onto status codes and the response
// envelope. Anything unrecognized becomes a 500 with the error string
// exposed to the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		_ = c.JSON(appErr.Status, handlers.Envelope{Error: appErr.Name, ErrorMsg: appErr.Message})
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		name := "InternalServerError"
		if httpErr.Code < http.StatusInternalServerError {
			name = "ValidationError"
		}
		_ = c.JSON(httpErr.Code, handlers.Envelope{Error: name, ErrorMsg: fmt.Sprintf("%v", httpErr.Message)})
		return
	}

	_ = c.JSON(http.StatusInternalServerError, handlers.Envelope{Error: "InternalServerError", ErrorMsg: err.Error()})
}
