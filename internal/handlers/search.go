package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/auth"
	"github.com/mvoronin/taskspace/internal/repo"
	"github.com/mvoronin/taskspace/internal/service/search"
	"github.com/mvoronin/taskspace/internal/util"
)

type SearchHandler struct {
	Q     *repo.Queries
	Gate  *auth.Gate
	ES    *elasticsearch.Client
	Index string
}

// Todos searches the caller's workspace by free text, backed by the
// Elasticsearch mirror of the todo table.
func (h *SearchHandler) Todos(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.QueryParam("username")
	workspaceName := c.QueryParam("workspace_default_name")
	if err := h.Gate.Check(c.Request().Header.Get(echo.HeaderAuthorization), "username", username); err != nil {
		return err
	}

	q := c.QueryParam("q")
	if q == "" {
		return apperr.Validation("Query parameter %q is required.", "q")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Search is not available.")
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

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	total, docs, err := search.Search(ctx, h.ES, h.Index, q, ws.WorkspaceID, from, limit)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, map[string]any{"total": total, "todos": docs},
		fmt.Sprintf(`Search todos in workspace "%s" successfully.`, workspaceName))
}
