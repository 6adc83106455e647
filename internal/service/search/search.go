package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/mvoronin/taskspace/internal/models"
)

// TodoDoc is the slice of a todo kept in the search index.
type TodoDoc struct {
	TodoID      uint    `json:"todo_id"`
	TodolistID  uint    `json:"todolist_id"`
	WorkspaceID uint    `json:"workspace_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    *string `json:"priority"`
}

func docFromTodo(todo *models.Todo) TodoDoc {
	return TodoDoc{
		TodoID:      todo.TodoID,
		TodolistID:  todo.TodolistID,
		WorkspaceID: todo.WorkspaceID,
		Name:        todo.Name,
		Description: todo.Description,
		Status:      todo.Status,
		Priority:    todo.Priority,
	}
}

// Index upserts a todo document. Callers treat failures as best-effort: the
// index lags the database, it never gates a write.
func Index(ctx context.Context, esc *elasticsearch.Client, index string, todo *models.Todo) error {
	data, err := json.Marshal(docFromTodo(todo))
	if err != nil {
		return err
	}

	res, err := esc.Index(
		index,
		bytes.NewReader(data),
		esc.Index.WithDocumentID(strconv.FormatUint(uint64(todo.TodoID), 10)),
		esc.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

func Delete(ctx context.Context, esc *elasticsearch.Client, index string, todoID uint) error {
	res, err := esc.Delete(
		index,
		strconv.FormatUint(uint64(todoID), 10),
		esc.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

type searchHit struct {
	Source TodoDoc `json:"_source"`
}

// Search runs a fuzzy multi_match over name and description, scoped to one
// workspace.
func Search(ctx context.Context, esc *elasticsearch.Client, index, query string, workspaceID uint, from, size int) (int64, []TodoDoc, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"workspace_id": workspaceID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := esc.Search(
		esc.Search.WithContext(ctx),
		esc.Search.WithIndex(index),
		esc.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []searchHit           `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]TodoDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
