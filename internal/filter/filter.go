package filter

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/mvoronin/taskspace/internal/apperr"
)

// Filter specs look like "[op]value": a bracketed comparator code followed by
// the raw value. The literal value "null" (any case) means the database NULL.
var specPattern = regexp.MustCompile(`^\[(eq|gt|lt|ge|le|ne)\](.*)$`)

var sqlOps = map[string]string{
	"eq": "=",
	"ne": "<>",
	"gt": ">",
	"lt": "<",
	"ge": ">=",
	"le": "<=",
}

// Handler refines a gorm query with parsed filter specs and sort directives.
// It is a pure one-shot pipeline: each Apply threads the query through one
// predicate, repeated applications intersect.
type Handler interface {
	Apply(q *gorm.DB, field, spec string) (*gorm.DB, error)
	Sort(q *gorm.DB, field, direction string) (*gorm.DB, error)
}

// For resolves the filter handler for a model name. The set is closed and
// resolved once at construction time.
func For(model string) (Handler, error) {
	switch model {
	case "Todo":
		return todoHandler{}, nil
	default:
		return nil, fmt.Errorf("filter: model %q is not supported", model)
	}
}

type todoHandler struct{}

// Filterable and sortable todo columns. Field names arriving from the query
// string are only ever used through this whitelist.
var todoColumns = map[string]string{
	"name":        "name",
	"description": "description",
	"due_date":    "due_date",
	"status":      "status",
	"priority":    "priority",
}

func (todoHandler) Apply(q *gorm.DB, field, spec string) (*gorm.DB, error) {
	column, ok := todoColumns[field]
	if !ok {
		return nil, apperr.Validation("Unknown filter field %q.", field)
	}

	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, apperr.Validation("Invalid filter pattern %q.", spec)
	}
	op, value := sqlOps[m[1]], m[2]

	if strings.EqualFold(value, "null") {
		// SQL three-valued logic is preserved: only eq and ne get the
		// IS NULL forms, the ordering operators compare against NULL
		// and match nothing.
		switch m[1] {
		case "eq":
			return q.Where(column + " IS NULL"), nil
		case "ne":
			return q.Where(column + " IS NOT NULL"), nil
		default:
			return q.Where(fmt.Sprintf("%s %s NULL", column, op)), nil
		}
	}

	return q.Where(fmt.Sprintf("%s %s ?", column, op), value), nil
}

func (todoHandler) Sort(q *gorm.DB, field, direction string) (*gorm.DB, error) {
	column, ok := todoColumns[field]
	if !ok {
		return nil, apperr.Validation("Unknown sort field %q.", field)
	}
	switch direction {
	case "", "asc":
		return q.Order(column + " asc"), nil
	case "desc":
		return q.Order(column + " desc"), nil
	default:
		return nil, apperr.Validation("Invalid sort order %q.", direction)
	}
}
