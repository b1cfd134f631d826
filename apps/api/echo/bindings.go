package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/kozi/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=-name,id`: fields are applied in order, a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// idParam reads the `:id` path parameter. A malformed id can not match any row: it is a 404.
func idParam(ctx echo.Context) (int, error) {
	var id int
	if err := echo.PathParamsBinder(ctx).MustInt("id", &id).BindError(); err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// listParams are the query parameters shared by every list endpoint.
type listParams struct {
	Search string
	All    bool
	Ordering
}

func bindListParams(ctx echo.Context) (*listParams, error) {
	params := new(listParams)
	err := echo.QueryParamsBinder(ctx).
		String("search", &params.Search).
		Bool("all", &params.All).
		BindError()
	if err != nil {
		return nil, err
	}
	params.Ordering.Bind(ctx)
	return params, nil
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
