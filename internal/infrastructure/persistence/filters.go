package persistence

import (
	"github.com/ridehail/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPagination applies page-based limits to a query. A zero PageSize
// means no limit.
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize <= 0 {
		return query
	}
	return query.Limit(filter.PageSize).Offset(filter.Offset())
}

// applyOrdering applies the filter's ordering, falling back to a default
// column when none is set. The column name is validated by the caller's
// allowlist to keep user input out of the SQL.
func applyOrdering(query *gorm.DB, filter shared.Filter, allowed map[string]bool, fallback string) *gorm.DB {
	column := fallback
	if filter.OrderBy != "" && allowed[filter.OrderBy] {
		column = filter.OrderBy
	}
	direction := "desc"
	if filter.OrderDir == "asc" {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}
