package repository

import (
	"strings"

	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// apply adds ordering and pagination. SortBy is only honored when it is a
// plain column name so it cannot carry SQL.
func (q *ListQuery) apply(db *gorm.DB, defaultOrder string) *gorm.DB {
	if q.SortBy != "" && isIdentifier(q.SortBy) {
		order := q.SortBy
		if strings.EqualFold(q.SortDir, "desc") {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order(defaultOrder)
	}

	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		db = db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
	}
	return db
}

func isIdentifier(s string) bool {
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
