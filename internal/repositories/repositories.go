// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/hsrx/internal/models"
)

var (
	_ models.Repository[*models.MetadataEntry] = (*MetadataRepository)(nil)
	_ models.Repository[*models.ShareEvent]    = (*ShareRepository)(nil)
)

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// where builds a WHERE clause from equality criteria restricted to allowed columns.
// Keys are emitted in the order of allowed so the query text is stable.
func where(criteria map[string]any, allowed ...string) (string, []any, error) {
	for key := range criteria {
		if !contains(allowed, key) {
			return "", nil, fmt.Errorf("unsupported criteria: %s", key)
		}
	}

	var (
		clauses []string
		args    []any
	)
	for _, col := range allowed {
		if v, ok := criteria[col]; ok {
			clauses = append(clauses, col+" = ?")
			args = append(args, v)
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// rowsAffected returns notFound when res changed no rows.
func rowsAffected(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
