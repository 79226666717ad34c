package metadatastore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// getByField is the generic single-row lookup the Store's Find* methods are
// built on, mirroring the teacher's generic getByField[T] helper over the
// control-plane database.
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFound error) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where(field+" = ?", value).First(&row).Error
	if err != nil {
		return nil, NewError("get_by_field", field, convertNotFoundError(err, notFound))
	}
	return &row, nil
}

// convertNotFoundError maps gorm.ErrRecordNotFound to the package's own
// sentinel so callers never need to import gorm to check for it.
func convertNotFoundError(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// isUniqueConstraintError reports whether err is a SQLite UNIQUE constraint
// violation. The pure-Go driver surfaces this as a plain string rather than
// a typed sentinel, so the check is textual like the teacher's equivalent.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
