package recommend

import (
	"errors"
	"fmt"
)

// Cause identifies why a recommendation could not be produced.
type Cause string

const (
	// Catalog-level causes: no user can be served.
	CauseDataSourceUnavailable Cause = "DataSourceUnavailable"
	CauseEmptyCatalog          Cause = "EmptyCatalog"

	// User-level causes: only the requested user is affected.
	CauseUserNotFound         Cause = "UserNotFound"
	CauseNoFeedback           Cause = "NoFeedback"
	CauseNoLikedItems         Cause = "NoLikedItems"
	CauseLikedItemsUnresolved Cause = "LikedItemsUnresolved"
)

// CatalogLevel reports whether c prevents recommendations for every user.
func (c Cause) CatalogLevel() bool {
	return c == CauseDataSourceUnavailable || c == CauseEmptyCatalog
}

// Error is the structured failure returned by the recommender.
type Error struct {
	Cause   Cause
	Message string
	Err     error // underlying error, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(cause Cause, err error, format string, args ...any) *Error {
	return &Error{Cause: cause, Message: fmt.Sprintf(format, args...), Err: err}
}

// CauseOf returns the cause carried by err, or "" when err is nil or not a
// recommender error.
func CauseOf(err error) Cause {
	var e *Error
	if errors.As(err, &e) {
		return e.Cause
	}
	return ""
}
