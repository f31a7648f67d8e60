// Package repository provides MySQL-backed implementations of the store
// interfaces declared by the walk and booking packages.  Repositories
// translate database conditions into the domain's sentinel errors so
// higher layers never see database/sql internals: a missing row becomes
// walk.ErrNotFound and a failed compare-and-set on booking status becomes
// walk.ErrInvalidState.
package repository

import (
	"database/sql"
	"errors"

	"github.com/petmily/walk-service/internal/walk"
)

// notFound maps sql.ErrNoRows onto the domain sentinel, passing other
// errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return walk.ErrNotFound
	}
	return err
}
