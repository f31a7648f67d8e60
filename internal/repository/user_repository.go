package repository

import (
	"context"
	"database/sql"

	"github.com/petmily/walk-service/internal/model"
)

// UserRepo reads participant contact facts.  Account management belongs to
// a separate service; this repository never writes.  It satisfies
// walk.UserStore.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Find returns the user or walk.ErrNotFound.
func (r *UserRepo) Find(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, emergency_contact_phone
		 FROM users WHERE id = ?`, id)

	var (
		u         model.User
		phone     sql.NullString
		email     sql.NullString
		emergency sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &phone, &email, &emergency); err != nil {
		return nil, notFound(err)
	}
	u.Phone = phone.String
	u.Email = email.String
	u.EmergencyContactPhone = emergency.String
	return &u, nil
}
