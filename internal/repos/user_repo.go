package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pitchside/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,name,phone,password_hash,role`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE id=?`, id)
}

func (r *UserRepo) one(ctx context.Context, q, arg string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user; an email already registered (any case) is a Conflict.
func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO users(id,email,name,phone,password_hash,role,created_at)
	  VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)`,
		u.ID, u.Email, u.Name, u.Phone, u.Hash, u.Role)
	if isUnique(err) {
		return domain.Conflict("User already exists")
	}
	return err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id,u.email,u.name,u.phone,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
