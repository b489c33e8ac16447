package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/plantdoctor/identity/internal/db"
	"github.com/plantdoctor/identity/internal/domain"
)

const userColumns = `bin_to_uuid(id) AS id, mobile, first_name, last_name, birth_year, birth_month, birth_day,
	role, pin_hash, verification_id, kyc_verified, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

func newUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const op = "repository.user.Create"

	const query = `
	INSERT INTO user
	(id, mobile, first_name, last_name, birth_year, birth_month, birth_day, role, pin_hash, verification_id, kyc_verified)
	VALUES(uuid_to_bin(:id), :mobile, :first_name, :last_name, :birth_year, :birth_month, :birth_day, :role, :pin_hash, :verification_id, :kyc_verified);
	`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		//nolint:errorlint
		if mysqlError, ok := err.(*mysql.MySQLError); ok && mysqlError.Number == db.DuplicateEntry {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("%s: insert user: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected failed: %w", op, err)
	}

	if rowsAffected == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

func (r *userRepository) GetByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	const op = "repository.user.GetByMobile"

	query := `SELECT ` + userColumns + ` FROM user WHERE mobile = ?;`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, mobile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select user by mobile failed: %w", op, err)
	}

	return &user, nil
}

func (r *userRepository) UpdatePIN(ctx context.Context, mobile string, pinHash string) error {
	const op = "repository.user.UpdatePIN"

	const query = `
	UPDATE user SET pin_hash = ?, updated_at = now() WHERE mobile = ?;
	`

	return r.execOne(ctx, op, query, pinHash, mobile)
}

func (r *userRepository) SetKYCVerified(ctx context.Context, mobile string, verified bool) error {
	const op = "repository.user.SetKYCVerified"

	const query = `
	UPDATE user SET kyc_verified = ?, updated_at = now() WHERE mobile = ?;
	`

	return r.execOne(ctx, op, query, verified, mobile)
}

// execOne runs an update addressed by mobile. Zero matched rows means the
// user does not exist; CLIENT_FOUND_ROWS is not set, so an update to the same
// value also reports zero and is disambiguated with a lookup.
func (r *userRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: update user failed: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected failed: %w", op, err)
	}

	if rowsAffected > 0 {
		return nil
	}

	mobile, _ := args[len(args)-1].(string)
	if _, err := r.GetByMobile(ctx, mobile); err != nil {
		return err
	}

	return nil
}
