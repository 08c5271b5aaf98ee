package storage

import (
	"context"
	"strings"

	"github.com/goold/roomsched/libs/db"
	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/services/scheduling-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	AccountType  domain.AccountType
	Address      domain.Address
}

// Credentials is a user row with its password hash, for login.
type Credentials struct {
	User         domain.User
	PasswordHash string
}

const userColumns = `id, first_name, last_name, email, account_type, status, address, created_at, updated_at`

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	var address []byte
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.AccountType, &u.Status, &address, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	addr, err := domain.DecodeAddress(address)
	if err != nil {
		return domain.User{}, err
	}
	u.Address = addr
	return u, nil
}

func encodeAddress(a domain.Address) ([]byte, error) {
	raw, err := domain.EncodeAddress(a)
	if err != nil || raw == nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (r *Repository) CreateUser(ctx context.Context, nu NewUser) (domain.User, error) {
	address, err := encodeAddress(nu.Address)
	if err != nil {
		return domain.User{}, err
	}
	if nu.AccountType == "" {
		nu.AccountType = domain.AccountCustomer
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, account_type, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		nu.FirstName, nu.LastName, strings.ToLower(strings.TrimSpace(nu.Email)), nu.PasswordHash, nu.AccountType, address))
	if db.HasCode(err, db.CodeUniqueViolation) {
		return domain.User{}, ErrEmailTaken
	}
	return u, err
}

func (r *Repository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, notFound(err)
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (Credentials, error) {
	var c Credentials
	var address []byte
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`, password_hash
		FROM users
		WHERE lower(email) = lower($1)
	`, strings.TrimSpace(email)).Scan(
		&c.User.ID, &c.User.FirstName, &c.User.LastName, &c.User.Email, &c.User.AccountType,
		&c.User.Status, &address, &c.User.CreatedAt, &c.User.UpdatedAt, &c.PasswordHash,
	)
	if err != nil {
		return Credentials{}, notFound(err)
	}
	c.User.Address, err = domain.DecodeAddress(address)
	return c, err
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY first_name, last_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveUser writes the profile fields of u. Status is changed only through SetUserStatus.
func (r *Repository) SaveUser(ctx context.Context, u domain.User) (domain.User, error) {
	address, err := encodeAddress(u.Address)
	if err != nil {
		return domain.User{}, err
	}
	out, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2,
			last_name = $3,
			email = $4,
			account_type = $5,
			address = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.FirstName, u.LastName, strings.ToLower(strings.TrimSpace(u.Email)), u.AccountType, address))
	if db.HasCode(err, db.CodeUniqueViolation) {
		return domain.User{}, ErrEmailTaken
	}
	return out, notFound(err)
}

func (r *Repository) SetUserStatus(ctx context.Context, id int64, active bool) (domain.User, error) {
	var out domain.User
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `
			UPDATE users SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+userColumns, id, active))
		if err != nil {
			return notFound(err)
		}
		out = u
		evt, err := outbox.NewUserStatusEvent(outbox.UserStatusPayload{UserID: id, Active: active, OccurredAt: r.now().UTC()})
		return r.emit(ctx, tx, evt, err)
	})
	return out, err
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
