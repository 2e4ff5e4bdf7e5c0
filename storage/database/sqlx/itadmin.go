package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core/itadmin"
)

type itAdminRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type ITAdminRepository struct {
	db *sqlx.DB
}

var _ itadmin.Repository = (*ITAdminRepository)(nil)

func NewITAdminRepository(db *sqlx.DB) *ITAdminRepository {
	return &ITAdminRepository{db: db}
}

func (repo *ITAdminRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM it_admins`); err != nil {
		return 0, errors.Wrap(err, "counting IT admins")
	}
	return count, nil
}

func (repo *ITAdminRepository) CreateAdmin(ctx context.Context, admin itadmin.Admin) (itadmin.Admin, error) {
	q := repo.db.Rebind(`
		INSERT INTO it_admins (username, password_hash, created_at)
		VALUES (?, ?, ?)
		RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q, admin.Username, string(admin.PasswordHash), admin.CreatedAt).Scan(&admin.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return itadmin.Admin{}, itadmin.ErrUsernameExists
		}
		return itadmin.Admin{}, errors.Wrap(err, "inserting IT admin")
	}
	return admin, nil
}

func (repo *ITAdminRepository) GetAdminByUsername(ctx context.Context, username string) (itadmin.Admin, error) {
	var row itAdminRow
	q := repo.db.Rebind(`SELECT id, username, password_hash, created_at FROM it_admins WHERE username = ?`)
	if err := repo.db.GetContext(ctx, &row, q, username); err != nil {
		return itadmin.Admin{}, errors.Wrap(trapNoRowsErr(err, itadmin.ErrNotFound), "selecting IT admin")
	}
	return itadmin.Admin{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

func (repo *ITAdminRepository) UpdateAdmin(ctx context.Context, admin itadmin.Admin) (itadmin.Admin, error) {
	q := repo.db.Rebind(`UPDATE it_admins SET password_hash = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, string(admin.PasswordHash), admin.ID)
	if err != nil {
		return itadmin.Admin{}, errors.Wrap(err, "updating IT admin")
	}
	if err = checkAffected(res, itadmin.ErrNotFound); err != nil {
		return itadmin.Admin{}, err
	}
	return admin, nil
}
