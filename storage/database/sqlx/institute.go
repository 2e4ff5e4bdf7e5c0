package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
)

const instituteColumns = `id, username, password_hash, institute_name, offer_text, upi_id, email, amount, is_active, created_at`

type instituteRow struct {
	ID           int         `db:"id"`
	Username     string      `db:"username"`
	PasswordHash string      `db:"password_hash"`
	Name         string      `db:"institute_name"`
	OfferText    null.String `db:"offer_text"`
	UPIID        null.String `db:"upi_id"`
	Email        null.String `db:"email"`
	Amount       float64     `db:"amount"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (row instituteRow) toInstitute() institute.Institute {
	return institute.Institute{
		ID:           row.ID,
		Username:     row.Username,
		Name:         row.Name,
		OfferText:    row.OfferText.String,
		UPIID:        row.UPIID.String,
		Email:        row.Email.String,
		Amount:       row.Amount,
		IsActive:     row.IsActive,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

// nullString stores empty strings as NULL.
func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

type InstituteRepository struct {
	db *sqlx.DB
}

var _ institute.Repository = (*InstituteRepository)(nil)

func NewInstituteRepository(db *sqlx.DB) *InstituteRepository {
	return &InstituteRepository{db: db}
}

func (repo *InstituteRepository) CreateInstitute(ctx context.Context, inst institute.Institute, conf institute.Configuration) (institute.Institute, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return institute.Institute{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := tx.Rebind(`
		INSERT INTO institutes (username, password_hash, institute_name, offer_text, upi_id, email, amount, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err = tx.QueryRowxContext(
		ctx, q,
		inst.Username, string(inst.PasswordHash), inst.Name, nullString(inst.OfferText), nullString(inst.UPIID),
		nullString(inst.Email), inst.Amount, inst.IsActive, inst.CreatedAt,
	).Scan(&inst.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return institute.Institute{}, institute.ErrUsernameExists
		}
		return institute.Institute{}, errors.Wrap(err, "inserting institute")
	}

	conf.InstituteID = inst.ID
	if err = upsertConfiguration(ctx, tx, conf); err != nil {
		return institute.Institute{}, errors.Wrap(err, "inserting configuration")
	}

	if err = tx.Commit(); err != nil {
		return institute.Institute{}, errors.Wrap(err, "committing transaction")
	}
	return inst, nil
}

func (repo *InstituteRepository) GetInstitute(ctx context.Context, filter institute.GetFilter) (institute.Institute, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "id = ?", filter.ID
	case filter.Username != "":
		where, arg = "username = ?", filter.Username
	default:
		return institute.Institute{}, institute.ErrNotFound
	}

	var row instituteRow
	q := repo.db.Rebind(`SELECT ` + instituteColumns + ` FROM institutes WHERE ` + where)
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return institute.Institute{}, errors.Wrap(trapNoRowsErr(err, institute.ErrNotFound), "selecting institute")
	}
	return row.toInstitute(), nil
}

func (repo *InstituteRepository) QueryInstitutes(ctx context.Context, orderings ...core.DBOrdering) ([]institute.Institute, error) {
	q := `SELECT ` + instituteColumns + ` FROM institutes`
	if orderBy := orderByClause(orderings, institute.OrderingFields); orderBy != "" {
		q += " ORDER BY " + orderBy
	}

	var rows []instituteRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting institutes")
	}
	insts := make([]institute.Institute, 0, len(rows))
	for _, row := range rows {
		insts = append(insts, row.toInstitute())
	}
	return insts, nil
}

// UpdateInstitute updates everything but the username and the creation time.
func (repo *InstituteRepository) UpdateInstitute(ctx context.Context, inst institute.Institute) (institute.Institute, error) {
	q := repo.db.Rebind(`
		UPDATE institutes
		SET password_hash = ?, institute_name = ?, offer_text = ?, upi_id = ?, email = ?, amount = ?, is_active = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(
		ctx, q,
		string(inst.PasswordHash), inst.Name, nullString(inst.OfferText), nullString(inst.UPIID), nullString(inst.Email),
		inst.Amount, inst.IsActive, inst.ID,
	)
	if err != nil {
		return institute.Institute{}, errors.Wrap(err, "updating institute")
	}
	if err = checkAffected(res, institute.ErrNotFound); err != nil {
		return institute.Institute{}, err
	}
	return inst, nil
}

func (repo *InstituteRepository) ToggleInstitute(ctx context.Context, id int) error {
	q := repo.db.Rebind(`UPDATE institutes SET is_active = NOT is_active WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "toggling institute")
	}
	return checkAffected(res, institute.ErrNotFound)
}

// orderByClause only keeps the orderings on allowed fields.
func orderByClause(orderings []core.DBOrdering, allowed map[string]bool) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if allowed[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	return strings.Join(clauses, ", ")
}
