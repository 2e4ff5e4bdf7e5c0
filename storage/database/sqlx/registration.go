package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coachdesk/core/registration"
)

type registrationRow struct {
	ID            int         `db:"id"`
	InstituteID   int         `db:"institute_id"`
	Name          string      `db:"name"`
	Email         string      `db:"email"`
	Phone         string      `db:"phone"`
	PaymentStatus string      `db:"payment_status"`
	PaymentID     null.String `db:"payment_id"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (row registrationRow) toRegistration() registration.Registration {
	return registration.Registration{
		ID:            row.ID,
		InstituteID:   row.InstituteID,
		Name:          row.Name,
		Email:         row.Email,
		Phone:         row.Phone,
		PaymentStatus: row.PaymentStatus,
		PaymentID:     row.PaymentID.String,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

type paymentDetailsRow struct {
	RegistrationID  int         `db:"registration_id"`
	Name            string      `db:"name"`
	Email           string      `db:"email"`
	Phone           string      `db:"phone"`
	PaymentStatus   string      `db:"payment_status"`
	PaymentID       null.String `db:"payment_id"`
	InstituteID     int         `db:"institute_id"`
	InstituteName   string      `db:"institute_name"`
	InstituteEmail  null.String `db:"institute_email"`
	InstituteUPIID  null.String `db:"upi_id"`
	InstituteAmount float64     `db:"amount"`
	InstituteActive bool        `db:"is_active"`
}

type RegistrationRepository struct {
	db *sqlx.DB
}

var _ registration.Repository = (*RegistrationRepository)(nil)

func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (repo *RegistrationRepository) CreateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	q := repo.db.Rebind(`
		INSERT INTO registrations (institute_id, name, email, phone, payment_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := repo.db.QueryRowxContext(
		ctx, q,
		reg.InstituteID, reg.Name, reg.Email, reg.Phone, registration.StatusPending, reg.CreatedAt,
	).Scan(&reg.ID)
	if err != nil {
		return registration.Registration{}, errors.Wrap(err, "inserting registration")
	}
	reg.PaymentStatus = registration.StatusPending
	return reg, nil
}

func (repo *RegistrationRepository) GetPaymentDetails(ctx context.Context, id int) (registration.PaymentDetails, error) {
	var row paymentDetailsRow
	q := repo.db.Rebind(`
		SELECT r.id AS registration_id, r.name, r.email, r.phone, r.payment_status, r.payment_id,
		       i.id AS institute_id, i.institute_name, i.email AS institute_email, i.upi_id, i.amount, i.is_active
		FROM registrations r
		JOIN institutes i ON r.institute_id = i.id
		WHERE r.id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return registration.PaymentDetails{}, errors.Wrap(trapNoRowsErr(err, registration.ErrNotFound), "selecting payment details")
	}
	return registration.PaymentDetails{
		RegistrationID:  row.RegistrationID,
		Name:            row.Name,
		Email:           row.Email,
		Phone:           row.Phone,
		PaymentStatus:   row.PaymentStatus,
		PaymentID:       row.PaymentID.String,
		InstituteID:     row.InstituteID,
		InstituteName:   row.InstituteName,
		InstituteEmail:  row.InstituteEmail.String,
		InstituteUPIID:  row.InstituteUPIID.String,
		InstituteAmount: row.InstituteAmount,
		InstituteActive: row.InstituteActive,
	}, nil
}

func (repo *RegistrationRepository) CompletePayment(ctx context.Context, id int, paymentID string) error {
	q := repo.db.Rebind(`UPDATE registrations SET payment_status = ?, payment_id = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, registration.StatusCompleted, paymentID, id)
	if err != nil {
		return errors.Wrap(err, "completing payment")
	}
	return checkAffected(res, registration.ErrNotFound)
}

func (repo *RegistrationRepository) QueryRegistrations(ctx context.Context, instituteID int) ([]registration.Registration, error) {
	var rows []registrationRow
	q := repo.db.Rebind(`
		SELECT id, institute_id, name, email, phone, payment_status, payment_id, created_at
		FROM registrations
		WHERE institute_id = ?
		ORDER BY created_at DESC, id DESC`)
	if err := repo.db.SelectContext(ctx, &rows, q, instituteID); err != nil {
		return nil, errors.Wrap(err, "selecting registrations")
	}
	regs := make([]registration.Registration, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, row.toRegistration())
	}
	return regs, nil
}
