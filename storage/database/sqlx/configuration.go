package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
)

type configurationRow struct {
	InstituteID  int         `db:"institute_id"`
	WhyChooseUs  null.String `db:"why_choose_us"`
	PDFTitle     null.String `db:"pdf_title"`
	PDFFilename  null.String `db:"pdf_filename"`
	Testimonials null.String `db:"testimonials"`
}

func (row configurationRow) toConfiguration() institute.Configuration {
	return institute.Configuration{
		InstituteID:  row.InstituteID,
		WhyChooseUs:  row.WhyChooseUs.String,
		PDFTitle:     row.PDFTitle.String,
		PDFFilename:  row.PDFFilename.String,
		Testimonials: institute.ParseTestimonials(row.Testimonials.String),
	}
}

type ConfigurationRepository struct {
	db *sqlx.DB
}

var _ institute.ConfigRepository = (*ConfigurationRepository)(nil)

func NewConfigurationRepository(db *sqlx.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

func (repo *ConfigurationRepository) GetConfiguration(ctx context.Context, instituteID int) (institute.Configuration, error) {
	var row configurationRow
	q := repo.db.Rebind(`
		SELECT institute_id, why_choose_us, pdf_title, pdf_filename, testimonials
		FROM configurations
		WHERE institute_id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, instituteID); err != nil {
		return institute.Configuration{}, errors.Wrap(trapNoRowsErr(err, institute.ErrNotFound), "selecting configuration")
	}
	return row.toConfiguration(), nil
}

func (repo *ConfigurationRepository) UpdateConfiguration(ctx context.Context, conf institute.Configuration) error {
	return errors.Wrap(upsertConfiguration(ctx, repo.db, conf), "upserting configuration")
}

func upsertConfiguration(ctx context.Context, db core.DBExecutor, conf institute.Configuration) error {
	q := db.Rebind(`
		INSERT INTO configurations (institute_id, why_choose_us, pdf_title, pdf_filename, testimonials)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (institute_id) DO UPDATE
		SET why_choose_us = excluded.why_choose_us,
		    pdf_title = excluded.pdf_title,
		    pdf_filename = excluded.pdf_filename,
		    testimonials = excluded.testimonials`)
	_, err := db.ExecContext(
		ctx, q,
		conf.InstituteID, conf.WhyChooseUs, conf.PDFTitle, nullString(conf.PDFFilename),
		institute.EncodeTestimonials(conf.Testimonials),
	)
	return err
}
