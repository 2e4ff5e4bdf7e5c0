package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core/download"
)

type downloadRow struct {
	ID           int       `db:"id"`
	InstituteID  int       `db:"institute_id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	DownloadedAt time.Time `db:"downloaded_at"`
}

type DownloadRepository struct {
	db *sqlx.DB
}

var _ download.Repository = (*DownloadRepository)(nil)

func NewDownloadRepository(db *sqlx.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

func (repo *DownloadRepository) CreateRecord(ctx context.Context, rec download.Record) (download.Record, error) {
	q := repo.db.Rebind(`
		INSERT INTO pdf_downloads (institute_id, name, email, phone, downloaded_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q, rec.InstituteID, rec.Name, rec.Email, rec.Phone, rec.DownloadedAt).Scan(&rec.ID)
	if err != nil {
		return download.Record{}, errors.Wrap(err, "inserting download record")
	}
	return rec, nil
}

func (repo *DownloadRepository) QueryRecords(ctx context.Context, instituteID int) ([]download.Record, error) {
	var rows []downloadRow
	q := repo.db.Rebind(`
		SELECT id, institute_id, name, email, phone, downloaded_at
		FROM pdf_downloads
		WHERE institute_id = ?
		ORDER BY downloaded_at DESC, id DESC`)
	if err := repo.db.SelectContext(ctx, &rows, q, instituteID); err != nil {
		return nil, errors.Wrap(err, "selecting download records")
	}
	recs := make([]download.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, download.Record{
			ID:           row.ID,
			InstituteID:  row.InstituteID,
			Name:         row.Name,
			Email:        row.Email,
			Phone:        row.Phone,
			DownloadedAt: row.DownloadedAt.UTC(),
		})
	}
	return recs, nil
}
