package store

import (
	"context"
	"time"

	"pharmacy-api/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const prescriptionColumns = `id, user_id, doctor_name, image_url, notes, product_ids, status, reviewed_by, review_notes, created_at, updated_at`

type prescriptionRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	DoctorName  string         `db:"doctor_name"`
	ImageURL    string         `db:"image_url"`
	Notes       string         `db:"notes"`
	ProductIDs  pq.StringArray `db:"product_ids"`
	Status      string         `db:"status"`
	ReviewedBy  *string        `db:"reviewed_by"`
	ReviewNotes string         `db:"review_notes"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r prescriptionRow) model() models.Prescription {
	ids := []string(r.ProductIDs)
	if ids == nil {
		ids = []string{}
	}
	return models.Prescription{
		ID:          r.ID,
		UserID:      r.UserID,
		DoctorName:  r.DoctorName,
		ImageURL:    r.ImageURL,
		Notes:       r.Notes,
		ProductIDs:  ids,
		Status:      models.PrescriptionStatus(r.Status),
		ReviewedBy:  r.ReviewedBy,
		ReviewNotes: r.ReviewNotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *Postgres) CreatePrescription(ctx context.Context, p models.Prescription) (models.Prescription, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PrescriptionPending
	}
	if p.ProductIDs == nil {
		p.ProductIDs = []string{}
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prescriptions (id, user_id, doctor_name, image_url, notes, product_ids, status, review_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $8)`,
		p.ID, p.UserID, p.DoctorName, p.ImageURL, p.Notes, pq.Array(p.ProductIDs), p.Status, now)
	if err != nil {
		return models.Prescription{}, mapErr(err)
	}
	return p, nil
}

func (s *Postgres) GetPrescription(ctx context.Context, id string) (models.Prescription, error) {
	var row prescriptionRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id); err != nil {
		return models.Prescription{}, mapErr(err)
	}
	return row.model(), nil
}

func (s *Postgres) ListPrescriptions(ctx context.Context, f PrescriptionFilter) ([]models.Prescription, error) {
	var rows []prescriptionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+prescriptionColumns+` FROM prescriptions
		WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3`, f.UserID, string(f.Status), defaultListLimit)
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.Prescription, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Postgres) ReviewPrescription(ctx context.Context, id string, status models.PrescriptionStatus, reviewerID, notes string) (models.Prescription, error) {
	var row prescriptionRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE prescriptions
		SET status = $2, reviewed_by = $3, review_notes = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+prescriptionColumns, id, status, reviewerID, notes, s.now())
	if err != nil {
		return models.Prescription{}, mapErr(err)
	}
	return row.model(), nil
}
