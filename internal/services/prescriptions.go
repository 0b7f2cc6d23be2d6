package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"pharmacy-api/internal/events"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/store"
	"pharmacy-api/internal/telemetry"
)

type PrescriptionInput struct {
	DoctorName string   `json:"doctor_name"`
	ImageURL   string   `json:"image_url"`
	Notes      string   `json:"notes"`
	ProductIDs []string `json:"product_ids"`
}

func (s *Service) SubmitPrescription(ctx context.Context, caller models.Profile, in PrescriptionInput) (models.Prescription, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.ImageURL == "" {
		return models.Prescription{}, invalid("image_url is required")
	}
	if u, err := url.Parse(in.ImageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Prescription{}, invalid("image_url must be an http(s) URL")
	}

	seen := make(map[string]bool, len(in.ProductIDs))
	ids := []string{}
	for _, id := range in.ProductIDs {
		if seen[id] {
			continue
		}
		if _, ok := s.catalog.Product(id); !ok {
			return models.Prescription{}, invalid("unknown product %q", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	p, err := s.store.CreatePrescription(ctx, models.Prescription{
		UserID:     caller.ID,
		DoctorName: strings.TrimSpace(in.DoctorName),
		ImageURL:   in.ImageURL,
		Notes:      in.Notes,
		ProductIDs: ids,
		Status:     models.PrescriptionPending,
	})
	if err != nil {
		return models.Prescription{}, storeErr(err, "prescription")
	}
	s.invalidateStats(ctx)
	slog.Info("Prescription submitted", "prescription_id", p.ID, "user_id", caller.ID)
	return p, nil
}

func (s *Service) ListMyPrescriptions(ctx context.Context, caller models.Profile, status models.PrescriptionStatus) ([]models.Prescription, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown prescription status %q", status)
	}
	out, err := s.store.ListPrescriptions(ctx, store.PrescriptionFilter{UserID: caller.ID, Status: status})
	return out, storeErr(err, "prescriptions")
}

func (s *Service) GetPrescription(ctx context.Context, caller models.Profile, id string) (models.Prescription, error) {
	p, err := s.store.GetPrescription(ctx, id)
	if err != nil {
		return models.Prescription{}, storeErr(err, "prescription")
	}
	if p.UserID != caller.ID && !caller.Role.IsStaff() {
		return models.Prescription{}, fmt.Errorf("%w: prescription", ErrNotFound)
	}
	return p, nil
}

func (s *Service) ListPrescriptions(ctx context.Context, caller models.Profile, status models.PrescriptionStatus) ([]models.Prescription, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, invalid("unknown prescription status %q", status)
	}
	out, err := s.store.ListPrescriptions(ctx, store.PrescriptionFilter{Status: status})
	return out, storeErr(err, "prescriptions")
}

// ReviewPrescription approves or rejects a prescription. Rejections need notes
// so the customer knows what to fix.
func (s *Service) ReviewPrescription(ctx context.Context, caller models.Profile, id string, status models.PrescriptionStatus, notes string) (models.Prescription, error) {
	if !caller.Role.CanReviewPrescriptions() {
		return models.Prescription{}, fmt.Errorf("%w: pharmacist or admin role required", ErrForbidden)
	}
	if status != models.PrescriptionApproved && status != models.PrescriptionRejected {
		return models.Prescription{}, invalid("review status must be approved or rejected")
	}
	notes = strings.TrimSpace(notes)
	if status == models.PrescriptionRejected && notes == "" {
		return models.Prescription{}, invalid("rejection requires review notes")
	}

	p, err := s.store.ReviewPrescription(ctx, id, status, caller.ID, notes)
	if err != nil {
		return models.Prescription{}, storeErr(err, "prescription")
	}

	msg := fmt.Sprintf("Your prescription %s was %s.", shortID(p.ID), status)
	if notes != "" {
		msg += " " + notes
	}
	s.notify(ctx, p.UserID, models.NotificationPrescription, "Prescription reviewed", msg)
	s.publish(ctx, events.Event{
		Type:           events.PrescriptionReviewed,
		UserID:         p.UserID,
		PrescriptionID: p.ID,
		Status:         string(status),
	})
	s.invalidateStats(ctx)
	telemetry.PrescriptionsReviewed.WithLabelValues(string(status)).Inc()

	slog.Info("Prescription reviewed", "prescription_id", p.ID, "status", status, "by", caller.ID)
	return p, nil
}
