package medical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/pkg/cdn"
	apperrors "github.com/healthmate/api/pkg/errors"
	"github.com/healthmate/api/pkg/security"
	"github.com/healthmate/api/pkg/validator"
)

type Service struct {
	repo      repository.MedicalRecordRepository
	encryptor security.Encryptor
	files     *cdn.Builder
	validate  *validator.Validator
}

func NewService(repo repository.MedicalRecordRepository, encryptor security.Encryptor, files *cdn.Builder) *Service {
	return &Service{
		repo:      repo,
		encryptor: encryptor,
		files:     files,
		validate:  validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, patientID string, req model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	notes, err := security.EncryptString(s.encryptor, req.Notes)
	if err != nil {
		return nil, apperrors.Internal("failed to encrypt notes", err)
	}

	now := time.Now().UTC()
	rec := &model.MedicalRecord{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		Title:        strings.TrimSpace(req.Title),
		RecordType:   model.RecordType(req.RecordType),
		FilePublicID: req.FilePublicID,
		Notes:        notes,
		RecordDate:   req.RecordDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperrors.Internal("failed to create record", err)
	}

	out := *rec
	out.Notes = req.Notes
	return s.present(&out), nil
}

func (s *Service) List(ctx context.Context, patientID string) ([]*model.MedicalRecord, error) {
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal("failed to list records", err)
	}
	for _, rec := range records {
		if err := s.decrypt(rec); err != nil {
			return nil, apperrors.Internal("failed to decrypt notes", err)
		}
		s.present(rec)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, patientID, id string) (*model.MedicalRecord, error) {
	rec, err := s.owned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if err := s.decrypt(rec); err != nil {
		return nil, apperrors.Internal("failed to decrypt notes", err)
	}
	return s.present(rec), nil
}

func (s *Service) Delete(ctx context.Context, patientID, id string) error {
	if _, err := s.owned(ctx, patientID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal("failed to delete record", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, patientID, id string) (*model.MedicalRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("record", err)
		}
		return nil, apperrors.Internal("failed to get record", err)
	}
	if rec.PatientID != patientID {
		return nil, apperrors.NotFound("record", nil)
	}
	return rec, nil
}

func (s *Service) decrypt(rec *model.MedicalRecord) error {
	notes, err := security.DecryptString(s.encryptor, rec.Notes)
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Notes = notes
	return nil
}

func (s *Service) present(rec *model.MedicalRecord) *model.MedicalRecord {
	if s.files != nil {
		rec.FileURL = s.files.URL(rec.FilePublicID, cdn.Transform{})
	}
	return rec
}
