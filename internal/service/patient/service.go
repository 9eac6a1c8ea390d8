package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	apperrors "github.com/healthmate/api/pkg/errors"
	"github.com/healthmate/api/pkg/validator"
)

type Service struct {
	repo     repository.PatientRepository
	validate *validator.Validator
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) GetProfile(ctx context.Context, patientID string) (*model.PatientProfile, error) {
	p, err := s.repo.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("profile", err)
		}
		return nil, apperrors.Internal("failed to get profile", err)
	}
	return p, nil
}

// UpsertProfile creates the profile on first use and replaces it afterwards.
func (s *Service) UpsertProfile(ctx context.Context, patientID string, req model.UpsertProfileRequest) (*model.PatientProfile, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	now := time.Now().UTC()
	p := &model.PatientProfile{
		ID:        patientID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, apperrors.Internal("failed to save profile", err)
	}
	return p, nil
}
