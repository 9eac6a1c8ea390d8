package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

type reminderRepo struct{ s *Store }

func (r reminderRepo) Create(ctx context.Context, rem *model.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reminders.create"); err != nil {
		return err
	}
	cp := *rem
	r.s.reminders[rem.ID] = &cp
	return nil
}

func (r reminderRepo) Get(ctx context.Context, id string) (*model.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.reminders[id]
	if !ok {
		return nil, fmt.Errorf("failed to get reminder: %w", repository.ErrNotFound)
	}
	cp := *rem
	return &cp, nil
}

func (r reminderRepo) ListByPatient(ctx context.Context, patientID string) ([]*model.Reminder, error) {
	return r.list(func(rem *model.Reminder) bool { return rem.PatientID == patientID })
}

func (r reminderRepo) ListActiveAt(ctx context.Context, clock string) ([]*model.Reminder, error) {
	return r.list(func(rem *model.Reminder) bool { return rem.Active && rem.Time == clock })
}

func (r reminderRepo) list(match func(*model.Reminder) bool) ([]*model.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Reminder{}
	for _, rem := range r.s.reminders {
		if match(rem) {
			cp := *rem
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r reminderRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.reminders[id]
	if !ok {
		return fmt.Errorf("failed to update reminder: %w", repository.ErrNotFound)
	}
	rem.Active = active
	rem.UpdatedAt = time.Now().UTC()
	return nil
}

func (r reminderRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reminders[id]; !ok {
		return fmt.Errorf("failed to delete reminder: %w", repository.ErrNotFound)
	}
	delete(r.s.reminders, id)
	return nil
}

type patientRepo struct{ s *Store }

func (r patientRepo) Upsert(ctx context.Context, p *model.PatientProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	cp := *p
	r.s.profiles[p.ID] = &cp
	return nil
}

func (r patientRepo) Get(ctx context.Context, id string) (*model.PatientProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("failed to get patient profile: %w", repository.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

type recordRepo struct{ s *Store }

func (r recordRepo) Create(ctx context.Context, rec *model.MedicalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rec
	r.s.records[rec.ID] = &cp
	return nil
}

func (r recordRepo) Get(ctx context.Context, id string) (*model.MedicalRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, fmt.Errorf("failed to get medical record: %w", repository.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (r recordRepo) ListByPatient(ctx context.Context, patientID string) ([]*model.MedicalRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.MedicalRecord{}
	for _, rec := range r.s.records {
		if rec.PatientID == patientID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate > out[j].RecordDate })
	return out, nil
}

func (r recordRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.records[id]; !ok {
		return fmt.Errorf("failed to delete medical record: %w", repository.ErrNotFound)
	}
	delete(r.s.records, id)
	return nil
}
