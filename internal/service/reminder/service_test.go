package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	apperrors "github.com/healthmate/api/pkg/errors"
)

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []string
	profiles []*model.PatientProfile
	fail     map[string]error
}

func (n *recordingNotifier) NotifyReminder(ctx context.Context, r *model.Reminder, p *model.PatientProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail[r.ID]; err != nil {
		return err
	}
	n.sent = append(n.sent, r.ID)
	n.profiles = append(n.profiles, p)
	return nil
}

func (n *recordingNotifier) NotifyAppointment(context.Context, string, model.AppointmentEvent) error {
	return nil
}

func newService(t *testing.T) (*Service, *repotest.Store, *recordingNotifier) {
	t.Helper()
	store := repotest.New()
	n := &recordingNotifier{fail: map[string]error{}}
	return NewService(store.Reminders(), store.Patients(), n, time.UTC), store, n
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: " Metformin ", Time: "08:00"})
	require.NoError(t, err)
	assert.Equal(t, "Metformin", r.MedicineName)
	assert.True(t, r.Active)

	for _, req := range []model.CreateReminderRequest{
		{MedicineName: "", Time: "08:00"},
		{MedicineName: "Metformin", Time: "8am"},
		{MedicineName: "Metformin", Time: "24:00"},
	} {
		_, err := svc.Create(ctx, "p1", req)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest), "%+v", req)
	}
}

func TestToggleAndDeleteAreOwnerOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	r, err := svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: "Metformin", Time: "08:00"})
	require.NoError(t, err)

	off := false
	_, err = svc.Toggle(ctx, "p2", r.ID, model.ToggleReminderRequest{Active: &off})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.True(t, apperrors.Is(svc.Delete(ctx, "p2", r.ID), apperrors.ErrNotFound))

	toggled, err := svc.Toggle(ctx, "p1", r.ID, model.ToggleReminderRequest{Active: &off})
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	_, err = svc.Toggle(ctx, "p1", r.ID, model.ToggleReminderRequest{})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	require.NoError(t, svc.Delete(ctx, "p1", r.ID))
	list, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchSendsDueActiveReminders(t *testing.T) {
	svc, store, n := newService(t)
	ctx := context.Background()

	require.NoError(t, store.Patients().Upsert(ctx, &model.PatientProfile{ID: "p1", Name: "Asha", Email: "asha@example.com"}))
	due, err := svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: "Metformin", Time: "08:00"})
	require.NoError(t, err)
	noProfile, err := svc.Create(ctx, "p2", model.CreateReminderRequest{MedicineName: "Aspirin", Time: "08:00"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: "Vitamin D", Time: "09:00"})
	require.NoError(t, err)
	paused, err := svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: "Paused", Time: "08:00"})
	require.NoError(t, err)
	off := false
	_, err = svc.Toggle(ctx, "p1", paused.ID, model.ToggleReminderRequest{Active: &off})
	require.NoError(t, err)

	sent, err := svc.Dispatch(ctx, time.Date(2024, 5, 10, 8, 0, 42, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{due.ID, noProfile.ID}, n.sent)

	var withEmail int
	for _, p := range n.profiles {
		if p != nil && p.Email != "" {
			withEmail++
		}
	}
	assert.Equal(t, 1, withEmail)
}

func TestDispatchReportsFailures(t *testing.T) {
	svc, _, n := newService(t)
	ctx := context.Background()

	r1, err := svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: "A", Time: "08:00"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "p1", model.CreateReminderRequest{MedicineName: "B", Time: "08:00"})
	require.NoError(t, err)
	n.fail[r1.ID] = errors.New("push gateway down")

	sent, err := svc.Dispatch(ctx, time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, 1, sent)
}
