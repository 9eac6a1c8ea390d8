package patient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	apperrors "github.com/healthmate/api/pkg/errors"
)

func TestProfileLifecycle(t *testing.T) {
	svc := NewService(repotest.New().Patients())
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "p1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	p, err := svc.UpsertProfile(ctx, "p1", model.UpsertProfileRequest{Name: "Asha", Email: "Asha@Example.com", Phone: "+919876543210"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", p.Email)

	created := p.CreatedAt
	_, err = svc.UpsertProfile(ctx, "p1", model.UpsertProfileRequest{Name: "Asha Rao"})
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.Name)
	assert.Empty(t, got.Email)
	assert.Equal(t, created, got.CreatedAt)
}

func TestUpsertProfileValidates(t *testing.T) {
	svc := NewService(repotest.New().Patients())

	for _, req := range []model.UpsertProfileRequest{
		{Name: ""},
		{Name: "Asha", Email: "not-an-email"},
		{Name: "Asha", Phone: "98765"},
	} {
		_, err := svc.UpsertProfile(context.Background(), "p1", req)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest), "%+v", req)
	}
}
