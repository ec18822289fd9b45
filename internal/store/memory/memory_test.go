package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/store"
)

func newPrincipal(id, email string) *domain.Principal {
	now := time.Now().UTC()
	return &domain.Principal{
		ID:           id,
		Name:         "Test",
		Email:        email,
		PasswordHash: "$argon2id$...",
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Create(ctx, newPrincipal("p1", "a@x.com")))

	byEmail, err := s.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "p1", byEmail.ID)

	byID, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", byID.Email)

	_, err = s.GetByEmail(ctx, "missing@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Create(ctx, newPrincipal("p1", "a@x.com")))
	err := s.Create(ctx, newPrincipal("p2", "a@x.com"))
	require.ErrorIs(t, err, store.ErrEmailTaken)

	// The failed create must not have replaced the original row.
	p, err := s.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
}

func TestUpdateAndResetDigestLookup(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Create(ctx, newPrincipal("p1", "a@x.com")))

	p, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)

	digest := "digest-abc"
	expiry := time.Now().Add(time.Hour).UTC()
	p.ResetTokenDigest = &digest
	p.ResetTokenExpiry = &expiry
	require.NoError(t, s.Update(ctx, p))

	got, err := s.GetByResetDigest(ctx, "digest-abc")
	require.NoError(t, err)
	require.Equal(t, "p1", got.ID)

	_, err = s.GetByResetDigest(ctx, "other")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRowsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Create(ctx, newPrincipal("p1", "a@x.com")))

	p, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	p.LoginCount = 999
	again, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(0), again.LoginCount)
}

func TestUpdateMissing(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.Update(ctx, newPrincipal("ghost", "g@x.com"))
	require.ErrorIs(t, err, store.ErrNotFound)
}
