package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteService_CreateHashesPassword(t *testing.T) {
	f := newFixture(t)
	pkg := f.newPackage(t)

	invite := f.invite(t, pkg.ID, "  Acme Interiors ")

	assert.Equal(t, "Acme Interiors", invite.DealerName)
	assert.Len(t, invite.Token, 32)
	assert.Nil(t, invite.LastUnlockedAt)

	var stored domain.Invite
	require.NoError(t, f.db.First(&stored, invite.ID).Error)
	assert.NotEqual(t, "secret-pass", stored.PasswordDigest)
	assert.NotEmpty(t, stored.PasswordDigest)
}

func TestInviteService_CreateUnknownPackage(t *testing.T) {
	f := newFixture(t)

	_, err := f.invites.Create(context.Background(), 77, &domain.CreateInviteRequest{DealerName: "x", Password: "secret-pass"})

	assert.ErrorIs(t, err, service.ErrPackageNotFound)
}

func TestInviteService_Unlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pkg := f.newPackage(t)
	invite := f.invite(t, pkg.ID, "Acme")

	_, err := f.invites.Unlock(ctx, invite.Token, "wrong")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	unlocked, err := f.invites.Unlock(ctx, invite.Token, "secret-pass")
	require.NoError(t, err)
	assert.NotNil(t, unlocked.LastUnlockedAt)

	_, err = f.invites.Unlock(ctx, "no-such-token", "secret-pass")
	assert.ErrorIs(t, err, service.ErrInviteNotFound)
}

func TestInviteService_DisabledInviteIsLockedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pkg := f.newPackage(t)
	invite := f.invite(t, pkg.ID, "Acme")

	disabled, err := f.invites.SetDisabled(ctx, invite.ID, true)
	require.NoError(t, err)
	assert.True(t, disabled.Disabled)

	_, err = f.invites.Unlock(ctx, invite.Token, "secret-pass")
	assert.ErrorIs(t, err, service.ErrInviteDisabled)

	_, err = f.bids.Open(ctx, invite.Token)
	assert.ErrorIs(t, err, service.ErrInviteDisabled)

	_, err = f.invites.SetDisabled(ctx, invite.ID, false)
	require.NoError(t, err)
	_, err = f.invites.Unlock(ctx, invite.Token, "secret-pass")
	assert.NoError(t, err)
}

func TestInviteService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pkg := f.newPackage(t)
	invite := f.invite(t, pkg.ID, "Acme")

	_, err := f.invites.ChangePassword(ctx, invite.ID, "another-pass")
	require.NoError(t, err)

	_, err = f.invites.Unlock(ctx, invite.Token, "secret-pass")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = f.invites.Unlock(ctx, invite.Token, "another-pass")
	assert.NoError(t, err)

	invites, err := f.invites.List(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Len(t, invites, 1)
}
