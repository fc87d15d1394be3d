package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/model"
)

func TestAdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	regular := f.register("reg@example.com")
	target := f.register("target@example.com")

	_, err := f.admin.ListUsers(f.ctx, regular, 0, 10)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.admin.SuspendUser(f.ctx, regular, target.ID)
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.ErrorIs(t, f.admin.DeleteUser(f.ctx, regular, target.ID), ErrNotAllowed)
	assert.ErrorIs(t, f.admin.ForceDeleteEvent(f.ctx, regular, 1), ErrNotAllowed)
	_, err = f.admin.ListEvents(f.ctx, regular, model.EventFilter{})
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = f.admin.ListActivities(f.ctx, regular, 10)
	assert.ErrorIs(t, err, ErrNotAllowed)

	user, err := f.store.Users().GetByID(f.ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, user.IsActive, "rejected suspend must not mutate")
}

func TestSuspendBlocksLoginUntilReactivated(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	p := f.register("user@example.com")
	login := LoginInput{Email: "user@example.com", Password: testPassword}

	suspended, err := f.admin.SuspendUser(f.ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, suspended.IsActive)

	_, err = f.auth.Login(f.ctx, login)
	assert.ErrorIs(t, err, ErrUserSuspended)
	assert.ErrorIs(t, err, ErrAuth)

	reactivated, err := f.admin.ReactivateUser(f.ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)

	_, err = f.auth.Login(f.ctx, login)
	assert.NoError(t, err)
}

func TestSuspendKeepsOwnedEventsVisible(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	owner := f.register("owner@example.com")
	event := f.createEvent(owner, "Still on", nil)

	_, err := f.admin.SuspendUser(f.ctx, admin, owner.ID)
	require.NoError(t, err)

	_, err = f.events.GetEvent(f.ctx, event.ID)
	assert.NoError(t, err)
}

func TestAdminCannotSuspendSelf(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")

	_, err := f.admin.SuspendUser(f.ctx, admin, admin.ID)
	assert.ErrorIs(t, err, ErrSelfSuspend)

	_, err = f.admin.SuspendUser(f.ctx, admin, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	owner := f.register("owner@example.com")
	host := f.register("host@example.com")

	owned := f.createEvent(owner, "Owner's party", nil)
	other := f.createEvent(host, "Host's party", nil)
	require.NoError(t, f.events.JoinEvent(f.ctx, owner, other.ID))
	require.NoError(t, f.events.JoinEvent(f.ctx, host, owned.ID))

	require.NoError(t, f.admin.DeleteUser(f.ctx, admin, owner.ID))

	_, err := f.events.GetEvent(f.ctx, owned.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	participants, err := f.events.Participants(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{host.ID}, participants)

	assert.ErrorIs(t, f.admin.DeleteUser(f.ctx, admin, owner.ID), ErrUserNotFound)
}

func TestAdminUpdateUser(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	p := f.register("user@example.com")
	f.register("taken@example.com")

	_, err := f.auth.Authenticate(f.ctx, mustLogin(t, f, "user@example.com"))
	require.NoError(t, err)
	require.True(t, f.principals.has(p.ID))

	role := "admin"
	name := "Promoted"
	user, err := f.admin.UpdateUser(f.ctx, admin, p.ID, AdminUserPatch{Role: &role, DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, "Promoted", user.DisplayName)
	assert.False(t, f.principals.has(p.ID), "role change evicts the cached principal")

	bogus := "superuser"
	_, err = f.admin.UpdateUser(f.ctx, admin, p.ID, AdminUserPatch{Role: &bogus})
	assert.ErrorIs(t, err, ErrInvalidRole)

	taken := "taken@example.com"
	_, err = f.admin.UpdateUser(f.ctx, admin, p.ID, AdminUserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailExists)

	password := "brand-new-password"
	_, err = f.admin.UpdateUser(f.ctx, admin, p.ID, AdminUserPatch{Password: &password})
	require.NoError(t, err)
	_, err = f.auth.Login(f.ctx, LoginInput{Email: "user@example.com", Password: password})
	assert.NoError(t, err)
}

func TestAdminEventModeration(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	owner := f.register("owner@example.com")
	guest := f.register("guest@example.com")
	event := f.createEvent(owner, "Spam", nil)
	f.createEvent(owner, "Legit", nil)
	require.NoError(t, f.events.JoinEvent(f.ctx, guest, event.ID))

	seq, err := f.admin.ListEvents(f.ctx, admin, model.EventFilter{})
	require.NoError(t, err)
	count := 0
	for _, err := range seq {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)

	require.NoError(t, f.admin.ForceDeleteEvent(f.ctx, admin, event.ID))
	assert.Zero(t, f.participantCount(event.ID))
	assert.ErrorIs(t, f.admin.ForceDeleteEvent(f.ctx, admin, event.ID), ErrEventNotFound)

	activities, err := f.admin.ListActivities(f.ctx, admin, 1)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActionEventDeleted, activities[0].Action)
	assert.Equal(t, admin.ID, activities[0].ActorID)
}

func TestAdminListAndGetUsers(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	p := f.register("user@example.com")

	users, err := f.admin.ListUsers(f.ctx, admin, 0, 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	user, err := f.admin.GetUser(f.ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = f.admin.GetUser(f.ctx, admin, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func mustLogin(t *testing.T, f *fixture, email string) string {
	t.Helper()
	result, err := f.auth.Login(f.ctx, LoginInput{Email: email, Password: testPassword})
	require.NoError(t, err)
	return result.Token
}
