package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventhub/internal/imageref"
	"eventhub/internal/model"
	"eventhub/internal/repository/memstore"
)

const testPassword = "correct-horse"

type fixture struct {
	t          *testing.T
	ctx        context.Context
	store      *memstore.Store
	principals *mapPrincipalCache

	mu  sync.Mutex
	now time.Time

	auth     *AuthService
	users    *UserService
	events   *EventService
	admin    *AdminService
	contents *ContentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		store:      memstore.New(),
		principals: newMapPrincipalCache(),
		now:        time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	passwords := PasswordPolicy{MinLength: 8, BcryptCost: bcrypt.MinCost}
	images := imageref.New([]string{"img.example.com"}, true)
	activities := f.store.Activities()
	logger := zerolog.Nop()

	f.auth = NewAuthService(f.store.Users(), f.principals, activities, AuthOptions{
		JWTSecret: "fixture-secret",
		TokenTTL:  30 * time.Minute,
		Issuer:    "eventhub-test",
		Passwords: passwords,
		Now:       f.clock,
	}, logger)
	f.users = NewUserService(f.store.Users(), f.principals, images, activities, logger)
	f.events = NewEventService(f.store.Events(), f.store.Memberships(), images, activities, logger)
	f.admin = NewAdminService(f.store.Users(), f.events, activities, f.principals, activities, passwords, logger)
	f.contents = NewContentService(f.store.Contents())
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) register(email string) model.Principal {
	f.t.Helper()
	user, err := f.auth.Register(f.ctx, RegisterInput{
		Email:       email,
		Password:    testPassword,
		DisplayName: "User " + email,
	})
	require.NoError(f.t, err)
	return user.Principal()
}

func (f *fixture) registerAdmin(email string) model.Principal {
	f.t.Helper()
	p := f.register(email)
	users := f.store.Users()
	user, err := users.GetByID(f.ctx, p.ID)
	require.NoError(f.t, err)
	user.Role = model.RoleAdmin
	require.NoError(f.t, users.Update(f.ctx, user, model.UserColumnRole))
	return user.Principal()
}

func (f *fixture) createEvent(owner model.Principal, title string, capacity *int) *EventView {
	f.t.Helper()
	view, err := f.events.CreateEvent(f.ctx, owner, EventInput{
		Title:           title,
		Location:        "Main Hall",
		StartsAt:        f.clock().Add(24 * time.Hour),
		MaxParticipants: capacity,
	})
	require.NoError(f.t, err)
	return view
}

func (f *fixture) participantCount(eventID uint) int64 {
	f.t.Helper()
	count, err := f.store.Memberships().Count(f.ctx, eventID)
	require.NoError(f.t, err)
	return count
}

func (f *fixture) actions() []model.ActivityAction {
	f.t.Helper()
	recent, err := f.store.Activities().ListRecent(f.ctx, 0)
	require.NoError(f.t, err)
	out := make([]model.ActivityAction, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		out = append(out, recent[i].Action)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

type mapPrincipalCache struct {
	mu      sync.Mutex
	entries map[uint]model.Principal
	deletes int
}

func newMapPrincipalCache() *mapPrincipalCache {
	return &mapPrincipalCache{entries: make(map[uint]model.Principal)}
}

func (c *mapPrincipalCache) Get(_ context.Context, userID uint) (model.Principal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[userID]
	return p, ok, nil
}

func (c *mapPrincipalCache) Set(_ context.Context, principal model.Principal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[principal.ID] = principal
	return nil
}

func (c *mapPrincipalCache) Delete(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.deletes++
	return nil
}

func (c *mapPrincipalCache) has(userID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[userID]
	return ok
}

// interleavingUsers runs hook once, right after the first GetByID returns,
// so another request's write lands between a service's load and its save.
type interleavingUsers struct {
	UserStore
	once sync.Once
	hook func()
}

func (u *interleavingUsers) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := u.UserStore.GetByID(ctx, id)
	u.once.Do(u.hook)
	return user, err
}

type interleavingEvents struct {
	EventStore
	once sync.Once
	hook func()
}

func (e *interleavingEvents) GetByID(ctx context.Context, id uint) (*model.Event, error) {
	event, err := e.EventStore.GetByID(ctx, id)
	e.once.Do(e.hook)
	return event, err
}
