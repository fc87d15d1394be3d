// Package memstore is an in-memory implementation of the repository
// method sets. It mirrors the gorm repositories' contracts (nil on
// not-found, ErrDuplicate, column-scoped updates, foreign keys, cascades)
// and backs service and handler tests.
package memstore

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/repository"
)

type Store struct {
	mu sync.Mutex

	now func() time.Time

	nextUserID     uint
	nextEventID    uint
	nextActivityID uint
	nextContentID  uint

	users       map[uint]model.User
	events      map[uint]model.Event
	memberships map[membershipKey]model.Membership
	activities  []model.Activity
	contents    map[string]model.SiteContent
}

type membershipKey struct {
	eventID uint
	userID  uint
}

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[uint]model.User),
		events:      make(map[uint]model.Event),
		memberships: make(map[membershipKey]model.Membership),
		contents:    make(map[string]model.SiteContent),
	}
}

func (s *Store) Users() *Users             { return &Users{s: s} }
func (s *Store) Events() *Events           { return &Events{s: s} }
func (s *Store) Memberships() *Memberships { return &Memberships{s: s} }
func (s *Store) Activities() *Activities   { return &Activities{s: s} }
func (s *Store) Contents() *Contents       { return &Contents{s: s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *model.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleRegular
	}
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			found := cloneUser(user)
			return &found, nil
		}
	}
	return nil, nil
}

func (u *Users) GetByID(_ context.Context, id uint) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	found := cloneUser(user)
	return &found, nil
}

func (u *Users) Update(_ context.Context, user *model.User, columns ...string) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(columns) == 0 {
		return nil
	}
	stored, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	src := cloneUser(*user)
	for _, column := range columns {
		switch column {
		case model.UserColumnEmail:
			for id, existing := range s.users {
				if id != user.ID && existing.Email == user.Email {
					return repository.ErrDuplicate
				}
			}
			stored.Email = src.Email
		case model.UserColumnPasswordHash:
			stored.PasswordHash = src.PasswordHash
		case model.UserColumnDisplayName:
			stored.DisplayName = src.DisplayName
		case model.UserColumnProfilePhotoURL:
			stored.ProfilePhotoURL = src.ProfilePhotoURL
		case model.UserColumnRole:
			stored.Role = src.Role
		case model.UserColumnIsActive:
			stored.IsActive = src.IsActive
		case model.UserColumnBirthDate:
			stored.BirthDate = src.BirthDate
		case model.UserColumnGender:
			stored.Gender = src.Gender
		case model.UserColumnInterests:
			stored.Interests = src.Interests
		case model.UserColumnOnboardingCompleted:
			stored.OnboardingCompleted = src.OnboardingCompleted
		default:
			return fmt.Errorf("unknown user column %q", column)
		}
	}
	stored.UpdatedAt = s.now()
	user.UpdatedAt = stored.UpdatedAt
	s.users[user.ID] = stored
	return nil
}

func (u *Users) List(_ context.Context, offset, limit int) ([]model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]model.User, 0, len(ids))
	for _, id := range page(ids, offset, limit) {
		out = append(out, cloneUser(s.users[id]))
	}
	return out, nil
}

func (u *Users) Delete(_ context.Context, id uint) (bool, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	for eventID, event := range s.events {
		if event.OwnerID == id {
			s.deleteEventLocked(eventID)
		}
	}
	for key := range s.memberships {
		if key.userID == id {
			delete(s.memberships, key)
		}
	}
	delete(s.users, id)
	return true, nil
}

type Events struct{ s *Store }

func (e *Events) Create(_ context.Context, event *model.Event) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[event.OwnerID]; !ok {
		return repository.ErrNotFound
	}
	s.nextEventID++
	now := s.now()
	event.ID = s.nextEventID
	event.CreatedAt = now
	event.UpdatedAt = now
	s.events[event.ID] = cloneEvent(*event)
	key := membershipKey{eventID: event.ID, userID: event.OwnerID}
	s.memberships[key] = model.Membership{EventID: event.ID, UserID: event.OwnerID, JoinedAt: now}
	return nil
}

func (e *Events) GetByID(_ context.Context, id uint) (*model.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	found := cloneEvent(event)
	return &found, nil
}

func (e *Events) Update(_ context.Context, event *model.Event, columns ...string) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(columns) == 0 {
		return nil
	}
	stored, ok := s.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}
	src := cloneEvent(*event)
	for _, column := range columns {
		switch column {
		case model.EventColumnTitle:
			stored.Title = src.Title
		case model.EventColumnDescription:
			stored.Description = src.Description
		case model.EventColumnLocation:
			stored.Location = src.Location
		case model.EventColumnStartsAt:
			stored.StartsAt = src.StartsAt
		case model.EventColumnMaxParticipants:
			stored.MaxParticipants = src.MaxParticipants
		case model.EventColumnImageURL:
			stored.ImageURL = src.ImageURL
		default:
			return fmt.Errorf("unknown event column %q", column)
		}
	}
	stored.UpdatedAt = s.now()
	event.UpdatedAt = stored.UpdatedAt
	s.events[event.ID] = stored
	return nil
}

func (e *Events) Delete(_ context.Context, id uint) (bool, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	s.deleteEventLocked(id)
	return true, nil
}

func (e *Events) Iterate(_ context.Context, filter model.EventFilter) iter.Seq2[model.Event, error] {
	return func(yield func(model.Event, error) bool) {
		s := e.s
		s.mu.Lock()
		matched := make([]model.Event, 0, len(s.events))
		for _, event := range s.events {
			if s.matchesLocked(event, filter) {
				matched = append(matched, cloneEvent(event))
			}
		}
		s.mu.Unlock()

		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].StartsAt.Equal(matched[j].StartsAt) {
				return matched[i].StartsAt.Before(matched[j].StartsAt)
			}
			return matched[i].ID < matched[j].ID
		})
		for _, event := range page(matched, filter.Offset, filter.Limit) {
			if !yield(event, nil) {
				return
			}
		}
	}
}

func (s *Store) matchesLocked(event model.Event, filter model.EventFilter) bool {
	if filter.From != nil && event.StartsAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !event.StartsAt.Before(*filter.To) {
		return false
	}
	if location := strings.TrimSpace(filter.Location); location != "" &&
		!strings.Contains(strings.ToLower(event.Location), strings.ToLower(location)) {
		return false
	}
	if filter.OwnerID != 0 && event.OwnerID != filter.OwnerID {
		return false
	}
	if filter.ParticipantID != 0 {
		if _, ok := s.memberships[membershipKey{eventID: event.ID, userID: filter.ParticipantID}]; !ok {
			return false
		}
	}
	return true
}

func (s *Store) deleteEventLocked(id uint) {
	for key := range s.memberships {
		if key.eventID == id {
			delete(s.memberships, key)
		}
	}
	delete(s.events, id)
}

type Memberships struct{ s *Store }

func (m *Memberships) Add(_ context.Context, membership *model.Membership) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[membership.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[membership.UserID]; !ok {
		return repository.ErrNotFound
	}
	key := membershipKey{eventID: membership.EventID, userID: membership.UserID}
	if _, exists := s.memberships[key]; exists {
		return repository.ErrDuplicate
	}
	if event.MaxParticipants != nil && s.countLocked(event.ID) >= *event.MaxParticipants {
		return repository.ErrCapacityReached
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = s.now()
	}
	s.memberships[key] = *membership
	return nil
}

func (m *Memberships) Remove(_ context.Context, eventID, userID uint) (bool, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{eventID: eventID, userID: userID}
	if _, ok := s.memberships[key]; !ok {
		return false, nil
	}
	delete(s.memberships, key)
	return true, nil
}

func (m *Memberships) Exists(_ context.Context, eventID, userID uint) (bool, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.memberships[membershipKey{eventID: eventID, userID: userID}]
	return ok, nil
}

func (m *Memberships) Count(_ context.Context, eventID uint) (int64, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(s.countLocked(eventID)), nil
}

func (m *Memberships) ListUserIDs(_ context.Context, eventID uint) ([]uint, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.participantsLocked(eventID), nil
}

func (m *Memberships) ListUserIDsByEvents(_ context.Context, eventIDs []uint) (map[uint][]uint, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uint][]uint, len(eventIDs))
	for _, id := range eventIDs {
		if ids := s.participantsLocked(id); len(ids) > 0 {
			out[id] = ids
		}
	}
	return out, nil
}

func (s *Store) countLocked(eventID uint) int {
	count := 0
	for key := range s.memberships {
		if key.eventID == eventID {
			count++
		}
	}
	return count
}

func (s *Store) participantsLocked(eventID uint) []uint {
	rows := make([]model.Membership, 0)
	for key, row := range s.memberships {
		if key.eventID == eventID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].JoinedAt.Equal(rows[j].JoinedAt) {
			return rows[i].JoinedAt.Before(rows[j].JoinedAt)
		}
		return rows[i].UserID < rows[j].UserID
	})
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids
}

type Activities struct{ s *Store }

func (a *Activities) Create(_ context.Context, activity *model.Activity) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextActivityID++
	activity.ID = s.nextActivityID
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = s.now()
	}
	s.activities = append(s.activities, *activity)
	return nil
}

// Publish stores the activity synchronously so tests can stand in for the
// queue publisher.
func (a *Activities) Publish(ctx context.Context, activity model.Activity) error {
	return a.Create(ctx, &activity)
}

func (a *Activities) ListRecent(_ context.Context, limit int) ([]model.Activity, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Activity, 0, len(s.activities))
	for i := len(s.activities) - 1; i >= 0; i-- {
		out = append(out, s.activities[i])
	}
	return page(out, 0, limit), nil
}

type Contents struct{ s *Store }

func (c *Contents) Create(_ context.Context, content *model.SiteContent) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contents[content.Key]; exists {
		return repository.ErrDuplicate
	}
	s.nextContentID++
	content.ID = s.nextContentID
	stored, ok := s.contents[content.Key]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Value = content.Value
	stored.UpdatedAt = s.now()
	content.UpdatedAt = stored.UpdatedAt
	s.contents[content.Key] = stored
	return nil
}

func (c *Contents) GetByKey(_ context.Context, key string) (*model.SiteContent, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.contents[key]
	if !ok {
		return nil, nil
	}
	return &content, nil
}

func (c *Contents) List(_ context.Context) ([]model.SiteContent, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.SiteContent, 0, len(s.contents))
	for _, content := range s.contents {
		out = append(out, content)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (c *Contents) Update(_ context.Context, content *model.SiteContent) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.contents[content.Key]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Value = content.Value
	stored.UpdatedAt = s.now()
	content.UpdatedAt = stored.UpdatedAt
	s.contents[content.Key] = stored
	return nil
}

func (c *Contents) DeleteByKey(_ context.Context, key string) (bool, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contents[key]; !ok {
		return false, nil
	}
	delete(s.contents, key)
	return true, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneUser(user model.User) model.User {
	user.Interests = slices.Clone(user.Interests)
	if user.ProfilePhotoURL != nil {
		photo := *user.ProfilePhotoURL
		user.ProfilePhotoURL = &photo
	}
	return user
}

func cloneEvent(event model.Event) model.Event {
	if event.ImageURL != nil {
		image := *event.ImageURL
		event.ImageURL = &image
	}
	if event.MaxParticipants != nil {
		limit := *event.MaxParticipants
		event.MaxParticipants = &limit
	}
	return event
}
