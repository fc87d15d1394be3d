package app

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"eventhub/internal/model"
	"eventhub/internal/policy"
	"eventhub/internal/repository"
)

const maxEventTitle = 200

type EventService struct {
	events    EventStore
	members   MembershipStore
	images    ImageValidator
	publisher ActivityPublisher
	logger    zerolog.Logger
}

type EventInput struct {
	Title           string
	Description     string
	Location        string
	StartsAt        time.Time
	MaxParticipants *int
	ImageURL        string
}

// EventPatch carries a partial update; nil fields are left untouched.
type EventPatch struct {
	Title           *string
	Description     *string
	Location        *string
	StartsAt        *time.Time
	MaxParticipants *int
	ImageURL        *string
}

type EventView struct {
	model.Event
	Participants     []uint `json:"participants"`
	ParticipantCount int    `json:"participant_count"`
}

func NewEventService(
	events EventStore,
	members MembershipStore,
	images ImageValidator,
	publisher ActivityPublisher,
	logger zerolog.Logger,
) *EventService {
	return &EventService{
		events:    events,
		members:   members,
		images:    images,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, actor model.Principal, input EventInput) (*EventView, error) {
	if actor.ID == 0 {
		return nil, ErrInvalidToken
	}

	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.StartsAt.IsZero() {
		return nil, ErrEventStartRequired
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return nil, ErrInvalidCapacity
	}
	imageURL, err := s.normalizeImage(input.ImageURL)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		OwnerID:         actor.ID,
		ImageURL:        optionalString(imageURL),
		StartsAt:        input.StartsAt.UTC(),
		Location:        strings.TrimSpace(input.Location),
		MaxParticipants: input.MaxParticipants,
	}
	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID: actor.ID,
		Action:  model.ActionEventCreated,
		EventID: uintPtr(event.ID),
	})
	return &EventView{Event: *event, Participants: []uint{actor.ID}, ParticipantCount: 1}, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (*EventView, error) {
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, event)
}

func (s *EventService) UpdateEvent(ctx context.Context, actor model.Principal, id uint, patch EventPatch) (*EventView, error) {
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditEvent(actor, event) {
		return nil, ErrNotEventEditor
	}

	var columns []string
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		event.Title = title
		columns = append(columns, model.EventColumnTitle)
	}
	if patch.Description != nil {
		event.Description = strings.TrimSpace(*patch.Description)
		columns = append(columns, model.EventColumnDescription)
	}
	if patch.Location != nil {
		event.Location = strings.TrimSpace(*patch.Location)
		columns = append(columns, model.EventColumnLocation)
	}
	if patch.StartsAt != nil {
		if patch.StartsAt.IsZero() {
			return nil, ErrEventStartRequired
		}
		event.StartsAt = patch.StartsAt.UTC()
		columns = append(columns, model.EventColumnStartsAt)
	}
	if patch.MaxParticipants != nil {
		if *patch.MaxParticipants <= 0 {
			return nil, ErrInvalidCapacity
		}
		limit := *patch.MaxParticipants
		event.MaxParticipants = &limit
		columns = append(columns, model.EventColumnMaxParticipants)
	}
	if patch.ImageURL != nil {
		imageURL, err := s.normalizeImage(*patch.ImageURL)
		if err != nil {
			return nil, err
		}
		event.ImageURL = optionalString(imageURL)
		columns = append(columns, model.EventColumnImageURL)
	}

	if err := s.events.Update(ctx, event, columns...); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID: actor.ID,
		Action:  model.ActionEventUpdated,
		EventID: uintPtr(event.ID),
	})
	return s.view(ctx, event)
}

// SetEventImage replaces the event image reference; an empty url clears it.
func (s *EventService) SetEventImage(ctx context.Context, actor model.Principal, id uint, imageURL string) (*EventView, error) {
	return s.UpdateEvent(ctx, actor, id, EventPatch{ImageURL: &imageURL})
}

func (s *EventService) DeleteEvent(ctx context.Context, actor model.Principal, id uint) error {
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanEditEvent(actor, event) {
		return ErrNotEventEditor
	}
	return s.removeEvent(ctx, actor, id)
}

func (s *EventService) removeEvent(ctx context.Context, actor model.Principal, id uint) error {
	deleted, err := s.events.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEventNotFound
	}
	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID: actor.ID,
		Action:  model.ActionEventDeleted,
		EventID: uintPtr(id),
	})
	return nil
}

func (s *EventService) JoinEvent(ctx context.Context, actor model.Principal, id uint) error {
	if actor.ID == 0 {
		return ErrInvalidToken
	}
	if _, err := s.loadEvent(ctx, id); err != nil {
		return err
	}

	member, err := s.members.Exists(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}

	err = s.members.Add(ctx, &model.Membership{
		EventID:  id,
		UserID:   actor.ID,
		JoinedAt: time.Now().UTC(),
	})
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyMember
	case errors.Is(err, repository.ErrCapacityReached):
		return ErrEventFull
	case errors.Is(err, repository.ErrNotFound):
		return ErrEventNotFound
	case err != nil:
		return err
	}

	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID: actor.ID,
		Action:  model.ActionEventJoined,
		EventID: uintPtr(id),
	})
	return nil
}

// LeaveEvent removes the caller's membership. Owners cannot leave; they
// delete the event instead.
func (s *EventService) LeaveEvent(ctx context.Context, actor model.Principal, id uint) error {
	if actor.ID == 0 {
		return ErrInvalidToken
	}
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.OwnerID == actor.ID {
		return ErrOwnerCannotLeave
	}

	removed, err := s.members.Remove(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMember
	}

	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID: actor.ID,
		Action:  model.ActionEventLeft,
		EventID: uintPtr(id),
	})
	return nil
}

// ListEvents returns a lazy, finite sequence of events matching filter.
// Ranging over it again re-runs the query.
func (s *EventService) ListEvents(ctx context.Context, filter model.EventFilter) iter.Seq2[model.Event, error] {
	return s.events.Iterate(ctx, filter)
}

// ListEventViews drains ListEvents and attaches participants in one query.
func (s *EventService) ListEventViews(ctx context.Context, filter model.EventFilter) ([]EventView, error) {
	events := make([]model.Event, 0)
	for event, err := range s.ListEvents(ctx, filter) {
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	ids := make([]uint, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}
	participants, err := s.members.ListUserIDsByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		members := participants[event.ID]
		if members == nil {
			members = []uint{}
		}
		views = append(views, EventView{Event: event, Participants: members, ParticipantCount: len(members)})
	}
	return views, nil
}

func (s *EventService) Participants(ctx context.Context, id uint) ([]uint, error) {
	if _, err := s.loadEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.members.ListUserIDs(ctx, id)
}

func (s *EventService) loadEvent(ctx context.Context, id uint) (*model.Event, error) {
	if id == 0 {
		return nil, ErrEventNotFound
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) view(ctx context.Context, event *model.Event) (*EventView, error) {
	participants, err := s.members.ListUserIDs(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if participants == nil {
		participants = []uint{}
	}
	return &EventView{Event: *event, Participants: participants, ParticipantCount: len(participants)}, nil
}

func (s *EventService) normalizeImage(raw string) (string, error) {
	if s.images == nil {
		return strings.TrimSpace(raw), nil
	}
	normalized, err := s.images.Normalize(raw)
	if err != nil {
		return "", ErrInvalidImageURL
	}
	return normalized, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEventTitleRequired
	}
	if utf8.RuneCountInString(title) > maxEventTitle {
		return "", newError(KindValidation, "event title is too long")
	}
	return title, nil
}
