package app

import (
	"context"
	"iter"

	"github.com/rs/zerolog"

	"eventhub/internal/model"
	"eventhub/internal/policy"
)

// AdminService implements moderation. Routes reach it only through the
// admin middleware; every method still re-checks the caller's role.
type AdminService struct {
	users      UserStore
	events     *EventService
	activities ActivityStore
	principals PrincipalCache
	publisher  ActivityPublisher
	passwords  PasswordPolicy
	logger     zerolog.Logger
}

type AdminUserPatch struct {
	DisplayName *string
	Email       *string
	Password    *string
	Role        *string
}

func NewAdminService(
	users UserStore,
	events *EventService,
	activities ActivityStore,
	principals PrincipalCache,
	publisher ActivityPublisher,
	passwords PasswordPolicy,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		users:      users,
		events:     events,
		activities: activities,
		principals: principals,
		publisher:  publisher,
		passwords:  passwords,
		logger:     logger,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, admin model.Principal, offset, limit int) ([]model.User, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.users.List(ctx, offset, limit)
}

func (s *AdminService) GetUser(ctx context.Context, admin model.Principal, id uint) (*model.User, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.loadUser(ctx, id)
}

func (s *AdminService) UpdateUser(ctx context.Context, admin model.Principal, id uint, patch AdminUserPatch) (*model.User, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if patch.DisplayName != nil {
		name, err := normalizeDisplayName(*patch.DisplayName)
		if err != nil {
			return nil, err
		}
		user.DisplayName = name
		columns = append(columns, model.UserColumnDisplayName)
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			if err := ensureEmailFree(ctx, s.users, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
			columns = append(columns, model.UserColumnEmail)
		}
	}
	if patch.Password != nil {
		if err := s.passwords.check(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := s.passwords.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		columns = append(columns, model.UserColumnPasswordHash)
	}
	if patch.Role != nil {
		role, ok := model.ParseRole(*patch.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		user.Role = role
		columns = append(columns, model.UserColumnRole)
	}

	if err := saveUser(ctx, s.users, user, columns...); err != nil {
		return nil, err
	}
	evictPrincipal(ctx, s.principals, s.logger, user.ID)
	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID:      admin.ID,
		Action:       model.ActionUserUpdated,
		TargetUserID: uintPtr(user.ID),
	})
	return user, nil
}

// SuspendUser deactivates the account. Its outstanding tokens stop working
// once the principal cache entry is gone; owned events stay visible.
func (s *AdminService) SuspendUser(ctx context.Context, admin model.Principal, id uint) (*model.User, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	if admin.ID == id {
		return nil, ErrSelfSuspend
	}
	return s.setActive(ctx, admin, id, false, model.ActionUserSuspended)
}

func (s *AdminService) ReactivateUser(ctx context.Context, admin model.Principal, id uint) (*model.User, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.setActive(ctx, admin, id, true, model.ActionUserReactivated)
}

func (s *AdminService) DeleteUser(ctx context.Context, admin model.Principal, id uint) error {
	if !policy.CanModerate(admin) {
		return ErrNotAllowed
	}
	return deleteUser(ctx, s.users, s.principals, s.publisher, s.logger, admin, id)
}

// ListEvents returns every event matching filter without ownership scoping.
func (s *AdminService) ListEvents(ctx context.Context, admin model.Principal, filter model.EventFilter) (iter.Seq2[model.Event, error], error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.events.ListEvents(ctx, filter), nil
}

// ForceDeleteEvent deletes any event regardless of owner, with the same
// membership cascade as an owner delete.
func (s *AdminService) ForceDeleteEvent(ctx context.Context, admin model.Principal, id uint) error {
	if !policy.CanModerate(admin) {
		return ErrNotAllowed
	}
	return s.events.removeEvent(ctx, admin, id)
}

func (s *AdminService) ListActivities(ctx context.Context, admin model.Principal, limit int) ([]model.Activity, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.activities.ListRecent(ctx, limit)
}

func (s *AdminService) setActive(ctx context.Context, admin model.Principal, id uint, active bool, action model.ActivityAction) (*model.User, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	if err := saveUser(ctx, s.users, user, model.UserColumnIsActive); err != nil {
		return nil, err
	}
	evictPrincipal(ctx, s.principals, s.logger, id)
	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID:      admin.ID,
		Action:       action,
		TargetUserID: uintPtr(id),
	})
	return user, nil
}

func (s *AdminService) loadUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
