package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eventhub/internal/model"
	"eventhub/internal/policy"
	"eventhub/internal/repository"
)

const (
	maxInterests = 50
	maxGender    = 32
)

type UserService struct {
	users      UserStore
	principals PrincipalCache
	images     ImageValidator
	publisher  ActivityPublisher
	logger     zerolog.Logger
}

type AccountPatch struct {
	DisplayName *string
	Email       *string
}

// ProfilePatch carries a partial profile update; nil fields are left as is.
type ProfilePatch struct {
	BirthDate           *time.Time
	Gender              *string
	Interests           []string
	OnboardingCompleted *bool
	ProfilePhotoURL     *string
}

type Profile struct {
	BirthDate           *time.Time `json:"birth_date"`
	Gender              *string    `json:"gender"`
	Interests           []string   `json:"interests"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	ProfilePhotoURL     *string    `json:"profile_photo_url"`
}

func NewUserService(
	users UserStore,
	principals PrincipalCache,
	images ImageValidator,
	publisher ActivityPublisher,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		principals: principals,
		images:     images,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, error) {
	return s.users.List(ctx, offset, limit)
}

func (s *UserService) UpdateAccount(ctx context.Context, actor model.Principal, patch AccountPatch) (*model.User, error) {
	user, err := s.GetUser(ctx, actor.ID)
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

	if err := saveUser(ctx, s.users, user, columns...); err != nil {
		return nil, err
	}
	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID:      actor.ID,
		Action:       model.ActionUserUpdated,
		TargetUserID: uintPtr(user.ID),
	})
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, actor model.Principal) (*Profile, error) {
	user, err := s.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor model.Principal, patch ProfilePatch) (*Profile, error) {
	user, err := s.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	var columns []string
	if patch.BirthDate != nil {
		if patch.BirthDate.After(time.Now()) {
			return nil, newError(KindValidation, "birth date is in the future")
		}
		birthDate := patch.BirthDate.UTC().Truncate(24 * time.Hour)
		user.BirthDate = &birthDate
		columns = append(columns, model.UserColumnBirthDate)
	}
	if patch.Gender != nil {
		gender := strings.TrimSpace(*patch.Gender)
		if len(gender) > maxGender {
			return nil, newError(KindValidation, "gender is too long")
		}
		user.Gender = optionalString(gender)
		columns = append(columns, model.UserColumnGender)
	}
	if patch.Interests != nil {
		interests, err := normalizeInterests(patch.Interests)
		if err != nil {
			return nil, err
		}
		user.Interests = interests
		columns = append(columns, model.UserColumnInterests)
	}
	if patch.OnboardingCompleted != nil {
		user.OnboardingCompleted = *patch.OnboardingCompleted
		columns = append(columns, model.UserColumnOnboardingCompleted)
	}
	if patch.ProfilePhotoURL != nil {
		photo, err := s.normalizePhoto(*patch.ProfilePhotoURL)
		if err != nil {
			return nil, err
		}
		user.ProfilePhotoURL = optionalString(photo)
		columns = append(columns, model.UserColumnProfilePhotoURL)
	}

	if err := saveUser(ctx, s.users, user, columns...); err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// SetProfilePhoto stores the URL of an image already uploaded to the image
// host. An empty url clears the photo.
func (s *UserService) SetProfilePhoto(ctx context.Context, actor model.Principal, photoURL string) (*model.User, error) {
	user, err := s.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	photo, err := s.normalizePhoto(photoURL)
	if err != nil {
		return nil, err
	}
	user.ProfilePhotoURL = optionalString(photo)
	if err := saveUser(ctx, s.users, user, model.UserColumnProfilePhotoURL); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) OnboardingStatus(ctx context.Context, actor model.Principal) (bool, error) {
	user, err := s.GetUser(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	return user.OnboardingCompleted, nil
}

// DeleteUser removes targetID when actor is that user or an admin. Events
// the target owns are deleted with it.
func (s *UserService) DeleteUser(ctx context.Context, actor model.Principal, targetID uint) error {
	if !policy.CanDeleteUser(actor, targetID) {
		return ErrNotAllowed
	}
	return deleteUser(ctx, s.users, s.principals, s.publisher, s.logger, actor, targetID)
}

func (s *UserService) normalizePhoto(raw string) (string, error) {
	if s.images == nil {
		return strings.TrimSpace(raw), nil
	}
	photo, err := s.images.Normalize(raw)
	if err != nil {
		return "", ErrInvalidImageURL
	}
	return photo, nil
}

func deleteUser(
	ctx context.Context,
	users UserStore,
	principals PrincipalCache,
	publisher ActivityPublisher,
	logger zerolog.Logger,
	actor model.Principal,
	targetID uint,
) error {
	deleted, err := users.Delete(ctx, targetID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	evictPrincipal(ctx, principals, logger, targetID)
	recordActivity(ctx, publisher, logger, model.Activity{
		ActorID:      actor.ID,
		Action:       model.ActionUserDeleted,
		TargetUserID: uintPtr(targetID),
	})
	return nil
}

func ensureEmailFree(ctx context.Context, users UserStore, email string, selfID uint) error {
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrEmailExists
	}
	return nil
}

// saveUser writes the named columns of user. Columns another request
// changed meanwhile, such as is_active, are left alone.
func saveUser(ctx context.Context, users UserStore, user *model.User, columns ...string) error {
	err := users.Update(ctx, user, columns...)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrEmailExists
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	}
	return err
}

func normalizeInterests(raw []string) ([]string, error) {
	if len(raw) > maxInterests {
		return nil, newError(KindValidation, "too many interests")
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, interest := range raw {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			continue
		}
		if _, dup := seen[interest]; dup {
			continue
		}
		seen[interest] = struct{}{}
		out = append(out, interest)
	}
	return out, nil
}

func profileOf(user *model.User) *Profile {
	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	return &Profile{
		BirthDate:           user.BirthDate,
		Gender:              user.Gender,
		Interests:           interests,
		OnboardingCompleted: user.OnboardingCompleted,
		ProfilePhotoURL:     user.ProfilePhotoURL,
	}
}
