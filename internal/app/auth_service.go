package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"eventhub/internal/model"
	"eventhub/internal/pkg/jwtutil"
	"eventhub/internal/repository"
)

type AuthService struct {
	users      UserStore
	principals PrincipalCache
	publisher  ActivityPublisher
	passwords  PasswordPolicy
	jwtSecret  string
	jwtTTL     time.Duration
	jwtIssuer  string
	now        func() time.Time
	logger     zerolog.Logger
}

type AuthOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
	Passwords PasswordPolicy
	// Now overrides the clock used for token issue and verification.
	Now func() time.Time
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

func NewAuthService(
	users UserStore,
	principals PrincipalCache,
	publisher ActivityPublisher,
	opts AuthOptions,
	logger zerolog.Logger,
) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		users:      users,
		principals: principals,
		publisher:  publisher,
		passwords:  opts.Passwords,
		jwtSecret:  opts.JWTSecret,
		jwtTTL:     opts.TokenTTL,
		jwtIssuer:  opts.Issuer,
		now:        opts.Now,
		logger:     logger,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	displayName, err := normalizeDisplayName(input.DisplayName)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.check(input.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := s.passwords.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         model.RoleRegular,
		IsActive:     true,
		Interests:    []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	recordActivity(ctx, s.publisher, s.logger, model.Activity{
		ActorID:      user.ID,
		Action:       model.ActionUserRegistered,
		TargetUserID: uintPtr(user.ID),
	})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	if input.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}
	if !user.IsActive {
		return nil, ErrUserSuspended
	}

	token, expiresAt, err := jwtutil.GenerateTokenAt(s.jwtSecret, s.jwtTTL, s.jwtIssuer, user.ID, string(user.Role), s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// VerifyToken checks signature and expiry only; it never touches storage.
func (s *AuthService) VerifyToken(token string) (uint, error) {
	claims, err := jwtutil.ParseTokenAt(s.jwtSecret, token, s.now())
	if err != nil {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// Authenticate verifies the token and resolves the caller, rejecting
// deleted and suspended accounts.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	userID, err := s.VerifyToken(token)
	if err != nil {
		return model.Principal{}, err
	}

	if s.principals != nil {
		cached, hit, cacheErr := s.principals.Get(ctx, userID)
		if cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Uint("user_id", userID).Msg("principal cache read failed")
		}
		if cacheErr == nil && hit {
			if !cached.IsActive {
				return model.Principal{}, ErrUserSuspended
			}
			return cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Principal{}, err
	}
	if user == nil {
		return model.Principal{}, ErrInvalidToken
	}

	principal := user.Principal()
	if s.principals != nil {
		if err := s.principals.Set(ctx, principal); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("principal cache write failed")
		}
		// A suspension or role change that committed between the read and
		// the cache write has already evicted; drop the stale entry too.
		fresh, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return model.Principal{}, err
		}
		if fresh == nil || fresh.Principal() != principal {
			evictPrincipal(ctx, s.principals, s.logger, userID)
			if fresh == nil {
				return model.Principal{}, ErrInvalidToken
			}
			principal = fresh.Principal()
		}
	}
	if !principal.IsActive {
		return model.Principal{}, ErrUserSuspended
	}
	return principal, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrValidation
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
