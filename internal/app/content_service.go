package app

import (
	"context"
	"errors"
	"strings"

	"eventhub/internal/model"
	"eventhub/internal/policy"
	"eventhub/internal/repository"
)

const maxContentKey = 128

// ContentService manages the key/value strings the frontend renders
// (banners, about text). Only admins may touch it.
type ContentService struct {
	contents ContentStore
}

func NewContentService(contents ContentStore) *ContentService {
	return &ContentService{contents: contents}
}

func (s *ContentService) List(ctx context.Context, admin model.Principal) ([]model.SiteContent, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.contents.List(ctx)
}

func (s *ContentService) Get(ctx context.Context, admin model.Principal, key string) (*model.SiteContent, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	return s.load(ctx, key)
}

func (s *ContentService) Create(ctx context.Context, admin model.Principal, key, value string) (*model.SiteContent, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	key, err := normalizeContentKey(key)
	if err != nil {
		return nil, err
	}

	content := &model.SiteContent{Key: key, Value: value}
	if err := s.contents.Create(ctx, content); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrContentExists
		}
		return nil, err
	}
	return content, nil
}

func (s *ContentService) Update(ctx context.Context, admin model.Principal, key, value string) (*model.SiteContent, error) {
	if !policy.CanModerate(admin) {
		return nil, ErrNotAllowed
	}
	content, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	content.Value = value
	if err := s.contents.Update(ctx, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *ContentService) Delete(ctx context.Context, admin model.Principal, key string) error {
	if !policy.CanModerate(admin) {
		return ErrNotAllowed
	}
	key, err := normalizeContentKey(key)
	if err != nil {
		return err
	}
	deleted, err := s.contents.DeleteByKey(ctx, key)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrContentNotFound
	}
	return nil
}

func (s *ContentService) load(ctx context.Context, key string) (*model.SiteContent, error) {
	key, err := normalizeContentKey(key)
	if err != nil {
		return nil, err
	}
	content, err := s.contents.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}
	return content, nil
}

func normalizeContentKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > maxContentKey {
		return "", ErrContentKeyMissing
	}
	return key, nil
}
