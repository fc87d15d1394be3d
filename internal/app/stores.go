package app

import (
	"context"
	"iter"

	"eventhub/internal/model"
)

// The store interfaces are satisfied by the gorm repositories and by
// repository/memstore.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update writes only the named model.UserColumn* columns.
	Update(ctx context.Context, user *model.User, columns ...string) error
	List(ctx context.Context, offset, limit int) ([]model.User, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id uint) (*model.Event, error)
	// Update writes only the named model.EventColumn* columns.
	Update(ctx context.Context, event *model.Event, columns ...string) error
	Delete(ctx context.Context, id uint) (bool, error)
	Iterate(ctx context.Context, filter model.EventFilter) iter.Seq2[model.Event, error]
}

type MembershipStore interface {
	Add(ctx context.Context, membership *model.Membership) error
	Remove(ctx context.Context, eventID, userID uint) (bool, error)
	Exists(ctx context.Context, eventID, userID uint) (bool, error)
	Count(ctx context.Context, eventID uint) (int64, error)
	ListUserIDs(ctx context.Context, eventID uint) ([]uint, error)
	ListUserIDsByEvents(ctx context.Context, eventIDs []uint) (map[uint][]uint, error)
}

type ActivityStore interface {
	ListRecent(ctx context.Context, limit int) ([]model.Activity, error)
}

type ContentStore interface {
	Create(ctx context.Context, content *model.SiteContent) error
	GetByKey(ctx context.Context, key string) (*model.SiteContent, error)
	List(ctx context.Context) ([]model.SiteContent, error)
	Update(ctx context.Context, content *model.SiteContent) error
	DeleteByKey(ctx context.Context, key string) (bool, error)
}

type ActivityPublisher interface {
	Publish(ctx context.Context, activity model.Activity) error
}

type PrincipalCache interface {
	Get(ctx context.Context, userID uint) (model.Principal, bool, error)
	Set(ctx context.Context, principal model.Principal) error
	Delete(ctx context.Context, userID uint) error
}

type ImageValidator interface {
	Normalize(raw string) (string, error)
}
