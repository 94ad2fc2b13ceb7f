package app

import (
	"context"
	"errors"
	"log/slog"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"identity-service/internal/model"
	"identity-service/internal/repository"
)

// ErrInvalidCredentials is returned for every failed login, whether the uid
// is unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid user credentials")

// ErrCacheInvalidation means a cached projection could not be dropped
// around a mutation.
var ErrCacheInvalidation = errors.New("user cache invalidation failed")

const sideEffectTimeout = 2 * time.Second

// dummySalt is hashed against on unknown uids so a failed lookup costs the
// same as a failed comparison.
var dummySalt = strings.Repeat("0", 128)

type UserStore interface {
	Insert(ctx context.Context, cred model.Credential) (model.PublicUser, error)
	SelectAll(ctx context.Context) (model.UserCollection, error)
	Select(ctx context.Context, id uint64) (model.PublicUser, error)
	FindByUID(ctx context.Context, uid string) (model.User, error)
	Update(ctx context.Context, id uint64, patch model.UserPatch) (model.PublicUser, error)
	Delete(ctx context.Context, id uint64) error
}

type PasswordVerifier interface {
	Verify(candidate, salt, stored string) bool
}

type UserCache interface {
	GetUser(ctx context.Context, id uint64) (model.PublicUser, bool, error)
	SetUser(ctx context.Context, user model.PublicUser) error
	DeleteUser(ctx context.Context, id uint64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.UserEvent) error
}

type UserService struct {
	store     UserStore
	verifier  PasswordVerifier
	cache     UserCache
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	// mutations counts completed store writes. Get only fills the cache
	// when no write finished while it was reading the store.
	mutations atomic.Uint64
}

type UserServiceOption func(*UserService)

func WithUserCache(cache UserCache) UserServiceOption {
	return func(s *UserService) {
		s.cache = cache
	}
}

func WithEventPublisher(publisher EventPublisher) UserServiceOption {
	return func(s *UserService) {
		s.publisher = publisher
	}
}

func NewUserService(store UserStore, verifier PasswordVerifier, logger *slog.Logger, opts ...UserServiceOption) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &UserService{
		store:    store,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserService) Create(ctx context.Context, cred model.Credential) (model.PublicUser, error) {
	user, err := s.store.Insert(ctx, cred)
	if err != nil {
		return model.PublicUser{}, err
	}
	s.publish(ctx, model.UserCreated, user)
	return user, nil
}

func (s *UserService) List(ctx context.Context) (model.UserCollection, error) {
	return s.store.SelectAll(ctx)
}

// Get reads through the cache when one is configured. Cache failures are
// logged and the store answers instead.
func (s *UserService) Get(ctx context.Context, id uint64) (model.PublicUser, error) {
	if s.cache != nil {
		user, ok, err := s.cache.GetUser(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "user cache read failed", "id", id, "error", err)
		}
		if ok {
			return user, nil
		}
	}

	seen := s.mutations.Load()
	user, err := s.store.Select(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}

	if s.cache != nil && s.mutations.Load() == seen {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "user cache write failed", "id", id, "error", err)
		}
	}
	return user, nil
}

// Update and Delete drop the cached projection before and after the store
// write. If the first drop fails the store is left untouched; if the
// second fails the write stands, the event is still published and the
// caller gets ErrCacheInvalidation.
func (s *UserService) Update(ctx context.Context, id uint64, patch model.UserPatch) (model.PublicUser, error) {
	if err := s.invalidate(ctx, id); err != nil {
		return model.PublicUser{}, err
	}
	user, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.PublicUser{}, err
	}
	s.mutations.Add(1)

	invalidateErr := s.invalidate(ctx, id)
	s.publish(ctx, model.UserUpdated, user)
	if invalidateErr != nil {
		return model.PublicUser{}, invalidateErr
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint64) error {
	if err := s.invalidate(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.mutations.Add(1)

	invalidateErr := s.invalidate(ctx, id)
	s.publish(ctx, model.UserDeleted, model.PublicUser{ID: id})
	return invalidateErr
}

// Login checks a credential against the stored salt and digest. No session
// or token is issued; the caller only learns whether the pair is valid.
func (s *UserService) Login(ctx context.Context, cred model.Credential) (model.PublicUser, error) {
	user, err := s.store.FindByUID(ctx, cred.UID)
	if errors.Is(err, repository.ErrNotFound) {
		s.verifier.Verify(cred.Pwd, dummySalt, "")
		return model.PublicUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	if !s.verifier.Verify(cred.Pwd, user.Salt, user.Pass) {
		return model.PublicUser{}, ErrInvalidCredentials
	}
	return user.Public(), nil
}

func (s *UserService) invalidate(ctx context.Context, id uint64) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%w: id %d: %v", ErrCacheInvalidation, id, err)
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType string, user model.PublicUser) {
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	event := model.UserEvent{
		Type:       eventType,
		User:       user,
		OccurredAt: s.now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger.WarnContext(ctx, "publish user event failed", "type", eventType, "id", user.ID, "error", err)
	}
}
