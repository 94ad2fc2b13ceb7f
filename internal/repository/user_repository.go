package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"identity-service/internal/model"
	"identity-service/internal/pkg/password"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrConflict carries no detail about which value collided.
	ErrConflict = errors.New("error creating user")
)

// Digester derives the stored password digest from a salt and a plaintext.
type Digester interface {
	Digest(salt, plaintext string) (string, error)
}

type UserRepository struct {
	db        *gorm.DB
	digester  Digester
	saltBytes int
	now       func() time.Time
}

type Option func(*UserRepository)

// WithClock overrides the time source used for created/edited.
func WithClock(now func() time.Time) Option {
	return func(r *UserRepository) {
		r.now = now
	}
}

func NewUserRepository(db *gorm.DB, digester Digester, saltBytes int, opts ...Option) *UserRepository {
	r := &UserRepository{
		db:        db,
		digester:  digester,
		saltBytes: saltBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Insert salts and hashes the credential and stores a new user.
func (r *UserRepository) Insert(ctx context.Context, cred model.Credential) (model.PublicUser, error) {
	salt, err := password.GenerateSalt(r.saltBytes)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("generate salt failed: %w", err)
	}
	pass, err := r.digester.Digest(salt, cred.Pwd)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password failed: %w", err)
	}

	now := r.timestamp()
	user := model.User{
		UID:     cred.UID,
		Salt:    salt,
		Pass:    pass,
		Created: now,
		Edited:  now,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return model.PublicUser{}, ErrConflict
		}
		return model.PublicUser{}, fmt.Errorf("create user failed: %w", err)
	}
	return user.Public(), nil
}

// SelectAll lists every user ordered by id.
func (r *UserRepository) SelectAll(ctx context.Context) (model.UserCollection, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return model.UserCollection{}, fmt.Errorf("query users failed: %w", err)
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return model.UserCollection{Users: out, Count: len(out)}, nil
}

func (r *UserRepository) Select(ctx context.Context, id uint64) (model.PublicUser, error) {
	user, err := r.take(ctx, "id = ?", id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// FindByUID returns the full row including salt and digest. It is meant for
// credential verification only.
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (model.User, error) {
	return r.take(ctx, "uid = ?", uid)
}

// Update merges the supplied mutable fields into the user and bumps edited.
// The read and the write are not wrapped in a transaction; concurrent
// updates of the same id resolve as last writer wins.
func (r *UserRepository) Update(ctx context.Context, id uint64, patch model.UserPatch) (model.PublicUser, error) {
	current, err := r.take(ctx, "id = ?", id)
	if err != nil {
		return model.PublicUser{}, err
	}

	uid := current.UID
	if patch.UID != nil {
		uid = *patch.UID
	}

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"uid":    uid,
			"edited": r.timestamp(),
		})
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return model.PublicUser{}, ErrConflict
		}
		return model.PublicUser{}, fmt.Errorf("update user failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.PublicUser{}, ErrNotFound
	}
	return r.Select(ctx, id)
}

// Delete hard-deletes the user. Deleting an absent id yields ErrNotFound.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) take(ctx context.Context, query string, arg any) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("query user failed: %w", err)
	}
	return user, nil
}

func (r *UserRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
