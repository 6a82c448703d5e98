package repositories

import (
	"context"
	"errors"

	"peerpay/internal/models"
	"peerpay/internal/repositories/cache"

	"gorm.io/gorm"
)

// UserRepository is the store contract for account records.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// PromoteToTrader flips role user -> trader. The guard on the current
	// role makes promotion a one-way, one-time move; admins keep their role.
	PromoteToTrader(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Service
}

func NewUserRepository(database *Database) UserRepository {
	return &userRepository{db: database.DB, cache: database.Cache}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var cached models.User
	if ok, _ := r.cache.Get(ctx, cache.Key("user", "id", id), &cached); ok {
		return &cached, nil
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	_ = r.cache.Set(ctx, cache.Key("user", "id", user.ID), &user)
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) PromoteToTrader(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RoleUser).
		Update("role", models.RoleTrader)
	if res.Error != nil {
		return res.Error
	}
	_ = r.cache.Delete(ctx, cache.Key("user", "id", id))
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", role).Count(&n).Error
	return n, err
}
