package repository

import (
	"context"
	"errors"

	"github.com/example/secondhand/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository implements service.UserDirectory on MongoDB with a Redis
// cache in front; the user collection is owned by the auth service, this
// side only reads it.
type UserRepository struct {
	col   *mongo.Collection
	cache *RedisRepository
}

func NewUserRepository(m *MongoRepository, cache *RedisRepository) *UserRepository {
	return &UserRepository{col: m.database.Collection(colUsers), cache: cache}
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	if cached, err := r.cache.GetUserCache(ctx, id); err == nil && cached != nil {
		return &models.User{
			ID:    cached.ID,
			Name:  cached.Name,
			Email: cached.Email,
			Phone: cached.Phone,
			Role:  models.Role(cached.Role),
		}, nil
	}

	var user models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Cache fill is best effort.
	_ = r.cache.CacheUser(ctx, &UserCache{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
		Role:  string(user.Role),
	})
	return &user, nil
}
