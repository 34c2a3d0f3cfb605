// Package directory stores user profiles (name, role, department, phone)
// keyed by the identity provider's user id.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dvloznov/edufin/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no profile matches.
var ErrNotFound = errors.New("user not found")

// Repository reads and writes user profiles.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, user domain.User) error
}

// Connect opens a Mongo client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("Connect: ping: %w", err)
	}
	return client, nil
}

// MongoRepository keeps profiles in one collection.
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository uses db.collection.
func NewMongoRepository(db *mongo.Database, collection string) *MongoRepository {
	return &MongoRepository{collection: db.Collection(collection)}
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var u domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// GetByUserID implements Repository.
func (r *MongoRepository) GetByUserID(ctx context.Context, userID string) (domain.User, error) {
	u, err := r.findOne(ctx, bson.M{"userID": userID})
	if err != nil {
		return domain.User{}, fmt.Errorf("GetByUserID %s: %w", userID, err)
	}
	return u, nil
}

// GetByEmail implements Repository. Emails are stored lower-cased.
func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
	if err != nil {
		return domain.User{}, fmt.Errorf("GetByEmail %s: %w", email, err)
	}
	return u, nil
}

// Create implements Repository.
func (r *MongoRepository) Create(ctx context.Context, user domain.User) error {
	user.Email = normalizeEmail(user.Email)
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("Create %s: %w", user.ID, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	users []domain.User
}

// NewMemoryRepository seeds the repository with users.
func NewMemoryRepository(users ...domain.User) *MemoryRepository {
	r := &MemoryRepository{}
	for _, u := range users {
		u.Email = normalizeEmail(u.Email)
		r.users = append(r.users, u)
	}
	return r
}

// GetByUserID implements Repository.
func (r *MemoryRepository) GetByUserID(_ context.Context, userID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("GetByUserID %s: %w", userID, ErrNotFound)
}

// GetByEmail implements Repository.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("GetByEmail %s: %w", email, ErrNotFound)
}

// Create implements Repository.
func (r *MemoryRepository) Create(_ context.Context, user domain.User) error {
	user.Email = normalizeEmail(user.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	return nil
}

// SeedUsers are the demo accounts that exist before anyone signs up.
func SeedUsers() []domain.User {
	return []domain.User{
		{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: domain.RoleAdmin, Department: "Accounts"},
		{ID: "2", Name: "Student User", Email: "student@example.com", Role: domain.RoleStudent, Department: "Computer Science"},
	}
}

var (
	_ Repository = (*MongoRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
