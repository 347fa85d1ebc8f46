package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

const serviceCollectionName = "services"

// mongoServiceRepository implements repository.ServiceRepository
type mongoServiceRepository struct {
	collection *mongo.Collection
}

// NewMongoServiceRepository creates a new catalog repository backed by MongoDB.
func NewMongoServiceRepository(db *mongo.Database) repository.ServiceRepository {
	return &mongoServiceRepository{
		collection: db.Collection(serviceCollectionName),
	}
}

func (r *mongoServiceRepository) Create(ctx context.Context, service *domain.Service) (string, error) {
	if service.Name == "" {
		return "", errors.New("service name is required")
	}
	if service.ID == "" {
		service.ID = uuid.Must(uuid.NewV7()).String()
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, service); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("service %s: %w", service.ID, repository.ErrDuplicate)
		}
		return "", wrapErr("insert service", err)
	}
	return service.ID, nil
}

func (r *mongoServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	var service domain.Service
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&service)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("find service", err)
	}
	return &service, nil
}

// List returns every tier. IDs are time ordered, so this is creation order.
func (r *mongoServiceRepository) List(ctx context.Context) ([]domain.Service, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr("list services", err)
	}
	defer cursor.Close(ctx)

	services := []domain.Service{}
	if err = cursor.All(ctx, &services); err != nil {
		return nil, wrapErr("decode services", err)
	}
	return services, nil
}
