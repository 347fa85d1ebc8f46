package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

const submissionCollectionName = "submissions"

// mongoSubmissionRepository implements repository.SubmissionRepository
type mongoSubmissionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionRepository creates a new Submission repository backed by MongoDB.
func NewMongoSubmissionRepository(db *mongo.Database) repository.SubmissionRepository {
	return &mongoSubmissionRepository{
		collection: db.Collection(submissionCollectionName),
	}
}

func (r *mongoSubmissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	if submission.ID == "" || submission.ServiceID == "" {
		return errors.New("submission requires id and serviceId")
	}

	if _, err := r.collection.InsertOne(ctx, submission); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("submission %s: %w", submission.ID, repository.ErrDuplicate)
		}
		return wrapErr("insert submission", err)
	}
	return nil
}

func (r *mongoSubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	var submission domain.Submission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&submission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("find submission", err)
	}
	return &submission, nil
}

func (r *mongoSubmissionRepository) FileNameInUse(ctx context.Context, fileName string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"fileName": fileName}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrapErr("count submissions by file", err)
	}
	return n > 0, nil
}

// UpdateStatus is a compare-and-swap on the status field.
func (r *mongoSubmissionRepository) UpdateStatus(ctx context.Context, id string, from []domain.SubmissionStatus, change domain.StatusChange) (*domain.Submission, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Submission
	err := r.collection.FindOneAndUpdate(ctx, filter, statusChangeUpdate(change), opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, wrapErr("update submission status", err)
	}

	// Nothing matched: either the id is unknown or the status moved on.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("submission %s is %s: %w", id, current.Status, repository.ErrStatusConflict)
}

// statusChangeUpdate builds the $set document for a transition.
func statusChangeUpdate(change domain.StatusChange) bson.M {
	set := bson.M{"status": change.To}
	switch change.Milestone {
	case domain.MilestoneApproved:
		set["approvedAt"] = change.At
	case domain.MilestonePaid:
		set["paidAt"] = change.At
	case domain.MilestoneCompleted:
		set["completedAt"] = change.At
	}
	if change.Feedback != nil {
		set["feedback"] = *change.Feedback
	}
	if change.Highlights != nil {
		set["highlights"] = change.Highlights
	}
	if change.PaymentReference != nil {
		set["paymentReference"] = *change.PaymentReference
	}
	if change.PaymentStatus != nil {
		set["paymentStatus"] = *change.PaymentStatus
	}
	return bson.M{"$set": set}
}

func (r *mongoSubmissionRepository) ListByStatus(ctx context.Context, status domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	return r.find(ctx, bson.M{"status": status}, order)
}

// ListByUser returns the user's submissions; nil statuses matches all.
func (r *mongoSubmissionRepository) ListByUser(ctx context.Context, userID string, statuses []domain.SubmissionStatus, order repository.Order) ([]domain.Submission, error) {
	filter := bson.M{"userId": userID}
	if statuses != nil {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter, order)
}

func (r *mongoSubmissionRepository) CountByUserAndStatus(ctx context.Context, userID string, status domain.SubmissionStatus) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID, "status": status})
	if err != nil {
		return 0, wrapErr("count submissions", err)
	}
	return n, nil
}

func (r *mongoSubmissionRepository) find(ctx context.Context, filter bson.M, order repository.Order) ([]domain.Submission, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sortFor(order)))
	if err != nil {
		return nil, wrapErr("find submissions", err)
	}
	defer cursor.Close(ctx)

	submissions := []domain.Submission{}
	if err = cursor.All(ctx, &submissions); err != nil {
		return nil, wrapErr("decode submissions", err)
	}
	return submissions, nil
}

func sortFor(order repository.Order) bson.D {
	if order == repository.OrderBySubmittedAt {
		return bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "_id", Value: 1}}
}

// EnsureSubmissionIndexes creates the indexes backing the read model queries.
func EnsureSubmissionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submittedAt", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "submittedAt", Value: 1}}},
		{
			// Text submissions omit fileName, so they stay out of the index.
			Keys: bson.D{{Key: "fileName", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"fileName": bson.M{"$exists": true}}),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
