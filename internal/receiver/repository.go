package receiver

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coswo/pkg/apperr"
)

type ReceiverRepository struct {
	collection *mongo.Collection
}

func NewReceiverRepository(db *mongo.Database) *ReceiverRepository {
	return &ReceiverRepository{collection: db.Collection("receivers")}
}

func (r *ReceiverRepository) CreateReceiver(ctx context.Context, receiver *Receiver) error {
	if _, err := r.collection.InsertOne(ctx, receiver); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "receiver insert failed", err)
	}
	return nil
}

func (r *ReceiverRepository) FindVerified(ctx context.Context) ([]*Receiver, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"verification_status": VerificationVerified})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "receiver query failed", err)
	}
	var receivers []*Receiver
	if err := cursor.All(ctx, &receivers); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "receiver query failed", err)
	}
	return receivers, nil
}

// UpdateVerification transitions a pending receiver to verified or rejected.
// The filter on the prior status makes re-verification a Conflict rather than
// a silent overwrite.
func (r *ReceiverRepository) UpdateVerification(ctx context.Context, id primitive.ObjectID, status string) (*Receiver, error) {
	var receiver Receiver
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "verification_status": VerificationPending},
		bson.M{"$set": bson.M{"verification_status": status, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&receiver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			count, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if cerr != nil {
				return nil, apperr.Wrap(apperr.KindUnavailable, "receiver lookup failed", cerr)
			}
			if count == 0 {
				return nil, apperr.New(apperr.KindNotFound, "receiver not found")
			}
			return nil, apperr.New(apperr.KindConflict, "receiver verification already decided")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "receiver update failed", err)
	}
	return &receiver, nil
}
