package donation

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coswo/internal/config"
	"coswo/pkg/apperr"
)

// MongoStore is the MongoDB-backed record store for the donation lifecycle.
// It also reads the users and receivers collections for the lookups the
// engine needs, and the counters collection for donor number allocation.
type MongoStore struct {
	client    *mongo.Client
	donations *mongo.Collection
	users     *mongo.Collection
	receivers *mongo.Collection
	counters  *mongo.Collection
}

func NewMongoStore(dbClient *config.MongoDBClient) *MongoStore {
	db := dbClient.Database
	return &MongoStore{
		client:    dbClient.Client,
		donations: db.Collection("donations"),
		users:     db.Collection("users"),
		receivers: db.Collection("receivers"),
		counters:  db.Collection("counters"),
	}
}

func (r *MongoStore) InsertDonation(ctx context.Context, d *Donation) error {
	if _, err := r.donations.InsertOne(ctx, d); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "donation insert failed", err)
	}
	return nil
}

func (r *MongoStore) FindDonationByID(ctx context.Context, id primitive.ObjectID) (*Donation, error) {
	var d Donation
	err := r.donations.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "donation lookup failed", err)
	}
	return &d, nil
}

func (r *MongoStore) FindDonationsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]*Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.donations.Find(ctx, bson.M{"donor_id": donorID}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "donation query failed", err)
	}
	var donations []*Donation
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "donation query failed", err)
	}
	return donations, nil
}

func (r *MongoStore) FindDonationsByStatus(ctx context.Context, status Status) ([]*Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.donations.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "donation query failed", err)
	}
	var donations []*Donation
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "donation query failed", err)
	}
	return donations, nil
}

func (r *MongoStore) FindDonorProfile(ctx context.Context, userID primitive.ObjectID) (*DonorProfile, error) {
	var profile DonorProfile
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "user lookup failed", err)
	}
	return &profile, nil
}

func (r *MongoStore) CheckReceiverVerified(ctx context.Context, id primitive.ObjectID) error {
	var receiver struct {
		VerificationStatus string `bson:"verification_status"`
	}
	err := r.receivers.FindOne(ctx, bson.M{"_id": id}).Decode(&receiver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apperr.New(apperr.KindNotFound, "receiver not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "receiver lookup failed", err)
	}
	if receiver.VerificationStatus != "verified" {
		return apperr.New(apperr.KindInvalidInput, "receiver is not verified")
	}
	return nil
}

// ApproveDonation runs the status compare-and-set and the donor aggregate
// update inside one session transaction. The CAS filter on status guarantees
// at-most-once approval; the transaction keeps the stat increment and the
// transition from diverging on a crash.
func (r *MongoStore) ApproveDonation(ctx context.Context, id primitive.ObjectID) (*Donation, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "approval failed", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()

		var d Donation
		err := r.donations.FindOneAndUpdate(sc,
			bson.M{"_id": id, "status": StatusPendingApproval},
			bson.M{"$set": bson.M{"status": StatusPending, "updated_at": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&d)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, r.transitionFailure(sc, id, "donation is not pending approval")
			}
			return nil, err
		}

		var donor struct {
			DonorID *int64 `bson:"donor_id"`
		}
		if err := r.users.FindOne(sc, bson.M{"_id": d.DonorID}).Decode(&donor); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, apperr.New(apperr.KindNotFound, "donor profile not found")
			}
			return nil, err
		}

		set := bson.M{"updated_at": now}
		if donor.DonorID == nil {
			number, err := r.nextDonorNumber(sc)
			if err != nil {
				return nil, err
			}
			set["donor_id"] = number
		}
		update := bson.M{
			"$inc": bson.M{"total_donations": 1, "total_amount_donated": d.Amount},
			"$set": set,
		}
		if _, err := r.users.UpdateOne(sc, bson.M{"_id": d.DonorID}, update); err != nil {
			return nil, err
		}
		return &d, nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "approval failed", err)
	}
	return result.(*Donation), nil
}

func (r *MongoStore) RejectDonation(ctx context.Context, id primitive.ObjectID) (*Donation, error) {
	var d Donation
	err := r.donations.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": StatusPendingApproval},
		bson.M{"$set": bson.M{"status": StatusRejected, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, r.transitionFailure(ctx, id, "donation is not pending approval")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "rejection failed", err)
	}
	return &d, nil
}

func (r *MongoStore) AdvanceDelivery(ctx context.Context, id primitive.ObjectID, from, to Status, update DeliveryUpdate) (*Donation, error) {
	set := bson.M{
		"status":     to,
		"updated_at": update.HandledAt,
		"handled_by": update.HandledBy,
		"handled_at": update.HandledAt,
	}
	if update.Notes != "" {
		set["delivery_notes"] = update.Notes
	}
	if update.ActualDelivery != nil {
		set["actual_delivery"] = update.ActualDelivery
	}

	var d Donation
	err := r.donations.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, r.transitionFailure(ctx, id, "donation status changed concurrently")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "delivery update failed", err)
	}
	return &d, nil
}

// transitionFailure distinguishes a missing donation from one whose status no
// longer matches the transition precondition.
func (r *MongoStore) transitionFailure(ctx context.Context, id primitive.ObjectID, conflictMsg string) error {
	count, err := r.donations.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "donation lookup failed", err)
	}
	if count == 0 {
		return apperr.New(apperr.KindNotFound, "donation not found")
	}
	return apperr.New(apperr.KindConflict, conflictMsg)
}

// nextDonorNumber allocates the next monotonic donor number from the counters
// collection.
func (r *MongoStore) nextDonorNumber(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "donor_number"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
