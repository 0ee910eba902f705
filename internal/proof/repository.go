package proof

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coswo/internal/donation"
	"coswo/pkg/apperr"
)

// DonationView is the slice of the donation record the proof workflow reads.
type DonationView struct {
	ID         primitive.ObjectID `bson:"_id"`
	DonorID    primitive.ObjectID `bson:"donor_id"`
	DonorEmail string             `bson:"donor_email"`
	Status     donation.Status    `bson:"status"`
	ProofSent  bool               `bson:"proof_sent"`
}

type ProofRepository struct {
	proofs    *mongo.Collection
	donations *mongo.Collection
}

func NewProofRepository(db *mongo.Database) *ProofRepository {
	return &ProofRepository{
		proofs:    db.Collection("donation_proofs"),
		donations: db.Collection("donations"),
	}
}

func (r *ProofRepository) InsertProof(ctx context.Context, p *Proof) error {
	if _, err := r.proofs.InsertOne(ctx, p); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "proof insert failed", err)
	}
	return nil
}

func (r *ProofRepository) FindProofsByDonation(ctx context.Context, donationID primitive.ObjectID) ([]*Proof, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.proofs.Find(ctx, bson.M{"donation_id": donationID}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "proof query failed", err)
	}
	var proofs []*Proof
	if err := cursor.All(ctx, &proofs); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "proof query failed", err)
	}
	return proofs, nil
}

func (r *ProofRepository) FindSelectedProof(ctx context.Context, donationID primitive.ObjectID) (*Proof, error) {
	var p Proof
	err := r.proofs.FindOne(ctx, bson.M{"donation_id": donationID, "is_selected": true}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "proof lookup failed", err)
	}
	return &p, nil
}

// SelectProof marks one proof as best quality and clears the flag on every
// other proof of the donation. The target is set first: a select with an
// unknown or foreign proof id fails before anything else is touched, so an
// existing selection survives the bad call.
func (r *ProofRepository) SelectProof(ctx context.Context, donationID, proofID primitive.ObjectID) (*Proof, error) {
	var p Proof
	err := r.proofs.FindOneAndUpdate(ctx,
		bson.M{"_id": proofID, "donation_id": donationID},
		bson.M{"$set": bson.M{"is_selected": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "proof not found for this donation")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "proof selection failed", err)
	}

	_, err = r.proofs.UpdateMany(ctx,
		bson.M{"donation_id": donationID, "_id": bson.M{"$ne": proofID}},
		bson.M{"$set": bson.M{"is_selected": false}},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "proof selection failed", err)
	}
	return &p, nil
}

func (r *ProofRepository) FindDonationView(ctx context.Context, id primitive.ObjectID) (*DonationView, error) {
	var view DonationView
	err := r.donations.FindOne(ctx, bson.M{"_id": id}).Decode(&view)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "donation not found")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "donation lookup failed", err)
	}
	return &view, nil
}

// MarkProofSent flips proof_sent exactly once. A second dispatch attempt
// misses the filter and comes back as Conflict.
func (r *ProofRepository) MarkProofSent(ctx context.Context, donationID primitive.ObjectID) error {
	res, err := r.donations.UpdateOne(ctx,
		bson.M{"_id": donationID, "proof_sent": false},
		bson.M{"$set": bson.M{"proof_sent": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "proof dispatch update failed", err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindConflict, "proof already dispatched")
	}
	return nil
}

// UnmarkProofSent reverts the dispatch flag after a failed send.
func (r *ProofRepository) UnmarkProofSent(ctx context.Context, donationID primitive.ObjectID) error {
	_, err := r.donations.UpdateOne(ctx,
		bson.M{"_id": donationID, "proof_sent": true},
		bson.M{"$set": bson.M{"proof_sent": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "proof dispatch update failed", err)
	}
	return nil
}
