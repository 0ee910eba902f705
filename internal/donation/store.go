package donation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryUpdate carries the fields stamped onto a donation when batch staff
// advance its delivery state. Notes is the full replacement value; the service
// appends to the existing notes before calling the store, and the
// compare-and-set on the prior status keeps that read-modify-write safe.
type DeliveryUpdate struct {
	Notes          string
	HandledBy      primitive.ObjectID
	HandledAt      time.Time
	ActualDelivery *time.Time
}

// Store is everything the lifecycle engine needs from the record store. The
// conditional transition methods are the concurrency guard: they succeed for
// exactly one caller and fail with Conflict for everyone else.
type Store interface {
	InsertDonation(ctx context.Context, d *Donation) error
	FindDonationByID(ctx context.Context, id primitive.ObjectID) (*Donation, error)
	// FindDonationsByDonor returns the donor's donations, newest first.
	FindDonationsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]*Donation, error)
	FindDonationsByStatus(ctx context.Context, status Status) ([]*Donation, error)

	FindDonorProfile(ctx context.Context, userID primitive.ObjectID) (*DonorProfile, error)
	// CheckReceiverVerified returns nil only when the receiver exists and has
	// been verified.
	CheckReceiverVerified(ctx context.Context, id primitive.ObjectID) error

	// ApproveDonation transitions pending_approval -> pending and applies the
	// donor aggregate updates (donation count, amount total, first-approval
	// donor number) as one atomic unit.
	ApproveDonation(ctx context.Context, id primitive.ObjectID) (*Donation, error)
	// RejectDonation transitions pending_approval -> rejected. No aggregate
	// side effects.
	RejectDonation(ctx context.Context, id primitive.ObjectID) (*Donation, error)
	// AdvanceDelivery transitions from -> to only if the donation is still in
	// from, applying the delivery update in the same write.
	AdvanceDelivery(ctx context.Context, id primitive.ObjectID, from, to Status, update DeliveryUpdate) (*Donation, error)
}
