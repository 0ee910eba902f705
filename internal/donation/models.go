package donation

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation types. Funds donations carry an amount, everything else carries items.
const (
	TypeFood     = "food"
	TypeClothing = "clothing"
	TypeFunds    = "funds"
	TypeOther    = "other"
)

// Item is a single line of a non-funds donation.
type Item struct {
	Name     string `bson:"name" json:"name"`
	Quantity int    `bson:"quantity" json:"quantity"`
	Category string `bson:"category" json:"category"`
}

// Donation is the central workflow entity. DonorEmail and DonorID are a
// snapshot taken at submission time and are never re-resolved against the live
// user record. HandledBy/HandledAt record the batch staff member that last
// advanced delivery, for the monthly staff dashboard.
type Donation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	DonorID           primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	DonorEmail        string             `bson:"donor_email" json:"donor_email"`
	ReceiverID        primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	DonationType      string             `bson:"donation_type" json:"donation_type"`
	Amount            float64            `bson:"amount,omitempty" json:"amount,omitempty"`
	Items             []Item             `bson:"items" json:"items"`
	Status            Status             `bson:"status" json:"status"`
	DeliveryNotes     string             `bson:"delivery_notes,omitempty" json:"delivery_notes,omitempty"`
	ScheduledDelivery *time.Time         `bson:"scheduled_delivery,omitempty" json:"scheduled_delivery,omitempty"`
	ActualDelivery    *time.Time         `bson:"actual_delivery,omitempty" json:"actual_delivery,omitempty"`
	ProofSent         bool               `bson:"proof_sent" json:"proof_sent"`
	HandledBy         primitive.ObjectID `bson:"handled_by,omitempty" json:"handled_by,omitempty"`
	HandledAt         *time.Time         `bson:"handled_at,omitempty" json:"handled_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// DonorProfile is the slice of the user record the lifecycle engine needs
// (lookup at submission, summary on the approval queue).
type DonorProfile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	DonorID     *int64             `bson:"donor_id,omitempty" json:"donor_id,omitempty"`
}

// PendingDonation joins a donation awaiting approval with its donor summary.
type PendingDonation struct {
	Donation *Donation     `json:"donation"`
	Donor    *DonorProfile `json:"donor"`
}

type SubmitRequest struct {
	ReceiverID        string     `json:"receiver_id"`
	DonationType      string     `json:"donation_type"`
	Amount            float64    `json:"amount,omitempty"`
	Items             []Item     `json:"items,omitempty"`
	ScheduledDelivery *time.Time `json:"scheduled_delivery,omitempty"`
	DeliveryNotes     string     `json:"delivery_notes,omitempty"`
}

type AdvanceRequest struct {
	NextStatus string `json:"next_status"`
	Notes      string `json:"notes,omitempty"`
}
