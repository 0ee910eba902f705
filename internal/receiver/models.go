package receiver

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Receiver is a beneficiary profile registered by batch staff. Only verified
// receivers are selectable as donation targets.
type Receiver struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FullName           string             `bson:"full_name" json:"full_name"`
	PhoneNumber        string             `bson:"phone_number" json:"phone_number"`
	Email              string             `bson:"email" json:"email"`
	Address            string             `bson:"address" json:"address"`
	LocationLat        float64            `bson:"location_lat,omitempty" json:"location_lat,omitempty"`
	LocationLng        float64            `bson:"location_lng,omitempty" json:"location_lng,omitempty"`
	VerificationStatus string             `bson:"verification_status" json:"verification_status"`
	FamilySize         int                `bson:"family_size,omitempty" json:"family_size,omitempty"`
	NeedsDescription   string             `bson:"needs_description,omitempty" json:"needs_description,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

type CreateReceiverRequest struct {
	FullName         string  `json:"full_name"`
	PhoneNumber      string  `json:"phone_number"`
	Email            string  `json:"email"`
	Address          string  `json:"address"`
	LocationLat      float64 `json:"location_lat,omitempty"`
	LocationLng      float64 `json:"location_lng,omitempty"`
	FamilySize       int     `json:"family_size,omitempty"`
	NeedsDescription string  `json:"needs_description,omitempty"`
}

type VerifyRequest struct {
	Status string `json:"status"`
}
