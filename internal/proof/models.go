package proof

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TypePhoto = "photo"
	TypeVideo = "video"
)

// Proof is a piece of delivery evidence attached to a donation. At most one
// proof per donation is selected as best quality; the selection routine
// enforces that.
type Proof struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	DonationID   primitive.ObjectID `bson:"donation_id" json:"donation_id"`
	ProofType    string             `bson:"proof_type" json:"proof_type"`
	FileURL      string             `bson:"file_url" json:"file_url"`
	QualityScore float64            `bson:"quality_score" json:"quality_score"`
	IsSelected   bool               `bson:"is_selected" json:"is_selected"`
	UploadedBy   primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
