package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application roles. The original platform spells "Batch staff" with a space;
// the tokens and the RBAC policies use the same literals.
const (
	RoleDonor         = "Donor"
	RoleBatchStaff    = "Batch staff"
	RoleAdministrator = "Administrator"
)

// User represents an account of any role. The donation totals are maintained
// exclusively by the donation approval transaction; DonorID stays unset until
// an administrator approves the user's first donation.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	PasswordHash       string             `bson:"password_hash" json:"-"`
	Role               string             `bson:"role" json:"role"`
	PhoneNumber        string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	DonorID            *int64             `bson:"donor_id,omitempty" json:"donor_id,omitempty"`
	TotalDonations     int64              `bson:"total_donations" json:"total_donations"`
	TotalAmountDonated float64            `bson:"total_amount_donated" json:"total_amount_donated"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number"`
}

type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
