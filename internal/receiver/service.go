package receiver

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/pkg/apperr"
)

// Store is the receiver record store. Satisfied by ReceiverRepository.
type Store interface {
	CreateReceiver(ctx context.Context, receiver *Receiver) error
	FindVerified(ctx context.Context) ([]*Receiver, error)
	// UpdateVerification decides a pending receiver; a receiver already
	// decided is a Conflict.
	UpdateVerification(ctx context.Context, id primitive.ObjectID, status string) (*Receiver, error)
}

type ReceiverService struct {
	repo Store
	log  *zap.Logger
}

func NewReceiverService(repo Store, log *zap.Logger) *ReceiverService {
	return &ReceiverService{repo: repo, log: log}
}

// Register creates a receiver profile in pending verification.
func (s *ReceiverService) Register(ctx context.Context, claims *auth.JWTClaims, req CreateReceiverRequest) (*Receiver, error) {
	if claims.Role != auth.RoleBatchStaff {
		return nil, apperr.New(apperr.KindForbidden, "only batch staff can register receivers")
	}
	if req.FullName == "" || req.PhoneNumber == "" || req.Email == "" || req.Address == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "full name, phone number, email and address are required")
	}

	now := time.Now()
	receiver := &Receiver{
		ID:                 primitive.NewObjectID(),
		FullName:           req.FullName,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		Address:            req.Address,
		LocationLat:        req.LocationLat,
		LocationLng:        req.LocationLng,
		VerificationStatus: VerificationPending,
		FamilySize:         req.FamilySize,
		NeedsDescription:   req.NeedsDescription,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateReceiver(ctx, receiver); err != nil {
		return nil, err
	}

	s.log.Info("Receiver registered", zap.String("receiver_id", receiver.ID.Hex()))
	return receiver, nil
}

// Verify decides a pending receiver's verification status.
func (s *ReceiverService) Verify(ctx context.Context, claims *auth.JWTClaims, receiverID string, req VerifyRequest) (*Receiver, error) {
	if claims.Role != auth.RoleAdministrator {
		return nil, apperr.New(apperr.KindForbidden, "only administrators can verify receivers")
	}
	id, err := primitive.ObjectIDFromHex(receiverID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid receiver id")
	}
	if req.Status != VerificationVerified && req.Status != VerificationRejected {
		return nil, apperr.New(apperr.KindInvalidInput, "status must be verified or rejected")
	}

	receiver, err := s.repo.UpdateVerification(ctx, id, req.Status)
	if err != nil {
		return nil, err
	}

	s.log.Info("Receiver verification decided",
		zap.String("receiver_id", receiver.ID.Hex()),
		zap.String("status", receiver.VerificationStatus))
	return receiver, nil
}

// ListVerified returns the receivers selectable as donation targets.
func (s *ReceiverService) ListVerified(ctx context.Context) ([]*Receiver, error) {
	receivers, err := s.repo.FindVerified(ctx)
	if err != nil {
		return nil, err
	}
	if receivers == nil {
		receivers = []*Receiver{}
	}
	return receivers, nil
}
