package proof

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/internal/donation"
	"coswo/pkg/apperr"
)

// Mailer sends the proof dispatch email. Satisfied by config.EmailService.
type Mailer interface {
	Send(to, subject, html string) error
}

// Store is the proof record store. Satisfied by ProofRepository.
type Store interface {
	InsertProof(ctx context.Context, p *Proof) error
	FindProofsByDonation(ctx context.Context, donationID primitive.ObjectID) ([]*Proof, error)
	// FindSelectedProof returns nil when no proof of the donation is selected.
	FindSelectedProof(ctx context.Context, donationID primitive.ObjectID) (*Proof, error)
	SelectProof(ctx context.Context, donationID, proofID primitive.ObjectID) (*Proof, error)
	FindDonationView(ctx context.Context, id primitive.ObjectID) (*DonationView, error)
	// MarkProofSent flips proof_sent exactly once; any later call is a Conflict.
	MarkProofSent(ctx context.Context, donationID primitive.ObjectID) error
	// UnmarkProofSent reverts the flag after a failed send so dispatch can be
	// retried.
	UnmarkProofSent(ctx context.Context, donationID primitive.ObjectID) error
}

type ProofService struct {
	repo   Store
	blobs  *BlobStore
	mailer Mailer
	log    *zap.Logger
}

func NewProofService(repo Store, blobs *BlobStore, mailer Mailer, log *zap.Logger) *ProofService {
	return &ProofService{repo: repo, blobs: blobs, mailer: mailer, log: log}
}

type UploadInput struct {
	ProofType    string
	QualityScore float64
	FileName     string
	File         io.Reader
}

// Upload stores delivery evidence for a delivered donation.
func (s *ProofService) Upload(ctx context.Context, claims *auth.JWTClaims, donationID string, input UploadInput) (*Proof, error) {
	if claims.Role != auth.RoleBatchStaff {
		return nil, apperr.New(apperr.KindForbidden, "only batch staff can upload proofs")
	}
	staffID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}
	id, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}
	if input.ProofType != TypePhoto && input.ProofType != TypeVideo {
		return nil, apperr.New(apperr.KindInvalidInput, "proof type must be photo or video")
	}
	if input.QualityScore < 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "quality score cannot be negative")
	}

	view, err := s.repo.FindDonationView(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.Status != donation.StatusDelivered && view.Status != donation.StatusConfirmed {
		return nil, apperr.New(apperr.KindConflict, "donation has not been delivered yet")
	}

	fileURL, err := s.blobs.Save(input.File, input.FileName)
	if err != nil {
		return nil, err
	}

	p := &Proof{
		ID:           primitive.NewObjectID(),
		DonationID:   id,
		ProofType:    input.ProofType,
		FileURL:      fileURL,
		QualityScore: input.QualityScore,
		UploadedBy:   staffID,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.InsertProof(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("Proof uploaded",
		zap.String("donation_id", id.Hex()),
		zap.String("proof_id", p.ID.Hex()),
		zap.String("type", p.ProofType))
	return p, nil
}

// Select marks a proof as the donation's best-quality evidence.
func (s *ProofService) Select(ctx context.Context, claims *auth.JWTClaims, donationID, proofID string) (*Proof, error) {
	if claims.Role != auth.RoleBatchStaff {
		return nil, apperr.New(apperr.KindForbidden, "only batch staff can select proofs")
	}
	dID, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}
	pID, err := primitive.ObjectIDFromHex(proofID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid proof id")
	}
	if _, err := s.repo.FindDonationView(ctx, dID); err != nil {
		return nil, err
	}
	return s.repo.SelectProof(ctx, dID, pID)
}

// Dispatch emails the selected proof to the donation's snapshot donor email
// and flips proof_sent. The flag is flipped first so concurrent dispatches
// cannot mail the donor twice; a failed send clears it again so a manual
// retry stays possible.
func (s *ProofService) Dispatch(ctx context.Context, claims *auth.JWTClaims, donationID string) error {
	if claims.Role != auth.RoleBatchStaff {
		return apperr.New(apperr.KindForbidden, "only batch staff can dispatch proofs")
	}
	id, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}

	view, err := s.repo.FindDonationView(ctx, id)
	if err != nil {
		return err
	}
	selected, err := s.repo.FindSelectedProof(ctx, id)
	if err != nil {
		return err
	}
	if selected == nil {
		return apperr.New(apperr.KindInvalidInput, "no proof selected for this donation")
	}

	if err := s.repo.MarkProofSent(ctx, id); err != nil {
		return err
	}

	body := fmt.Sprintf("Your donation has been delivered. View the delivery proof: %s", selected.FileURL)
	if err := s.mailer.Send(view.DonorEmail, "Delivery proof for your donation", body); err != nil {
		if uerr := s.repo.UnmarkProofSent(ctx, id); uerr != nil {
			s.log.Error("Failed to clear dispatch flag after mail failure",
				zap.String("donation_id", id.Hex()), zap.Error(uerr))
		}
		return apperr.Wrap(apperr.KindUnavailable, "proof email failed", err)
	}

	s.log.Info("Proof dispatched",
		zap.String("donation_id", id.Hex()),
		zap.String("donor_email", view.DonorEmail))
	return nil
}

// List returns a donation's proofs to its donor, batch staff or an
// administrator.
func (s *ProofService) List(ctx context.Context, claims *auth.JWTClaims, donationID string) ([]*Proof, error) {
	id, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}
	view, err := s.repo.FindDonationView(ctx, id)
	if err != nil {
		return nil, err
	}

	switch claims.Role {
	case auth.RoleBatchStaff, auth.RoleAdministrator:
	case auth.RoleDonor:
		if view.DonorID.Hex() != claims.UserID {
			return nil, apperr.New(apperr.KindForbidden, "not your donation")
		}
	default:
		return nil, apperr.New(apperr.KindForbidden, "not allowed")
	}

	proofs, err := s.repo.FindProofsByDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	if proofs == nil {
		proofs = []*Proof{}
	}
	return proofs, nil
}
