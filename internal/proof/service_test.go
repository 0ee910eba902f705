package proof

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/internal/donation"
	"coswo/pkg/apperr"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) Send(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type ProofSuite struct {
	suite.Suite
	store  *InMemory
	mailer *fakeMailer
	svc    *ProofService
	ctx    context.Context

	donorID primitive.ObjectID
	staffID primitive.ObjectID
}

func TestProofSuite(t *testing.T) {
	suite.Run(t, new(ProofSuite))
}

func (s *ProofSuite) SetupTest() {
	s.T().Setenv("UPLOAD_DIR", s.T().TempDir())

	s.store = NewInMemory()
	s.mailer = &fakeMailer{}
	s.svc = NewProofService(s.store, NewBlobStore(zap.NewNop()), s.mailer, zap.NewNop())
	s.ctx = context.Background()

	s.donorID = primitive.NewObjectID()
	s.staffID = primitive.NewObjectID()
}

func (s *ProofSuite) staffClaims() *auth.JWTClaims {
	return &auth.JWTClaims{UserID: s.staffID.Hex(), Role: auth.RoleBatchStaff}
}

func (s *ProofSuite) donorClaims() *auth.JWTClaims {
	return &auth.JWTClaims{UserID: s.donorID.Hex(), Role: auth.RoleDonor}
}

func (s *ProofSuite) upload(donationID primitive.ObjectID, name string) *Proof {
	p, err := s.svc.Upload(s.ctx, s.staffClaims(), donationID.Hex(), UploadInput{
		ProofType:    TypePhoto,
		QualityScore: 0.8,
		FileName:     name,
		File:         strings.NewReader("image bytes"),
	})
	s.Require().NoError(err)
	return p
}

func (s *ProofSuite) TestUploadStoresBlobAndRecord() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)

	p := s.upload(id, "handover.jpg")

	s.Equal(id, p.DonationID)
	s.Equal(s.staffID, p.UploadedBy)
	s.True(strings.HasPrefix(p.FileURL, "/uploads/"))
	s.True(strings.HasSuffix(p.FileURL, ".jpg"))
	s.False(p.IsSelected)
}

func (s *ProofSuite) TestUploadRequiresDeliveredDonation() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusInTransit)

	_, err := s.svc.Upload(s.ctx, s.staffClaims(), id.Hex(), UploadInput{
		ProofType: TypePhoto, FileName: "early.jpg", File: strings.NewReader("x"),
	})
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func (s *ProofSuite) TestUploadValidation() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)

	s.Run("non-staff forbidden", func() {
		_, err := s.svc.Upload(s.ctx, s.donorClaims(), id.Hex(), UploadInput{
			ProofType: TypePhoto, FileName: "a.jpg", File: strings.NewReader("x"),
		})
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))
	})

	s.Run("unknown proof type", func() {
		_, err := s.svc.Upload(s.ctx, s.staffClaims(), id.Hex(), UploadInput{
			ProofType: "audio", FileName: "a.mp3", File: strings.NewReader("x"),
		})
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})

	s.Run("missing donation", func() {
		_, err := s.svc.Upload(s.ctx, s.staffClaims(), primitive.NewObjectID().Hex(), UploadInput{
			ProofType: TypePhoto, FileName: "a.jpg", File: strings.NewReader("x"),
		})
		s.Equal(apperr.KindNotFound, apperr.KindOf(err))
	})
}

func (s *ProofSuite) TestSelectMarksExactlyOne() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)
	first := s.upload(id, "one.jpg")
	second := s.upload(id, "two.jpg")

	selected, err := s.svc.Select(s.ctx, s.staffClaims(), id.Hex(), first.ID.Hex())
	s.Require().NoError(err)
	s.True(selected.IsSelected)

	// Selecting another proof moves the flag rather than duplicating it.
	_, err = s.svc.Select(s.ctx, s.staffClaims(), id.Hex(), second.ID.Hex())
	s.Require().NoError(err)

	proofs, err := s.svc.List(s.ctx, s.staffClaims(), id.Hex())
	s.Require().NoError(err)
	s.Require().Len(proofs, 2)
	selectedCount := 0
	for _, p := range proofs {
		if p.IsSelected {
			selectedCount++
			s.Equal(second.ID, p.ID)
		}
	}
	s.Equal(1, selectedCount)
}

func (s *ProofSuite) TestDispatchSendsExactlyOnce() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)
	p := s.upload(id, "final.jpg")
	_, err := s.svc.Select(s.ctx, s.staffClaims(), id.Hex(), p.ID.Hex())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Dispatch(s.ctx, s.staffClaims(), id.Hex()))
	s.Equal([]string{"amina@example.com"}, s.mailer.recipients())
	s.True(s.store.View(id).ProofSent)

	// A second dispatch conflicts and never mails the donor again.
	err = s.svc.Dispatch(s.ctx, s.staffClaims(), id.Hex())
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
	s.Len(s.mailer.recipients(), 1)
}

// A select call with an unknown proof id must not clear the donation's
// existing selection.
func (s *ProofSuite) TestSelectUnknownProofKeepsSelection() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)
	p := s.upload(id, "best.jpg")
	_, err := s.svc.Select(s.ctx, s.staffClaims(), id.Hex(), p.ID.Hex())
	s.Require().NoError(err)

	_, err = s.svc.Select(s.ctx, s.staffClaims(), id.Hex(), primitive.NewObjectID().Hex())
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))

	selected, err := s.store.FindSelectedProof(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(selected)
	s.Equal(p.ID, selected.ID)
}

// A failed send must leave the donation dispatchable: the flag is rolled back
// and a manual retry goes through.
func (s *ProofSuite) TestDispatchMailFailureAllowsRetry() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)
	p := s.upload(id, "final.jpg")
	_, err := s.svc.Select(s.ctx, s.staffClaims(), id.Hex(), p.ID.Hex())
	s.Require().NoError(err)

	s.mailer.fail(errors.New("provider down"))
	err = s.svc.Dispatch(s.ctx, s.staffClaims(), id.Hex())
	s.Equal(apperr.KindUnavailable, apperr.KindOf(err))
	s.False(s.store.View(id).ProofSent)
	s.Empty(s.mailer.recipients())

	s.mailer.fail(nil)
	s.Require().NoError(s.svc.Dispatch(s.ctx, s.staffClaims(), id.Hex()))
	s.Equal([]string{"amina@example.com"}, s.mailer.recipients())
	s.True(s.store.View(id).ProofSent)
}

func (s *ProofSuite) TestDispatchRequiresSelectedProof() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)
	s.upload(id, "unselected.jpg")

	err := s.svc.Dispatch(s.ctx, s.staffClaims(), id.Hex())
	s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	s.Empty(s.mailer.recipients())
	s.False(s.store.View(id).ProofSent)
}

func (s *ProofSuite) TestListOwnership() {
	id := s.store.AddDonation(s.donorID, "amina@example.com", donation.StatusDelivered)
	s.upload(id, "a.jpg")

	proofs, err := s.svc.List(s.ctx, s.donorClaims(), id.Hex())
	s.Require().NoError(err)
	s.Len(proofs, 1)

	otherDonor := &auth.JWTClaims{UserID: primitive.NewObjectID().Hex(), Role: auth.RoleDonor}
	_, err = s.svc.List(s.ctx, otherDonor, id.Hex())
	s.Equal(apperr.KindForbidden, apperr.KindOf(err))
}
