package receiver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/pkg/apperr"
)

type ReceiverSuite struct {
	suite.Suite
	store *InMemory
	svc   *ReceiverService
	ctx   context.Context
}

func TestReceiverSuite(t *testing.T) {
	suite.Run(t, new(ReceiverSuite))
}

func (s *ReceiverSuite) SetupTest() {
	s.store = NewInMemory()
	s.svc = NewReceiverService(s.store, zap.NewNop())
	s.ctx = context.Background()
}

func claimsWithRole(role string) *auth.JWTClaims {
	return &auth.JWTClaims{UserID: primitive.NewObjectID().Hex(), Role: role}
}

func validRequest() CreateReceiverRequest {
	return CreateReceiverRequest{
		FullName:         "Fatima Receiver",
		PhoneNumber:      "0301-7654321",
		Email:            "fatima@example.com",
		Address:          "House 12, Lahore",
		FamilySize:       5,
		NeedsDescription: "monthly rations",
	}
}

func (s *ReceiverSuite) register() *Receiver {
	r, err := s.svc.Register(s.ctx, claimsWithRole(auth.RoleBatchStaff), validRequest())
	s.Require().NoError(err)
	return r
}

func (s *ReceiverSuite) TestRegisterCreatesPending() {
	r := s.register()

	s.Equal(VerificationPending, r.VerificationStatus)
	s.Equal("Fatima Receiver", r.FullName)
	s.Equal(5, r.FamilySize)
	s.False(r.CreatedAt.IsZero())
}

func (s *ReceiverSuite) TestRegisterValidation() {
	s.Run("non-staff forbidden", func() {
		_, err := s.svc.Register(s.ctx, claimsWithRole(auth.RoleDonor), validRequest())
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))

		_, err = s.svc.Register(s.ctx, claimsWithRole(auth.RoleAdministrator), validRequest())
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))
	})

	s.Run("missing contact fields", func() {
		req := validRequest()
		req.Address = ""
		_, err := s.svc.Register(s.ctx, claimsWithRole(auth.RoleBatchStaff), req)
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})
}

func (s *ReceiverSuite) TestVerifyDecidesOnce() {
	r := s.register()

	verified, err := s.svc.Verify(s.ctx, claimsWithRole(auth.RoleAdministrator), r.ID.Hex(), VerifyRequest{Status: VerificationVerified})
	s.Require().NoError(err)
	s.Equal(VerificationVerified, verified.VerificationStatus)

	// The decision is final; a second verdict conflicts instead of overwriting.
	_, err = s.svc.Verify(s.ctx, claimsWithRole(auth.RoleAdministrator), r.ID.Hex(), VerifyRequest{Status: VerificationRejected})
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	listed, err := s.svc.ListVerified(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(VerificationVerified, listed[0].VerificationStatus)
}

func (s *ReceiverSuite) TestVerifyValidation() {
	r := s.register()

	s.Run("non-admin forbidden", func() {
		_, err := s.svc.Verify(s.ctx, claimsWithRole(auth.RoleBatchStaff), r.ID.Hex(), VerifyRequest{Status: VerificationVerified})
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))
	})

	s.Run("pending is not a verdict", func() {
		_, err := s.svc.Verify(s.ctx, claimsWithRole(auth.RoleAdministrator), r.ID.Hex(), VerifyRequest{Status: VerificationPending})
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})

	s.Run("missing receiver", func() {
		_, err := s.svc.Verify(s.ctx, claimsWithRole(auth.RoleAdministrator), primitive.NewObjectID().Hex(), VerifyRequest{Status: VerificationVerified})
		s.Equal(apperr.KindNotFound, apperr.KindOf(err))
	})
}

func (s *ReceiverSuite) TestListVerifiedFiltersUndecided() {
	s.register()
	second := s.register()
	rejected := s.register()

	_, err := s.svc.Verify(s.ctx, claimsWithRole(auth.RoleAdministrator), second.ID.Hex(), VerifyRequest{Status: VerificationVerified})
	s.Require().NoError(err)
	_, err = s.svc.Verify(s.ctx, claimsWithRole(auth.RoleAdministrator), rejected.ID.Hex(), VerifyRequest{Status: VerificationRejected})
	s.Require().NoError(err)

	listed, err := s.svc.ListVerified(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(second.ID, listed[0].ID)
}
