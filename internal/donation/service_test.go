package donation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/internal/config"
	"coswo/pkg/apperr"
)

type LifecycleSuite struct {
	suite.Suite
	store *InMemory
	svc   *Service
	ctx   context.Context

	donorUserID primitive.ObjectID
	staffUserID primitive.ObjectID
	receiverID  primitive.ObjectID
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.store = NewInMemory()
	s.svc = NewService(s.store, config.NewMetrics(), zap.NewNop())
	s.ctx = context.Background()

	s.donorUserID = s.store.AddUser("Amina Donor", "amina@example.com", "0300-1234567")
	s.staffUserID = s.store.AddUser("Bilal Staff", "bilal@example.com", "")
	s.receiverID = s.store.AddReceiver("verified")
}

func (s *LifecycleSuite) donorClaims() *auth.JWTClaims {
	return &auth.JWTClaims{UserID: s.donorUserID.Hex(), Email: "amina@example.com", Role: auth.RoleDonor}
}

func (s *LifecycleSuite) adminClaims() *auth.JWTClaims {
	return &auth.JWTClaims{UserID: primitive.NewObjectID().Hex(), Email: "admin@example.com", Role: auth.RoleAdministrator}
}

func (s *LifecycleSuite) staffClaims() *auth.JWTClaims {
	return &auth.JWTClaims{UserID: s.staffUserID.Hex(), Email: "bilal@example.com", Role: auth.RoleBatchStaff}
}

func (s *LifecycleSuite) submitFunds(amount float64) *Donation {
	d, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{
		ReceiverID:   s.receiverID.Hex(),
		DonationType: TypeFunds,
		Amount:       amount,
	})
	s.Require().NoError(err)
	return d
}

func (s *LifecycleSuite) TestSubmitFunds() {
	d := s.submitFunds(50)

	s.Equal(StatusPendingApproval, d.Status)
	s.Equal(50.0, d.Amount)
	s.Empty(d.Items)
	s.Equal("amina@example.com", d.DonorEmail)
	s.Equal(s.donorUserID, d.DonorID)

	// Submission never touches donor aggregates.
	donor := s.store.User(s.donorUserID)
	s.Zero(donor.TotalDonations)
	s.Zero(donor.TotalAmountDonated)
	s.Nil(donor.Profile.DonorID)
}

func (s *LifecycleSuite) TestSubmitItemsFiltersEmptyNames() {
	d, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{
		ReceiverID:   s.receiverID.Hex(),
		DonationType: TypeFood,
		Amount:       99, // ignored for non-funds
		Items: []Item{
			{Name: "Rice", Quantity: 3, Category: "staple"},
			{Name: "  ", Quantity: 1},
			{Name: "", Quantity: 2},
		},
	})
	s.Require().NoError(err)

	s.Len(d.Items, 1)
	s.Equal("Rice", d.Items[0].Name)
	s.Zero(d.Amount)
}

func (s *LifecycleSuite) TestSubmitValidation() {
	s.Run("non-donor forbidden", func() {
		_, err := s.svc.Submit(s.ctx, s.adminClaims(), SubmitRequest{ReceiverID: s.receiverID.Hex(), DonationType: TypeFunds, Amount: 10})
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))
	})

	s.Run("funds without amount", func() {
		_, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{ReceiverID: s.receiverID.Hex(), DonationType: TypeFunds})
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})

	s.Run("items all empty", func() {
		_, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{
			ReceiverID: s.receiverID.Hex(), DonationType: TypeClothing, Items: []Item{{Name: ""}},
		})
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})

	s.Run("unknown type", func() {
		_, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{ReceiverID: s.receiverID.Hex(), DonationType: "toys"})
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})

	s.Run("missing receiver", func() {
		_, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{
			ReceiverID: primitive.NewObjectID().Hex(), DonationType: TypeFunds, Amount: 10,
		})
		s.Equal(apperr.KindNotFound, apperr.KindOf(err))
	})

	s.Run("unverified receiver", func() {
		pending := s.store.AddReceiver("pending")
		_, err := s.svc.Submit(s.ctx, s.donorClaims(), SubmitRequest{
			ReceiverID: pending.Hex(), DonationType: TypeFunds, Amount: 10,
		})
		s.Equal(apperr.KindInvalidInput, apperr.KindOf(err))
	})
}

func (s *LifecycleSuite) TestApproveIncrementsExactlyOnce() {
	d := s.submitFunds(50)

	approved, err := s.svc.Approve(s.ctx, s.adminClaims(), d.ID.Hex())
	s.Require().NoError(err)
	s.Equal(StatusPending, approved.Status)

	donor := s.store.User(s.donorUserID)
	s.Equal(int64(1), donor.TotalDonations)
	s.Equal(50.0, donor.TotalAmountDonated)
	s.Require().NotNil(donor.Profile.DonorID)
	s.Equal(int64(1), *donor.Profile.DonorID)

	// Re-approval is rejected, not idempotent, and changes nothing.
	_, err = s.svc.Approve(s.ctx, s.adminClaims(), d.ID.Hex())
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	donor = s.store.User(s.donorUserID)
	s.Equal(int64(1), donor.TotalDonations)
	s.Equal(50.0, donor.TotalAmountDonated)
}

func (s *LifecycleSuite) TestConcurrentApprovalSucceedsOnce() {
	d := s.submitFunds(25)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Approve(s.ctx, s.adminClaims(), d.ID.Hex())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			s.Equal(apperr.KindConflict, apperr.KindOf(err))
		}
	}
	s.Equal(1, successes)

	donor := s.store.User(s.donorUserID)
	s.Equal(int64(1), donor.TotalDonations)
	s.Equal(25.0, donor.TotalAmountDonated)
}

func (s *LifecycleSuite) TestRejectLeavesAggregatesAlone() {
	d := s.submitFunds(75)

	rejected, err := s.svc.Reject(s.ctx, s.adminClaims(), d.ID.Hex())
	s.Require().NoError(err)
	s.Equal(StatusRejected, rejected.Status)

	donor := s.store.User(s.donorUserID)
	s.Zero(donor.TotalDonations)
	s.Zero(donor.TotalAmountDonated)
	s.Nil(donor.Profile.DonorID)

	// Rejected is terminal; it cannot be approved afterwards.
	_, err = s.svc.Approve(s.ctx, s.adminClaims(), d.ID.Hex())
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func (s *LifecycleSuite) TestDonorNumberAssignedOnceAndUnique() {
	first := s.submitFunds(10)
	second := s.submitFunds(20)

	_, err := s.svc.Approve(s.ctx, s.adminClaims(), first.ID.Hex())
	s.Require().NoError(err)
	afterFirst := s.store.User(s.donorUserID)
	s.Require().NotNil(afterFirst.Profile.DonorID)

	_, err = s.svc.Approve(s.ctx, s.adminClaims(), second.ID.Hex())
	s.Require().NoError(err)
	afterSecond := s.store.User(s.donorUserID)
	s.Equal(*afterFirst.Profile.DonorID, *afterSecond.Profile.DonorID)

	// A different donor gets a different number.
	otherUserID := s.store.AddUser("Chand Donor", "chand@example.com", "")
	otherClaims := &auth.JWTClaims{UserID: otherUserID.Hex(), Email: "chand@example.com", Role: auth.RoleDonor}
	otherDonation, err := s.svc.Submit(s.ctx, otherClaims, SubmitRequest{
		ReceiverID: s.receiverID.Hex(), DonationType: TypeFunds, Amount: 5,
	})
	s.Require().NoError(err)
	_, err = s.svc.Approve(s.ctx, s.adminClaims(), otherDonation.ID.Hex())
	s.Require().NoError(err)

	other := s.store.User(otherUserID)
	s.Require().NotNil(other.Profile.DonorID)
	s.NotEqual(*afterFirst.Profile.DonorID, *other.Profile.DonorID)
}

func (s *LifecycleSuite) TestAdvanceDeliveryStepByStep() {
	d := s.submitFunds(30)
	_, err := s.svc.Approve(s.ctx, s.adminClaims(), d.ID.Hex())
	s.Require().NoError(err)

	inTransit, err := s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), d.ID.Hex(), AdvanceRequest{
		NextStatus: "in_transit", Notes: "picked up",
	})
	s.Require().NoError(err)
	s.Equal(StatusInTransit, inTransit.Status)
	s.Equal(s.staffUserID, inTransit.HandledBy)
	s.NotNil(inTransit.HandledAt)
	s.Equal("picked up", inTransit.DeliveryNotes)
	s.Nil(inTransit.ActualDelivery)

	delivered, err := s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), d.ID.Hex(), AdvanceRequest{
		NextStatus: "delivered", Notes: "handed over",
	})
	s.Require().NoError(err)
	s.Equal(StatusDelivered, delivered.Status)
	s.NotNil(delivered.ActualDelivery)
	s.Equal("picked up\nhanded over", delivered.DeliveryNotes)

	confirmed, err := s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), d.ID.Hex(), AdvanceRequest{NextStatus: "confirmed"})
	s.Require().NoError(err)
	s.Equal(StatusConfirmed, confirmed.Status)

	// Terminal: no further steps.
	_, err = s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), d.ID.Hex(), AdvanceRequest{NextStatus: "confirmed"})
	s.Equal(apperr.KindInvalidTransition, apperr.KindOf(err))
}

func (s *LifecycleSuite) TestAdvanceDeliveryRejectsSkipping() {
	d := s.submitFunds(30)
	_, err := s.svc.Approve(s.ctx, s.adminClaims(), d.ID.Hex())
	s.Require().NoError(err)

	_, err = s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), d.ID.Hex(), AdvanceRequest{NextStatus: "delivered"})
	s.Equal(apperr.KindInvalidTransition, apperr.KindOf(err))

	_, err = s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), d.ID.Hex(), AdvanceRequest{NextStatus: "rejected"})
	s.Equal(apperr.KindInvalidTransition, apperr.KindOf(err))

	// Unapproved donations are not in the delivery chain at all.
	unapproved := s.submitFunds(5)
	_, err = s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), unapproved.ID.Hex(), AdvanceRequest{NextStatus: "pending"})
	s.Equal(apperr.KindInvalidTransition, apperr.KindOf(err))

	s.Run("role checks", func() {
		_, err := s.svc.AdvanceDelivery(s.ctx, s.donorClaims(), d.ID.Hex(), AdvanceRequest{NextStatus: "in_transit"})
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))
	})
}

func (s *LifecycleSuite) TestListMineNewestFirst() {
	older := &Donation{
		ID: primitive.NewObjectID(), DonorID: s.donorUserID, Status: StatusPendingApproval,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &Donation{
		ID: primitive.NewObjectID(), DonorID: s.donorUserID, Status: StatusPendingApproval,
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.store.InsertDonation(s.ctx, older))
	s.Require().NoError(s.store.InsertDonation(s.ctx, newer))

	donations, err := s.svc.ListMine(s.ctx, s.donorClaims())
	s.Require().NoError(err)
	s.Require().Len(donations, 2)
	s.Equal(newer.ID, donations[0].ID)
	s.Equal(older.ID, donations[1].ID)
}

func (s *LifecycleSuite) TestListPendingApprovalsJoinsDonor() {
	d := s.submitFunds(40)

	pending, err := s.svc.ListPendingApprovals(s.ctx, s.adminClaims())
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(d.ID, pending[0].Donation.ID)
	s.Require().NotNil(pending[0].Donor)
	s.Equal("Amina Donor", pending[0].Donor.Name)

	_, err = s.svc.ListPendingApprovals(s.ctx, s.donorClaims())
	s.Equal(apperr.KindForbidden, apperr.KindOf(err))
}

// TestFullWorkflow walks the donation from submission to confirmation the way
// the roles would in production.
func (s *LifecycleSuite) TestFullWorkflow() {
	funds := s.submitFunds(50)
	s.Equal(StatusPendingApproval, funds.Status)

	_, err := s.svc.Approve(s.ctx, s.adminClaims(), funds.ID.Hex())
	s.Require().NoError(err)

	donor := s.store.User(s.donorUserID)
	s.Equal(int64(1), donor.TotalDonations)
	s.Equal(50.0, donor.TotalAmountDonated)
	s.NotNil(donor.Profile.DonorID)

	other := s.submitFunds(15)
	_, err = s.svc.Reject(s.ctx, s.adminClaims(), other.ID.Hex())
	s.Require().NoError(err)
	donor = s.store.User(s.donorUserID)
	s.Equal(int64(1), donor.TotalDonations)
	s.Equal(50.0, donor.TotalAmountDonated)

	_, err = s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), funds.ID.Hex(), AdvanceRequest{NextStatus: "in_transit"})
	s.Require().NoError(err)

	third := s.submitFunds(10)
	_, err = s.svc.Approve(s.ctx, s.adminClaims(), third.ID.Hex())
	s.Require().NoError(err)
	_, err = s.svc.AdvanceDelivery(s.ctx, s.staffClaims(), third.ID.Hex(), AdvanceRequest{NextStatus: "delivered"})
	s.Equal(apperr.KindInvalidTransition, apperr.KindOf(err))
}
