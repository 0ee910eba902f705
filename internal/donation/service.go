package donation

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/internal/config"
	"coswo/pkg/apperr"
)

// Service is the donation lifecycle engine. All status transitions and every
// donor aggregate update go through here; nothing else writes donations.
type Service struct {
	store   Store
	metrics *config.Metrics
	log     *zap.Logger
}

func NewService(store Store, metrics *config.Metrics, log *zap.Logger) *Service {
	return &Service{store: store, metrics: metrics, log: log}
}

// Submit validates a donor's submission and creates the donation in
// pending_approval. Donor aggregates are untouched here; they only move when
// an administrator approves.
func (s *Service) Submit(ctx context.Context, claims *auth.JWTClaims, req SubmitRequest) (*Donation, error) {
	if claims.Role != auth.RoleDonor {
		return nil, apperr.New(apperr.KindForbidden, "only donors can submit donations")
	}
	donorUserID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}
	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid receiver id")
	}

	amount, items, err := normalizePayload(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.CheckReceiverVerified(ctx, receiverID); err != nil {
		return nil, err
	}
	donor, err := s.store.FindDonorProfile(ctx, donorUserID)
	if err != nil {
		return nil, err
	}
	if donor == nil {
		return nil, apperr.New(apperr.KindNotFound, "donor profile not found")
	}

	now := time.Now()
	d := &Donation{
		ID:                primitive.NewObjectID(),
		DonorID:           donor.ID,
		DonorEmail:        donor.Email,
		ReceiverID:        receiverID,
		DonationType:      req.DonationType,
		Amount:            amount,
		Items:             items,
		Status:            StatusPendingApproval,
		DeliveryNotes:     req.DeliveryNotes,
		ScheduledDelivery: req.ScheduledDelivery,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.InsertDonation(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info("Donation submitted",
		zap.String("donation_id", d.ID.Hex()),
		zap.String("donor_email", d.DonorEmail),
		zap.String("type", d.DonationType))
	return d, nil
}

// normalizePayload enforces the funds/items invariant: funds donations carry a
// positive amount and no items, everything else carries at least one named
// item and no amount.
func normalizePayload(req SubmitRequest) (float64, []Item, error) {
	switch req.DonationType {
	case TypeFunds:
		if req.Amount <= 0 {
			return 0, nil, apperr.New(apperr.KindInvalidInput, "funds donations require a positive amount")
		}
		return req.Amount, []Item{}, nil
	case TypeFood, TypeClothing, TypeOther:
		items := make([]Item, 0, len(req.Items))
		for _, item := range req.Items {
			if strings.TrimSpace(item.Name) == "" {
				continue
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			return 0, nil, apperr.New(apperr.KindInvalidInput, "at least one item with a name is required")
		}
		return 0, items, nil
	default:
		return 0, nil, apperr.Newf(apperr.KindInvalidInput, "unknown donation type %q", req.DonationType)
	}
}

// Approve moves a pending_approval donation into the delivery chain and
// applies the donor aggregate updates atomically. Exactly one of any set of
// concurrent approvals succeeds.
func (s *Service) Approve(ctx context.Context, claims *auth.JWTClaims, donationID string) (*Donation, error) {
	if claims.Role != auth.RoleAdministrator {
		return nil, apperr.New(apperr.KindForbidden, "only administrators can approve donations")
	}
	id, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}

	d, err := s.store.ApproveDonation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(StatusPendingApproval), string(StatusPending)).Inc()
	s.metrics.ApprovedAmount.Add(d.Amount)
	s.log.Info("Donation approved",
		zap.String("donation_id", d.ID.Hex()),
		zap.String("admin", claims.Email),
		zap.Float64("amount", d.Amount))
	return d, nil
}

// Reject ends a pending_approval donation. Donor aggregates stay untouched.
func (s *Service) Reject(ctx context.Context, claims *auth.JWTClaims, donationID string) (*Donation, error) {
	if claims.Role != auth.RoleAdministrator {
		return nil, apperr.New(apperr.KindForbidden, "only administrators can reject donations")
	}
	id, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}

	d, err := s.store.RejectDonation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(StatusPendingApproval), string(StatusRejected)).Inc()
	s.log.Info("Donation rejected",
		zap.String("donation_id", d.ID.Hex()),
		zap.String("admin", claims.Email))
	return d, nil
}

// AdvanceDelivery moves an approved donation one step along the delivery
// chain. The store-level compare-and-set on the prior status turns any lost
// race into a Conflict instead of a double transition.
func (s *Service) AdvanceDelivery(ctx context.Context, claims *auth.JWTClaims, donationID string, req AdvanceRequest) (*Donation, error) {
	if claims.Role != auth.RoleBatchStaff {
		return nil, apperr.New(apperr.KindForbidden, "only batch staff can advance deliveries")
	}
	staffID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}
	id, err := primitive.ObjectIDFromHex(donationID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid donation id")
	}
	next, err := ParseStatus(req.NextStatus)
	if err != nil {
		return nil, err
	}

	d, err := s.store.FindDonationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.New(apperr.KindNotFound, "donation not found")
	}
	if err := ValidateAdvance(d.Status, next); err != nil {
		return nil, err
	}

	now := time.Now()
	update := DeliveryUpdate{
		Notes:     appendNotes(d.DeliveryNotes, req.Notes),
		HandledBy: staffID,
		HandledAt: now,
	}
	if next == StatusDelivered {
		update.ActualDelivery = &now
	}

	updated, err := s.store.AdvanceDelivery(ctx, id, d.Status, next, update)
	if err != nil {
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(d.Status), string(next)).Inc()
	s.log.Info("Delivery advanced",
		zap.String("donation_id", updated.ID.Hex()),
		zap.String("staff", claims.Email),
		zap.String("from", string(d.Status)),
		zap.String("to", string(next)))
	return updated, nil
}

func appendNotes(existing, added string) string {
	if added == "" {
		return existing
	}
	if existing == "" {
		return added
	}
	return existing + "\n" + added
}

// ListMine returns the donor's own donations, newest first.
func (s *Service) ListMine(ctx context.Context, claims *auth.JWTClaims) ([]*Donation, error) {
	if claims.Role != auth.RoleDonor {
		return nil, apperr.New(apperr.KindForbidden, "only donors can list their donations")
	}
	donorUserID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}
	donations, err := s.store.FindDonationsByDonor(ctx, donorUserID)
	if err != nil {
		return nil, err
	}
	if donations == nil {
		donations = []*Donation{}
	}
	return donations, nil
}

// ListPendingApprovals returns the approval queue joined with each donor's
// summary. A donor record that has gone missing does not fail the queue.
func (s *Service) ListPendingApprovals(ctx context.Context, claims *auth.JWTClaims) ([]*PendingDonation, error) {
	if claims.Role != auth.RoleAdministrator {
		return nil, apperr.New(apperr.KindForbidden, "only administrators can list pending approvals")
	}
	donations, err := s.store.FindDonationsByStatus(ctx, StatusPendingApproval)
	if err != nil {
		return nil, err
	}

	pending := make([]*PendingDonation, 0, len(donations))
	for _, d := range donations {
		donor, err := s.store.FindDonorProfile(ctx, d.DonorID)
		if err != nil {
			s.log.Warn("Donor lookup failed for approval queue",
				zap.String("donation_id", d.ID.Hex()), zap.Error(err))
			donor = nil
		}
		pending = append(pending, &PendingDonation{Donation: d, Donor: donor})
	}
	return pending, nil
}
