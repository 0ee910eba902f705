package stats

import (
	"context"
	"time"

	mstats "github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/internal/auth"
	"coswo/internal/donation"
	"coswo/pkg/apperr"
)

// Store is the read-only query surface the aggregator runs on.
type Store interface {
	CountUsersByRole(ctx context.Context, role string) (int64, error)
	UserTotals(ctx context.Context, userID primitive.ObjectID) (int64, float64, error)
	CountDonationsByStatus(ctx context.Context, statuses ...donation.Status) (int64, error)
	CountDonorDonationsByStatus(ctx context.Context, donorID primitive.ObjectID, statuses ...donation.Status) (int64, error)
	CountDistinctReceivers(ctx context.Context, donorID primitive.ObjectID) (int64, error)
	CountHandledSince(ctx context.Context, staffID primitive.ObjectID, since time.Time) (int64, error)
	ApprovedFundsAmounts(ctx context.Context) ([]float64, error)
}

// Service computes the role dashboards. Every figure degrades to zero on a
// failed read instead of failing the whole dashboard.
type Service struct {
	store Store
	cache *Cache
	log   *zap.Logger
}

func NewService(store Store, cache *Cache, log *zap.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

func (s *Service) count(name string, value int64, err error) int64 {
	if err != nil {
		s.log.Warn("Dashboard figure degraded to zero", zap.String("figure", name), zap.Error(err))
		return 0
	}
	return value
}

func (s *Service) DonorDashboard(ctx context.Context, claims *auth.JWTClaims) (*DonorDashboard, error) {
	donorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}

	key := "dashboard:donor:" + claims.UserID
	var cached DonorDashboard
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	dashboard := &DonorDashboard{}
	totalDonations, totalAmount, err := s.store.UserTotals(ctx, donorID)
	if err != nil {
		s.log.Warn("Dashboard figure degraded to zero", zap.String("figure", "user_totals"), zap.Error(err))
	} else {
		dashboard.TotalDonations = totalDonations
		dashboard.TotalAmountDonated = totalAmount
	}

	peopleHelped, err := s.store.CountDistinctReceivers(ctx, donorID)
	dashboard.PeopleHelped = s.count("people_helped", peopleHelped, err)

	confirmed, err := s.store.CountDonorDonationsByStatus(ctx, donorID, donation.StatusConfirmed)
	dashboard.ConfirmedDeliveries = s.count("confirmed_deliveries", confirmed, err)

	if s.cache != nil {
		s.cache.Set(ctx, key, dashboard)
	}
	return dashboard, nil
}

func (s *Service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	key := "dashboard:admin"
	var cached AdminDashboard
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	dashboard := &AdminDashboard{}

	donors, err := s.store.CountUsersByRole(ctx, auth.RoleDonor)
	dashboard.ActiveDonors = s.count("active_donors", donors, err)

	staff, err := s.store.CountUsersByRole(ctx, auth.RoleBatchStaff)
	dashboard.ActiveBatchStaff = s.count("active_batch_staff", staff, err)

	pendingApprovals, err := s.store.CountDonationsByStatus(ctx, donation.StatusPendingApproval)
	dashboard.PendingApprovals = s.count("pending_approvals", pendingApprovals, err)

	toBeAssigned, err := s.store.CountDonationsByStatus(ctx, donation.StatusPending)
	dashboard.ToBeAssigned = s.count("to_be_assigned", toBeAssigned, err)

	ongoing, err := s.store.CountDonationsByStatus(ctx, donation.StatusInTransit)
	dashboard.Ongoing = s.count("ongoing", ongoing, err)

	delivered, err := s.store.CountDonationsByStatus(ctx, donation.StatusDelivered, donation.StatusConfirmed)
	dashboard.Delivered = s.count("delivered", delivered, err)

	amounts, err := s.store.ApprovedFundsAmounts(ctx)
	if err != nil {
		s.log.Warn("Dashboard figure degraded to zero", zap.String("figure", "average_amount"), zap.Error(err))
	} else if mean, err := mstats.Mean(amounts); err == nil {
		dashboard.AverageAmount = mean
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, dashboard)
	}
	return dashboard, nil
}

func (s *Service) StaffDashboard(ctx context.Context, claims *auth.JWTClaims) (*StaffDashboard, error) {
	staffID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}

	key := "dashboard:staff:" + claims.UserID
	var cached StaffDashboard
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	dashboard := &StaffDashboard{}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	assigned, err := s.store.CountHandledSince(ctx, staffID, monthStart)
	dashboard.AssignedThisMonth = s.count("assigned_this_month", assigned, err)

	ongoing, err := s.store.CountDonationsByStatus(ctx, donation.StatusInTransit)
	dashboard.Ongoing = s.count("ongoing", ongoing, err)

	delivered, err := s.store.CountDonationsByStatus(ctx, donation.StatusDelivered, donation.StatusConfirmed)
	dashboard.Delivered = s.count("delivered", delivered, err)

	if s.cache != nil {
		s.cache.Set(ctx, key, dashboard)
	}
	return dashboard, nil
}
