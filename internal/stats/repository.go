package stats

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coswo/internal/donation"
)

// StatsRepository runs the read-only count queries the dashboards are built
// from.
type StatsRepository struct {
	users     *mongo.Collection
	donations *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{
		users:     db.Collection("users"),
		donations: db.Collection("donations"),
	}
}

func statusFilter(statuses []donation.Status) bson.M {
	values := make([]donation.Status, len(statuses))
	copy(values, statuses)
	return bson.M{"$in": values}
}

func (r *StatsRepository) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{"role": role})
}

func (r *StatsRepository) UserTotals(ctx context.Context, userID primitive.ObjectID) (int64, float64, error) {
	var user struct {
		TotalDonations     int64   `bson:"total_donations"`
		TotalAmountDonated float64 `bson:"total_amount_donated"`
	}
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	return user.TotalDonations, user.TotalAmountDonated, nil
}

func (r *StatsRepository) CountDonationsByStatus(ctx context.Context, statuses ...donation.Status) (int64, error) {
	return r.donations.CountDocuments(ctx, bson.M{"status": statusFilter(statuses)})
}

func (r *StatsRepository) CountDonorDonationsByStatus(ctx context.Context, donorID primitive.ObjectID, statuses ...donation.Status) (int64, error) {
	return r.donations.CountDocuments(ctx, bson.M{"donor_id": donorID, "status": statusFilter(statuses)})
}

func (r *StatsRepository) CountDistinctReceivers(ctx context.Context, donorID primitive.ObjectID) (int64, error) {
	receivers, err := r.donations.Distinct(ctx, "receiver_id", bson.M{
		"donor_id": donorID,
		"status":   statusFilter(donation.AcceptedStatuses),
	})
	if err != nil {
		return 0, err
	}
	return int64(len(receivers)), nil
}

func (r *StatsRepository) CountHandledSince(ctx context.Context, staffID primitive.ObjectID, since time.Time) (int64, error) {
	return r.donations.CountDocuments(ctx, bson.M{
		"handled_by": staffID,
		"handled_at": bson.M{"$gte": since},
	})
}

func (r *StatsRepository) ApprovedFundsAmounts(ctx context.Context) ([]float64, error) {
	opts := options.Find().SetProjection(bson.M{"amount": 1})
	cursor, err := r.donations.Find(ctx, bson.M{
		"donation_type": donation.TypeFunds,
		"status":        statusFilter(donation.AcceptedStatuses),
	}, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		Amount float64 `bson:"amount"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	amounts := make([]float64, 0, len(docs))
	for _, doc := range docs {
		amounts = append(amounts, doc.Amount)
	}
	return amounts, nil
}
