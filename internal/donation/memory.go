package donation

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coswo/pkg/apperr"
)

// MemoryUser is the in-memory counterpart of the user record, reduced to what
// the lifecycle engine touches.
type MemoryUser struct {
	Profile            DonorProfile
	TotalDonations     int64
	TotalAmountDonated float64
}

// InMemory is a Store kept in process memory. It mirrors the MongoDB store's
// conditional-transition semantics under a single mutex and backs the service
// tests.
type InMemory struct {
	mu        sync.Mutex
	donations map[primitive.ObjectID]*Donation
	users     map[primitive.ObjectID]*MemoryUser
	receivers map[primitive.ObjectID]string
	nextDonor int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		donations: make(map[primitive.ObjectID]*Donation),
		users:     make(map[primitive.ObjectID]*MemoryUser),
		receivers: make(map[primitive.ObjectID]string),
	}
}

// AddUser seeds a user record and returns its id.
func (s *InMemory) AddUser(name, email, phone string) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	s.users[id] = &MemoryUser{
		Profile: DonorProfile{ID: id, Name: name, Email: email, PhoneNumber: phone},
	}
	return id
}

// AddReceiver seeds a receiver with the given verification status.
func (s *InMemory) AddReceiver(verificationStatus string) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	s.receivers[id] = verificationStatus
	return id
}

// User returns a snapshot of a seeded user for assertions.
func (s *InMemory) User(id primitive.ObjectID) MemoryUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	snapshot := *u
	if u.Profile.DonorID != nil {
		n := *u.Profile.DonorID
		snapshot.Profile.DonorID = &n
	}
	return snapshot
}

func (s *InMemory) InsertDonation(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *d
	s.donations[d.ID] = &copied
	return nil
}

func (s *InMemory) FindDonationByID(_ context.Context, id primitive.ObjectID) (*Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (s *InMemory) FindDonationsByDonor(_ context.Context, donorID primitive.ObjectID) ([]*Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Donation
	for _, d := range s.donations {
		if d.DonorID == donorID {
			copied := *d
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *InMemory) FindDonationsByStatus(_ context.Context, status Status) ([]*Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Donation
	for _, d := range s.donations {
		if d.Status == status {
			copied := *d
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *InMemory) FindDonorProfile(_ context.Context, userID primitive.ObjectID) (*DonorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	profile := u.Profile
	return &profile, nil
}

func (s *InMemory) CheckReceiverVerified(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.receivers[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "receiver not found")
	}
	if status != "verified" {
		return apperr.New(apperr.KindInvalidInput, "receiver is not verified")
	}
	return nil
}

func (s *InMemory) ApproveDonation(_ context.Context, id primitive.ObjectID) (*Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donations[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "donation not found")
	}
	if d.Status != StatusPendingApproval {
		return nil, apperr.New(apperr.KindConflict, "donation is not pending approval")
	}
	donor, ok := s.users[d.DonorID]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "donor profile not found")
	}

	d.Status = StatusPending
	donor.TotalDonations++
	donor.TotalAmountDonated += d.Amount
	if donor.Profile.DonorID == nil {
		s.nextDonor++
		n := s.nextDonor
		donor.Profile.DonorID = &n
	}

	copied := *d
	return &copied, nil
}

func (s *InMemory) RejectDonation(_ context.Context, id primitive.ObjectID) (*Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donations[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "donation not found")
	}
	if d.Status != StatusPendingApproval {
		return nil, apperr.New(apperr.KindConflict, "donation is not pending approval")
	}
	d.Status = StatusRejected

	copied := *d
	return &copied, nil
}

func (s *InMemory) AdvanceDelivery(_ context.Context, id primitive.ObjectID, from, to Status, update DeliveryUpdate) (*Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donations[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "donation not found")
	}
	if d.Status != from {
		return nil, apperr.New(apperr.KindConflict, "donation status changed concurrently")
	}

	d.Status = to
	d.HandledBy = update.HandledBy
	handledAt := update.HandledAt
	d.HandledAt = &handledAt
	d.UpdatedAt = update.HandledAt
	if update.Notes != "" {
		d.DeliveryNotes = update.Notes
	}
	if update.ActualDelivery != nil {
		actual := *update.ActualDelivery
		d.ActualDelivery = &actual
	}

	copied := *d
	return &copied, nil
}
