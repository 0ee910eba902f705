package proof

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coswo/internal/donation"
	"coswo/pkg/apperr"
)

// InMemory is a Store kept in process memory. It mirrors the MongoDB store's
// conflict semantics under a single mutex and backs the service tests.
type InMemory struct {
	mu        sync.Mutex
	proofs    map[primitive.ObjectID]*Proof
	donations map[primitive.ObjectID]*DonationView
}

func NewInMemory() *InMemory {
	return &InMemory{
		proofs:    make(map[primitive.ObjectID]*Proof),
		donations: make(map[primitive.ObjectID]*DonationView),
	}
}

// AddDonation seeds a donation view and returns its id.
func (s *InMemory) AddDonation(donorID primitive.ObjectID, donorEmail string, status donation.Status) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	s.donations[id] = &DonationView{
		ID:         id,
		DonorID:    donorID,
		DonorEmail: donorEmail,
		Status:     status,
	}
	return id
}

// View returns a snapshot of a seeded donation for assertions.
func (s *InMemory) View(id primitive.ObjectID) DonationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.donations[id]
}

func (s *InMemory) InsertProof(_ context.Context, p *Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *p
	s.proofs[p.ID] = &copied
	return nil
}

func (s *InMemory) FindProofsByDonation(_ context.Context, donationID primitive.ObjectID) ([]*Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Proof
	for _, p := range s.proofs {
		if p.DonationID == donationID {
			copied := *p
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *InMemory) FindSelectedProof(_ context.Context, donationID primitive.ObjectID) (*Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proofs {
		if p.DonationID == donationID && p.IsSelected {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemory) SelectProof(_ context.Context, donationID, proofID primitive.ObjectID) (*Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.proofs[proofID]
	if !ok || target.DonationID != donationID {
		return nil, apperr.New(apperr.KindNotFound, "proof not found for this donation")
	}
	for _, p := range s.proofs {
		if p.DonationID == donationID {
			p.IsSelected = false
		}
	}
	target.IsSelected = true

	copied := *target
	return &copied, nil
}

func (s *InMemory) FindDonationView(_ context.Context, id primitive.ObjectID) (*DonationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.donations[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "donation not found")
	}
	copied := *view
	return &copied, nil
}

func (s *InMemory) MarkProofSent(_ context.Context, donationID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.donations[donationID]
	if !ok || view.ProofSent {
		return apperr.New(apperr.KindConflict, "proof already dispatched")
	}
	view.ProofSent = true
	return nil
}

func (s *InMemory) UnmarkProofSent(_ context.Context, donationID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if view, ok := s.donations[donationID]; ok {
		view.ProofSent = false
	}
	return nil
}
