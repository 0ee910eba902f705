package receiver

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coswo/pkg/apperr"
)

// InMemory is a Store kept in process memory. It mirrors the MongoDB store's
// decide-once semantics under a single mutex and backs the service tests.
type InMemory struct {
	mu        sync.Mutex
	receivers map[primitive.ObjectID]*Receiver
}

func NewInMemory() *InMemory {
	return &InMemory{receivers: make(map[primitive.ObjectID]*Receiver)}
}

func (s *InMemory) CreateReceiver(_ context.Context, receiver *Receiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *receiver
	s.receivers[receiver.ID] = &copied
	return nil
}

func (s *InMemory) FindVerified(_ context.Context) ([]*Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Receiver
	for _, r := range s.receivers {
		if r.VerificationStatus == VerificationVerified {
			copied := *r
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *InMemory) UpdateVerification(_ context.Context, id primitive.ObjectID, status string) (*Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.receivers[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "receiver not found")
	}
	if r.VerificationStatus != VerificationPending {
		return nil, apperr.New(apperr.KindConflict, "receiver verification already decided")
	}
	r.VerificationStatus = status
	r.UpdatedAt = time.Now()

	copied := *r
	return &copied, nil
}
