package donation

import "coswo/pkg/apperr"

// Status is the donation workflow state. Submissions start at
// StatusPendingApproval; an administrator's approval moves the donation
// straight into the delivery chain at StatusPending (the original data model
// has no separate "accepted" value), rejection ends it at StatusRejected.
// Delivery then advances one step at a time through the ordered chain
// pending -> in_transit -> delivered -> confirmed.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusPending         Status = "pending"
	StatusInTransit       Status = "in_transit"
	StatusDelivered       Status = "delivered"
	StatusConfirmed       Status = "confirmed"
	StatusRejected        Status = "rejected"
)

// deliverySuccessor is the only legal step out of each delivery state.
var deliverySuccessor = map[Status]Status{
	StatusPending:   StatusInTransit,
	StatusInTransit: StatusDelivered,
	StatusDelivered: StatusConfirmed,
}

// AcceptedStatuses are the states of an approved donation, in delivery order.
var AcceptedStatuses = []Status{StatusPending, StatusInTransit, StatusDelivered, StatusConfirmed}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPendingApproval, StatusPending, StatusInTransit, StatusDelivered, StatusConfirmed, StatusRejected:
		return Status(s), nil
	}
	return "", apperr.Newf(apperr.KindInvalidInput, "unknown status %q", s)
}

// Accepted reports whether the donation has passed administrator approval.
func (s Status) Accepted() bool {
	_, inChain := deliverySuccessor[s]
	return inChain || s == StatusConfirmed
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// NextDelivery returns the immediate successor in the delivery chain.
func (s Status) NextDelivery() (Status, bool) {
	next, ok := deliverySuccessor[s]
	return next, ok
}

// ValidateAdvance checks that next is the immediate successor of cur. Skipping
// states is rejected, as is advancing anything outside the delivery chain.
func ValidateAdvance(cur, next Status) error {
	successor, ok := cur.NextDelivery()
	if !ok {
		return apperr.Newf(apperr.KindInvalidTransition, "donation in status %q cannot advance", cur)
	}
	if next != successor {
		return apperr.Newf(apperr.KindInvalidTransition, "cannot advance from %q to %q, next step is %q", cur, next, successor)
	}
	return nil
}
