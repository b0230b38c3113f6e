package models

import (
	"errors"
	"time"
)

type DealStatus string

const (
	StatusWaitingConfirmation DealStatus = "waiting_confirmation"
	StatusAwaitingPayment     DealStatus = "awaiting_payment"
	StatusPaymentReceived     DealStatus = "payment_received"
	StatusReleased            DealStatus = "released"
	StatusRefunded            DealStatus = "refunded"
	StatusExpired             DealStatus = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s DealStatus) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded || s == StatusExpired
}

type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// ParseRole maps a callback-supplied role string onto the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSeller:
		return RoleSeller, nil
	case RoleBuyer:
		return RoleBuyer, nil
	}
	return "", ErrInvalidInput
}

var (
	ErrDealNotFound = errors.New("deal not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrInvalidState = errors.New("deal not eligible in current status")
	ErrInvalidInput = errors.New("invalid input")
)

// Deal represents one escrow transaction tracked from intake to a
// terminal outcome. Handles are bound verbatim at creation time and
// compared by string equality everywhere.
type Deal struct {
	ID        string
	Title     string
	Amount    string
	TimeFrame string
	Bank      string
	Seller    string
	Buyer     string
	Status    DealStatus
	CreatedAt time.Time

	SellerConfirmed bool
	BuyerConfirmed  bool

	ReleaseVotes map[string]struct{}
	RefundVotes  map[string]struct{}

	// ClaimedBy is the admin monitoring payment for this deal; zero
	// while unclaimed.
	ClaimedBy int64
}

// NewDeal builds a deal in its initial state. The registry assigns ID.
func NewDeal(title, amount, timeFrame, bank, seller, buyer string, now time.Time) *Deal {
	return &Deal{
		Title:        title,
		Amount:       amount,
		TimeFrame:    timeFrame,
		Bank:         bank,
		Seller:       seller,
		Buyer:        buyer,
		Status:       StatusWaitingConfirmation,
		CreatedAt:    now,
		ReleaseVotes: make(map[string]struct{}),
		RefundVotes:  make(map[string]struct{}),
	}
}

// Handle returns the handle bound to the given role.
func (d *Deal) Handle(role Role) string {
	if role == RoleSeller {
		return d.Seller
	}
	return d.Buyer
}

// IsParty reports whether the handle is the deal's buyer or seller.
func (d *Deal) IsParty(handle string) bool {
	return handle == d.Buyer || handle == d.Seller
}

// Confirmed reports whether the given role has confirmed the terms.
func (d *Deal) Confirmed(role Role) bool {
	if role == RoleSeller {
		return d.SellerConfirmed
	}
	return d.BuyerConfirmed
}

// BothConfirmed reports whether both parties have confirmed.
func (d *Deal) BothConfirmed() bool {
	return d.SellerConfirmed && d.BuyerConfirmed
}

// Confirm records a party's acknowledgment of the deal terms. Only the
// handle recorded for the role may confirm, and only while the deal is
// waiting for confirmation. Re-confirming an already-confirmed role is
// a no-op that still succeeds. When the second party confirms, the deal
// advances to awaiting_payment.
func (d *Deal) Confirm(role Role, handle string) error {
	if d.Status != StatusWaitingConfirmation {
		return ErrInvalidState
	}
	switch role {
	case RoleSeller:
		if handle != d.Seller {
			return ErrUnauthorized
		}
		d.SellerConfirmed = true
	case RoleBuyer:
		if handle != d.Buyer {
			return ErrUnauthorized
		}
		d.BuyerConfirmed = true
	default:
		return ErrInvalidInput
	}
	if d.BothConfirmed() {
		d.Status = StatusAwaitingPayment
	}
	return nil
}

// MarkPaymentReceived advances the deal once the monitoring admin has
// verified the buyer's payment. Valid only from awaiting_payment.
func (d *Deal) MarkPaymentReceived() error {
	if d.Status != StatusAwaitingPayment {
		return ErrInvalidState
	}
	d.Status = StatusPaymentReceived
	return nil
}

// VoteRelease records a party's assent to release funds. The add is
// idempotent; the transition to released fires only when both distinct
// parties have voted. Returns the vote count after the add.
func (d *Deal) VoteRelease(handle string) (int, error) {
	n, err := d.vote(d.ReleaseVotes, handle)
	if err != nil {
		return 0, err
	}
	if n == 2 {
		d.Status = StatusReleased
	}
	return n, nil
}

// VoteRefund is the refund counterpart of VoteRelease.
func (d *Deal) VoteRefund(handle string) (int, error) {
	n, err := d.vote(d.RefundVotes, handle)
	if err != nil {
		return 0, err
	}
	if n == 2 {
		d.Status = StatusRefunded
	}
	return n, nil
}

func (d *Deal) vote(set map[string]struct{}, handle string) (int, error) {
	if d.Status != StatusPaymentReceived {
		return 0, ErrInvalidState
	}
	if !d.IsParty(handle) {
		return 0, ErrUnauthorized
	}
	set[handle] = struct{}{}
	return len(set), nil
}

// Clone returns a deep copy safe to use outside the registry lock.
func (d *Deal) Clone() *Deal {
	c := *d
	c.ReleaseVotes = make(map[string]struct{}, len(d.ReleaseVotes))
	for h := range d.ReleaseVotes {
		c.ReleaseVotes[h] = struct{}{}
	}
	c.RefundVotes = make(map[string]struct{}, len(d.RefundVotes))
	for h := range d.RefundVotes {
		c.RefundVotes[h] = struct{}{}
	}
	return &c
}
