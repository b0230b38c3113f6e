package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/escrow-express/deal-bot/internal/models"
)

// Notifier delivers rendered messages to chat participants. The engine
// commits state before calling any of these; delivery failures are the
// notifier's to log and never reach back into deal state.
type Notifier interface {
	SendGroup(text string)
	SendGroupKeyboard(text string, buttons []Button)
	SendLog(text string)
	SendHandle(handle, text string)
	SendUser(userID int64, text string)
}

// Button describes one inline button keyed the way callbacks are parsed
// back: action_role_dealID.
type Button struct {
	Label  string
	Action string
	Role   models.Role
	DealID string
}

// Archiver persists deals that reached a terminal status. The active
// registry stays volatile; this is the durability extension point.
type Archiver interface {
	Record(d *models.Deal, closedAt time.Time) error
}

// Draft holds the six intake fields before a deal id is assigned.
type Draft struct {
	Title     string
	Amount    string
	TimeFrame string
	Bank      string
	Seller    string
	Buyer     string
}

// Engine drives the deal lifecycle: creation, confirmation, claim,
// payment receipt, release/refund voting and expiration.
type Engine struct {
	registry *Registry
	archive  Archiver
	notifier Notifier
	ownerID  int64
	deadline time.Duration
	logger   zerolog.Logger
}

func New(registry *Registry, archive Archiver, notifier Notifier, ownerID int64, deadline time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		registry: registry,
		archive:  archive,
		notifier: notifier,
		ownerID:  ownerID,
		deadline: deadline,
		logger:   logger.With().Str("service", "engine").Logger(),
	}
}

// CreateDeal registers a completed intake draft, announces it to the
// group with confirm buttons and writes a line to the log channel.
func (e *Engine) CreateDeal(draft Draft) *models.Deal {
	deal := e.registry.Create(models.NewDeal(draft.Title, draft.Amount, draft.TimeFrame, draft.Bank, draft.Seller, draft.Buyer, time.Now()))

	msg := fmt.Sprintf("✅ *New Deal Created*\n\n🆔 Deal ID: %s\n📌 Deal: %s\n💰 Amount: ₹%s\n⏳ Time: %s\n🏦 Bank: %s\n👤 Seller: @%s\n👤 Buyer: @%s",
		deal.ID, deal.Title, deal.Amount, deal.TimeFrame, deal.Bank, deal.Seller, deal.Buyer)
	e.notifier.SendGroupKeyboard(msg, []Button{
		{Label: "✅ Seller Confirm", Action: "confirm", Role: models.RoleSeller, DealID: deal.ID},
		{Label: "✅ Buyer Confirm", Action: "confirm", Role: models.RoleBuyer, DealID: deal.ID},
	})
	e.notifier.SendLog(fmt.Sprintf("📥 New deal logged: %s", deal.ID))

	e.logger.Info().Str("deal_id", deal.ID).Str("seller", deal.Seller).Str("buyer", deal.Buyer).Msg("deal created")
	return deal
}

// Confirm records one party's confirmation. When both parties have
// confirmed, the deal moves to awaiting_payment, the group is told, the
// buyer is asked for payment proof and the owner gets the claim prompt.
func (e *Engine) Confirm(dealID string, role models.Role, handle string) error {
	var (
		both  bool
		buyer string
	)
	err := e.registry.Update(dealID, func(d *models.Deal) error {
		if err := d.Confirm(role, handle); err != nil {
			return err
		}
		both = d.BothConfirmed()
		buyer = d.Buyer
		return nil
	})
	if err != nil {
		return err
	}

	if both {
		e.notifier.SendGroup(fmt.Sprintf("📌 Deal *%s* confirmed by both parties.", dealID))
		e.notifier.SendHandle(buyer, fmt.Sprintf("💳 Please send payment and reply with *Done Payment %s + Screenshot + Code*", dealID))
		e.notifier.SendUser(e.ownerID, fmt.Sprintf("🛎️ New deal *%s* ready. Use /claim %s to claim.", dealID, dealID))
	} else {
		other := models.RoleSeller
		if role == models.RoleSeller {
			other = models.RoleBuyer
		}
		e.notifier.SendGroup(fmt.Sprintf("⏳ Waiting for %s to confirm %s.", other, dealID))
	}

	e.logger.Info().Str("deal_id", dealID).Str("role", string(role)).Bool("both", both).Msg("confirmation recorded")
	return nil
}

// Claim records which admin is monitoring payment for the deal. It is
// bookkeeping only and deliberately ignores the current status.
func (e *Engine) Claim(dealID string, adminID int64) error {
	err := e.registry.Update(dealID, func(d *models.Deal) error {
		d.ClaimedBy = adminID
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info().Str("deal_id", dealID).Int64("admin_id", adminID).Msg("deal claimed")
	return nil
}

// MarkPaymentReceived opens release/refund voting. Only the claiming
// admin may mark a deal, or the owner while the deal is unclaimed.
func (e *Engine) MarkPaymentReceived(dealID string, adminID int64) error {
	var seller, buyer string
	err := e.registry.Update(dealID, func(d *models.Deal) error {
		if d.ClaimedBy != 0 {
			if d.ClaimedBy != adminID {
				return models.ErrUnauthorized
			}
		} else if adminID != e.ownerID {
			return models.ErrUnauthorized
		}
		if err := d.MarkPaymentReceived(); err != nil {
			return err
		}
		seller, buyer = d.Seller, d.Buyer
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.SendGroup(fmt.Sprintf("💰 Payment received for *%s*. Both parties may now /release %s or /refund %s.", dealID, dealID, dealID))
	e.notifier.SendHandle(seller, fmt.Sprintf("💰 Payment for *%s* is with escrow. Vote /release %s or /refund %s.", dealID, dealID, dealID))
	e.notifier.SendHandle(buyer, fmt.Sprintf("💰 Payment for *%s* is with escrow. Vote /release %s or /refund %s.", dealID, dealID, dealID))

	e.logger.Info().Str("deal_id", dealID).Int64("admin_id", adminID).Msg("payment marked received")
	return nil
}

// VoteRelease adds the handle to the deal's release-vote set. It
// reports true once both distinct parties have voted and the deal is
// released.
func (e *Engine) VoteRelease(dealID, handle string) (bool, error) {
	var snapshot *models.Deal
	err := e.registry.Update(dealID, func(d *models.Deal) error {
		if _, err := d.VoteRelease(handle); err != nil {
			return err
		}
		snapshot = d.Clone()
		return nil
	})
	if err != nil {
		return false, err
	}

	done := snapshot.Status == models.StatusReleased
	if done {
		e.notifier.SendGroup(fmt.Sprintf("✅ Payment released for *%s*", dealID))
		e.archiveDeal(snapshot)
	}
	e.logger.Info().Str("deal_id", dealID).Str("handle", handle).Bool("released", done).Msg("release vote")
	return done, nil
}

// VoteRefund is the refund counterpart of VoteRelease.
func (e *Engine) VoteRefund(dealID, handle string) (bool, error) {
	var snapshot *models.Deal
	err := e.registry.Update(dealID, func(d *models.Deal) error {
		if _, err := d.VoteRefund(handle); err != nil {
			return err
		}
		snapshot = d.Clone()
		return nil
	})
	if err != nil {
		return false, err
	}

	done := snapshot.Status == models.StatusRefunded
	if done {
		e.notifier.SendGroup(fmt.Sprintf("❌ Payment refunded for *%s*", dealID))
		e.archiveDeal(snapshot)
	}
	e.logger.Info().Str("deal_id", dealID).Str("handle", handle).Bool("refunded", done).Msg("refund vote")
	return done, nil
}

// DealsFor returns every deal where the handle is buyer or seller,
// regardless of status.
func (e *Engine) DealsFor(handle string) []*models.Deal {
	return e.registry.List(func(d *models.Deal) bool {
		return d.IsParty(handle)
	})
}

func (e *Engine) archiveDeal(d *models.Deal) {
	if e.archive == nil {
		return
	}
	if err := e.archive.Record(d, time.Now()); err != nil {
		e.logger.Error().Err(err).Str("deal_id", d.ID).Msg("failed to archive deal")
	}
}
