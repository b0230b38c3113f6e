package engine

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// GateResult classifies the outcome of a captcha answer.
type GateResult int

const (
	// GatePass: the answer matched; the stored original event should be
	// replayed through normal dispatch.
	GatePass GateResult = iota
	// GateWrong: no match, same challenge stays outstanding.
	GateWrong
	// GateReminted: the retry cap was hit and a fresh code was minted.
	GateReminted
)

type challenge struct {
	code     string
	attempts int
	// original is the event that triggered the challenge, held so it
	// can be re-injected once the user verifies.
	original any
}

// Gate is the admission gate for first private contact. One dispatcher
// consults it per inbound event; there is no per-user handler
// registration. At most one challenge is outstanding per user, and a
// verified user is never challenged again for the process lifetime.
type Gate struct {
	mu          sync.Mutex
	verified    map[int64]struct{}
	pending     map[int64]*challenge
	maxAttempts int
}

func NewGate(maxAttempts int) *Gate {
	return &Gate{
		verified:    make(map[int64]struct{}),
		pending:     make(map[int64]*challenge),
		maxAttempts: maxAttempts,
	}
}

// Verified reports whether the user has already passed the gate.
func (g *Gate) Verified(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.verified[userID]
	return ok
}

// Outstanding reports whether the user has a pending challenge.
func (g *Gate) Outstanding(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[userID]
	return ok
}

// Begin mints a 4-digit challenge for the user, keeping the triggering
// event for replay after verification. If a challenge is already
// outstanding the existing code is returned unchanged.
func (g *Gate) Begin(userID int64, original any) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.pending[userID]; ok {
		return c.code
	}
	c := &challenge{code: mintCode(), original: original}
	g.pending[userID] = c
	return c.code
}

// Submit checks an answer against the user's outstanding challenge.
// Answers from users without a challenge are never mistaken for someone
// else's code; they report GateWrong with no state change. On GatePass
// the challenge is destroyed, the user is marked verified and the
// original triggering event is returned for re-injection. On
// GateReminted the fresh code is returned.
func (g *Gate) Submit(userID int64, answer string) (GateResult, any, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.pending[userID]
	if !ok {
		return GateWrong, nil, ""
	}
	if strings.TrimSpace(answer) == c.code {
		delete(g.pending, userID)
		g.verified[userID] = struct{}{}
		return GatePass, c.original, ""
	}
	c.attempts++
	if c.attempts >= g.maxAttempts {
		c.code = mintCode()
		c.attempts = 0
		return GateReminted, nil, c.code
	}
	return GateWrong, nil, ""
}

func mintCode() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}
