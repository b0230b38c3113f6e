package engine

import "sync"

// Step is the ordinal position in the six-prompt intake flow. Each step
// binds exactly one draft field, verbatim, no validation.
type Step int

const (
	StepTitle Step = iota + 1
	StepAmount
	StepTimeFrame
	StepBank
	StepSeller
	StepBuyer
)

type session struct {
	step  Step
	draft Draft
}

// Intake walks users through assembling one deal draft. A user has at
// most one session; starting a new one overwrites the old, last writer
// wins. Abandoned sessions linger until overwritten.
type Intake struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func NewIntake() *Intake {
	return &Intake{sessions: make(map[int64]*session)}
}

// Start opens a fresh session for the user and returns the first step.
func (i *Intake) Start(userID int64) Step {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sessions[userID] = &session{step: StepTitle}
	return StepTitle
}

// Active reports whether the user has a session in progress.
func (i *Intake) Active(userID int64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.sessions[userID]
	return ok
}

// Advance feeds one message into the user's session. It returns the
// next step to prompt for, or the completed draft once the final field
// is bound (the session is deleted at that point). ok is false when the
// user has no session and the message is not intake input.
func (i *Intake) Advance(userID int64, text string) (next Step, done *Draft, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	s, exists := i.sessions[userID]
	if !exists {
		return 0, nil, false
	}

	switch s.step {
	case StepTitle:
		s.draft.Title = text
	case StepAmount:
		s.draft.Amount = text
	case StepTimeFrame:
		s.draft.TimeFrame = text
	case StepBank:
		s.draft.Bank = text
	case StepSeller:
		s.draft.Seller = text
	case StepBuyer:
		s.draft.Buyer = text
		draft := s.draft
		delete(i.sessions, userID)
		return 0, &draft, true
	}
	s.step++
	return s.step, nil, true
}
