// Package model holds the shared types passed between the flow controller,
// the session stores, and the proposal assembler.
package model

import "time"

// Step identifies which kind of prompt the session is waiting on.
type Step string

const (
	// StepNone means no prompt is outstanding: either the questionnaire has
	// not started yet or it already finished.
	StepNone Step = ""
	// StepSector waits on the sector-selection pseudo-question.
	StepSector Step = "sector"
	// StepSubsector waits on the subsector-selection pseudo-question.
	StepSubsector Step = "subsector"
	// StepQuestion waits on a catalog question identified by Pending.QuestionID.
	StepQuestion Step = "question"
)

// Pending is the tagged pending-question pointer. Catalog question ids and
// the two pseudo-questions live in separate variants so a catalog id can
// never collide with a selection step.
type Pending struct {
	Step       Step   `json:"step"`
	QuestionID string `json:"question_id,omitempty"`
}

// ChatMessage is one entry of a session's message history.
type ChatMessage struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// KeyEntities caches a few canonical fields lifted from specific answers.
// They feed proposal text only, never flow decisions.
type KeyEntities struct {
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
}

// State is the questionnaire state of one session. It is owned exclusively
// by that session and mutated only by the flow controller; the session
// manager serializes access per session id.
type State struct {
	SessionID string `json:"session_id"`

	Sector    string  `json:"sector,omitempty"`
	Subsector string  `json:"subsector,omitempty"`
	Pending   Pending `json:"pending"`

	// Answers maps question id (catalog id or pseudo answer key) to the
	// resolved values. Single-choice and free-text answers hold one value.
	Answers map[string][]string `json:"answers"`

	// QuestionsAnswered counts first-time answers only; overwriting an
	// already-answered question does not re-increment. The interim summary
	// cadence keys off this counter.
	QuestionsAnswered int `json:"questions_answered"`
	LastSummaryAt     int `json:"last_summary_at"`

	Active    bool `json:"active"`
	Completed bool `json:"completed"`

	Entities KeyEntities   `json:"entities"`
	History  []ChatMessage `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns a fresh, inactive state for the given session.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID: sessionID,
		Answers:   make(map[string][]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetAnswer records values under the question id and reports whether this
// was a first-time answer. Re-answering overwrites without re-counting.
func (s *State) SetAnswer(questionID string, values ...string) bool {
	if s.Answers == nil {
		s.Answers = make(map[string][]string)
	}
	_, seen := s.Answers[questionID]
	s.Answers[questionID] = values
	return !seen
}

// Answer returns the first recorded value for the question id, or "".
func (s *State) Answer(questionID string) string {
	if vals := s.Answers[questionID]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Answered reports whether the question id has any recorded answer.
func (s *State) Answered(questionID string) bool {
	_, ok := s.Answers[questionID]
	return ok
}

// AppendHistory adds a message to the session transcript.
func (s *State) AppendHistory(role, content string) {
	s.History = append(s.History, ChatMessage{Role: role, Content: content, At: time.Now().UTC()})
}

// RecentHistory returns up to n trailing messages.
func (s *State) RecentHistory(n int) []ChatMessage {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Outbound is the reply handed back to the caller (HTTP layer or CLI),
// already formatted, plus structured hints for UI affordances.
type Outbound struct {
	SessionID        string `json:"session_id"`
	Reply            string `json:"reply"`
	Completed        bool   `json:"completed"`
	AwaitingDocument bool   `json:"awaiting_document"`
}
