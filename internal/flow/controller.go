// Package flow implements the questionnaire state machine: given a
// session's state and an inbound message, it records answers, advances
// through the catalog, emits interim summaries, and hands off to proposal
// generation on completion.
package flow

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/extract"
	"github.com/hidrotec-mx/intake-cli/internal/model"
)

// Generator produces free-form replies outside the structured
// questionnaire path. Implementations must degrade gracefully: a backend
// outage yields a canned reply, not an error.
type Generator interface {
	Generate(ctx context.Context, history []model.ChatMessage, extraContext string) (string, error)
}

// Question ids whose answers feed the key-entity cache.
const (
	companyQuestionID  = "nombre_empresa"
	locationQuestionID = "ubicacion"
)

// Options configures a Controller.
type Options struct {
	// SummaryEvery is the answered-question cadence for interim summaries.
	// Zero disables them.
	SummaryEvery int
	// HistoryLimit caps how many trailing messages feed the generator.
	HistoryLimit int
	// StartIntent and DownloadIntent override the default gates.
	StartIntent    IntentFunc
	DownloadIntent IntentFunc
}

// Controller is the flow state machine. It is stateless itself; all
// per-session data lives in the model.State it is handed.
type Controller struct {
	cat          *catalog.Catalog
	gen          Generator
	summaryEvery int
	historyLimit int
	startIntent  IntentFunc
	downloadIntn IntentFunc
}

// New creates a Controller over a catalog and a generator.
func New(cat *catalog.Catalog, gen Generator, opts Options) *Controller {
	if opts.SummaryEvery == 0 {
		opts.SummaryEvery = 5
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	if opts.StartIntent == nil {
		opts.StartIntent = DefaultStartIntent
	}
	if opts.DownloadIntent == nil {
		opts.DownloadIntent = DefaultDownloadIntent
	}
	return &Controller{
		cat:          cat,
		gen:          gen,
		summaryEvery: opts.SummaryEvery,
		historyLimit: opts.HistoryLimit,
		startIntent:  opts.StartIntent,
		downloadIntn: opts.DownloadIntent,
	}
}

// HandleMessage processes one inbound user message against the session
// state and returns the formatted reply. State changes are applied in
// full before returning; a returned error means no answer was recorded.
func (c *Controller) HandleMessage(ctx context.Context, st *model.State, raw string) (model.Outbound, error) {
	st.AppendHistory("user", raw)

	var reply string
	var err error
	switch {
	case st.Completed:
		reply, err = c.handlePostComplete(ctx, st, raw)
	case !st.Active:
		reply, err = c.handleNotStarted(ctx, st, raw)
	default:
		reply = c.handleActive(st, raw)
	}
	if err != nil {
		return model.Outbound{}, err
	}

	st.AppendHistory("assistant", reply)
	return model.Outbound{
		SessionID:        st.SessionID,
		Reply:            reply,
		Completed:        st.Completed,
		AwaitingDocument: c.awaitingDocument(st),
	}, nil
}

// awaitingDocument reports whether the question now pending carries the
// document-suggestion flag, for UI upload affordances.
func (c *Controller) awaitingDocument(st *model.State) bool {
	if st.Pending.Step != model.StepQuestion {
		return false
	}
	q := c.cat.FindQuestion(st.Sector, st.Subsector, st.Pending.QuestionID)
	return q != nil && q.SuggestDocument
}

func (c *Controller) handleNotStarted(ctx context.Context, st *model.State, raw string) (string, error) {
	if !c.startIntent(raw) {
		// No state mutation: delegate to the generator with recent history.
		return c.gen.Generate(ctx, st.RecentHistory(c.historyLimit), "")
	}

	st.Active = true
	st.Pending = model.Pending{Step: model.StepSector}
	q := c.cat.SectorQuestion()
	return welcomeText + "\n\n" + questionResponse{Question: q}.String(), nil
}

func (c *Controller) handleActive(st *model.State, raw string) string {
	switch st.Pending.Step {
	case model.StepSector:
		return c.handleSectorPending(st, raw)
	case model.StepSubsector:
		return c.handleSubsectorPending(st, raw)
	case model.StepQuestion:
		return c.handleQuestionPending(st, raw)
	default:
		// The pointer was cleared unexpectedly. Loss of position is a
		// recoverable inconsistency, not a reason to reset the session.
		zap.L().Warn("pending pointer missing, restoring",
			zap.String("session_id", st.SessionID),
			zap.String("sector", st.Sector),
		)
		return c.restorePending(st)
	}
}

func (c *Controller) handleSectorPending(st *model.State, raw string) string {
	q := c.cat.SectorQuestion()
	resolved := extract.Resolve(q, raw)[0]
	if !slices.Contains(q.Options, resolved) {
		return rePromptText + "\n\n" + questionResponse{Question: q}.String()
	}

	st.Sector = resolved
	st.SetAnswer(catalog.SectorAnswerKey, resolved)
	st.Pending = model.Pending{Step: model.StepSubsector}

	subQ, err := c.cat.SubsectorQuestion(resolved)
	if err != nil {
		// Catalog misuse; cannot happen for an option we just validated.
		zap.L().Error("subsector lookup failed for selected sector",
			zap.String("sector", resolved), zap.Error(err))
		return rePromptText
	}
	return questionResponse{
		Ack:         ackFor(st.QuestionsAnswered),
		Fact:        factFor(c.cat.Facts(st.Sector), st.QuestionsAnswered),
		Question:    subQ,
		IncludeAck:  true,
		IncludeFact: true,
	}.String()
}

func (c *Controller) handleSubsectorPending(st *model.State, raw string) string {
	subQ, err := c.cat.SubsectorQuestion(st.Sector)
	if err != nil {
		zap.L().Error("subsector prompt for unknown sector, completing",
			zap.String("session_id", st.SessionID),
			zap.String("sector", st.Sector), zap.Error(err))
		return c.complete(st)
	}

	resolved := extract.Resolve(subQ, raw)[0]
	if !slices.Contains(subQ.Options, resolved) {
		return rePromptText + "\n\n" + questionResponse{Question: subQ}.String()
	}

	st.Subsector = resolved
	st.SetAnswer(catalog.SubsectorAnswerKey, resolved)
	return c.advance(st, true)
}

func (c *Controller) handleQuestionPending(st *model.State, raw string) string {
	q := c.cat.FindQuestion(st.Sector, st.Subsector, st.Pending.QuestionID)
	if q == nil {
		// Dangling question id: recover by treating the catalog as
		// exhausted rather than crashing the session.
		zap.L().Error("pending question not in catalog, completing",
			zap.String("session_id", st.SessionID),
			zap.String("question_id", st.Pending.QuestionID),
		)
		return c.complete(st)
	}

	values := extract.Resolve(*q, raw)
	if st.SetAnswer(q.ID, values...) {
		st.QuestionsAnswered++
	}
	c.cacheEntities(st, q.ID, values)

	// Interim summary displaces the next question for this turn, at most
	// once per multiple.
	if c.summaryEvery > 0 &&
		st.QuestionsAnswered > 0 &&
		st.QuestionsAnswered%c.summaryEvery == 0 &&
		st.LastSummaryAt != st.QuestionsAnswered {
		st.LastSummaryAt = st.QuestionsAnswered
		return renderSummary(c.cat, st)
	}

	return c.advance(st, false)
}

func (c *Controller) cacheEntities(st *model.State, questionID string, values []string) {
	if len(values) == 0 || values[0] == "" {
		return
	}
	switch questionID {
	case companyQuestionID:
		st.Entities.Company = values[0]
	case locationQuestionID:
		st.Entities.Location = values[0]
	}
}

// advance moves the pointer to the first unanswered catalog question, in
// catalog order, and emits it; when none remains it completes the
// questionnaire. firstQuestion suppresses the acknowledgment on the hop
// from subsector selection into the catalog.
func (c *Controller) advance(st *model.State, firstQuestion bool) string {
	for _, q := range c.cat.QuestionsFor(st.Sector, st.Subsector) {
		if st.Answered(q.ID) {
			continue
		}
		st.Pending = model.Pending{Step: model.StepQuestion, QuestionID: q.ID}
		return questionResponse{
			Ack:         ackFor(st.QuestionsAnswered),
			Fact:        factFor(c.cat.Facts(st.Sector), st.QuestionsAnswered),
			Question:    q,
			IncludeAck:  !firstQuestion,
			IncludeFact: true,
		}.String()
	}
	return c.complete(st)
}

func (c *Controller) complete(st *model.State) string {
	st.Completed = true
	st.Active = false
	st.Pending = model.Pending{Step: model.StepNone}
	return completionText
}

// restorePending recomputes the pointer from what is already answered.
func (c *Controller) restorePending(st *model.State) string {
	if st.Sector == "" {
		st.Pending = model.Pending{Step: model.StepSector}
		return questionResponse{Question: c.cat.SectorQuestion()}.String()
	}
	if st.Subsector == "" {
		st.Pending = model.Pending{Step: model.StepSubsector}
		subQ, err := c.cat.SubsectorQuestion(st.Sector)
		if err != nil {
			return c.complete(st)
		}
		return questionResponse{Question: subQ}.String()
	}
	return c.advance(st, false)
}

func (c *Controller) handlePostComplete(ctx context.Context, st *model.State, raw string) (string, error) {
	if c.downloadIntn(raw) {
		return renderDownload(st.SessionID), nil
	}
	return c.gen.Generate(ctx, st.RecentHistory(c.historyLimit), answersContext(c.cat, st))
}
