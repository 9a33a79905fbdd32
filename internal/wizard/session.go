package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/defensuk/defens/internal/casefile"
)

// Analyzer is the external service behind the analyzing and drafting screens.
// Implementations live in internal/analyzer; tests substitute fakes.
type Analyzer interface {
	Extract(ctx context.Context, img casefile.NoticeImage) (*casefile.NoticeFacts, error)
	Strategize(ctx context.Context, facts *casefile.NoticeFacts, answers casefile.Answers) (*casefile.Strategy, error)
	Draft(ctx context.Context, facts *casefile.NoticeFacts, answers casefile.Answers) (*casefile.LetterBundle, error)
}

// ErrWrongScreen rejects an event that does not apply to the current screen.
var ErrWrongScreen = errors.New("event does not apply to the current screen")

// Session binds one engine, one case record and the analyzer into a single
// logical thread: every event runs under one mutex, and the analyzer calls
// happen synchronously while the session sits on an async screen, so at most
// one call is ever in flight and its result is committed to the record before
// any branch predicate looks at it.
type Session struct {
	mu       sync.Mutex
	engine   *Engine
	rec      *casefile.CaseRecord
	analyzer Analyzer

	scrollPending bool
	lastError     string
}

func NewSession(a Analyzer) *Session {
	s := &Session{rec: casefile.NewCaseRecord(), analyzer: a}
	start := ScreenDisclaimer
	if a == nil {
		start = ScreenConfigError
	}
	s.engine = NewEngine(start, func(Screen) { s.scrollPending = true })
	return s
}

// RestoreSession rebuilds a session from persisted state. An unknown screen
// or one the session could not legitimately sit on (async screens have no
// in-flight call to resume) falls back to the disclaimer.
func RestoreSession(a Analyzer, rec *casefile.CaseRecord, screen Screen, history []Screen) *Session {
	s := NewSession(a)
	if a == nil {
		return s
	}
	if rec != nil {
		s.rec = rec
	}
	if !validScreen(screen) || screen.IsAsync() {
		screen = ScreenDisclaimer
		history = nil
	}
	s.engine.current = screen
	for _, h := range history {
		if validScreen(h) && !h.IsAsync() && !h.IsTerminal() {
			s.engine.history = append(s.engine.history, h)
		}
	}
	return s
}

// Snapshot flattens the session for restart persistence.
func (s *Session) Snapshot() (*casefile.CaseRecord, Screen, []Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, s.engine.Current(), s.engine.History()
}

// State is the view-facing snapshot of the session.
type State struct {
	Screen        Screen `json:"screen"`
	CanGoBack     bool   `json:"can_go_back"`
	GateName      string `json:"gate,omitempty"`
	GateSatisfied bool   `json:"gate_satisfied"`
	ScrollToTop   bool   `json:"scroll_to_top"`
	Unlocked      bool   `json:"unlocked"`
	LastError     string `json:"last_error,omitempty"`
}

// State reports the current screen and gate status. The scroll flag is
// consumed: it reads true exactly once per navigation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Screen:      s.engine.Current(),
		CanGoBack:   s.engine.CanGoBack(),
		ScrollToTop: s.scrollPending,
		Unlocked:    s.rec.Unlocked,
		LastError:   s.lastError,
	}
	if name, pred, ok := gateFor(st.Screen); ok {
		st.GateName = name
		st.GateSatisfied = pred(s.rec)
	}
	s.scrollPending = false
	return st
}

// Record exposes the case record for persistence and export. Callers must not
// retain the pointer across events.
func (s *Session) Record() *casefile.CaseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

func (s *Session) require(screens ...Screen) error {
	cur := s.engine.Current()
	for _, sc := range screens {
		if cur == sc {
			return nil
		}
	}
	return fmt.Errorf("%w: on %s", ErrWrongScreen, cur)
}

// passGate evaluates the named gate for the current screen and returns a
// GateError when it does not hold.
func (s *Session) passGate() error {
	name, pred, ok := gateFor(s.engine.Current())
	if !ok {
		return nil
	}
	if !pred(s.rec) {
		return &GateError{Gate: name}
	}
	return nil
}

// SetAttestations records the two disclaimer checkboxes without advancing.
func (s *Session) SetAttestations(understands, accepts bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenDisclaimer); err != nil {
		return err
	}
	s.rec.Answers.SetBool(qUnderstandsTerms, understands)
	s.rec.Answers.SetBool(qAcceptsResponsibility, accepts)
	return nil
}

// AcceptDisclaimer advances to upload once both attestations hold.
func (s *Session) AcceptDisclaimer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenDisclaimer); err != nil {
		return err
	}
	if err := s.passGate(); err != nil {
		return err
	}
	s.engine.NavigateTo(ScreenUpload)
	return nil
}

// Upload runs the extraction pass: enter analyzing, call the analyzer, commit
// the facts, then branch. A failed call rewinds to upload with the error
// surfaced; the record keeps whatever it already held.
func (s *Session) Upload(ctx context.Context, img casefile.NoticeImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenUpload); err != nil {
		return err
	}
	if len(img.Data) == 0 {
		return errors.New("no image selected")
	}
	s.lastError = ""
	s.engine.NavigateTo(ScreenAnalyzing)
	facts, err := s.analyzer.Extract(ctx, img)
	if err != nil {
		s.lastError = fmt.Sprintf("could not read the notice: %v", err)
		s.engine.GoBack()
		return fmt.Errorf("extract: %w", err)
	}
	s.rec.Notice = facts
	s.engine.NavigateTo(routeAfterExtraction(s.rec))
	return nil
}

// Binary-choice option values accepted by Choose. Each option IS the
// transition; there is no separate gate.
const (
	ChoiceYes          = "yes"
	ChoiceNo           = "no"
	ChoiceCouncil      = "council"
	ChoicePrivate      = "private"
	ChoiceStandard     = "standard"
	ChoiceDebtRecovery = "debt_recovery"
	ChoiceCourtClaim   = "court_claim"
)

// Choose resolves the binary/ternary intake screens. The stored answer only
// ever fills a field the extraction left unknown; routing re-runs afterwards.
func (s *Session) Choose(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.engine.Current() {
	case ScreenIntakeJurisdiction:
		if err := yesNo(option); err != nil {
			return err
		}
		s.rec.Answers.SetBool(qInEnglandWales, option == ChoiceYes)
	case ScreenIntakeType:
		if option != ChoiceCouncil && option != ChoicePrivate {
			return fmt.Errorf("unknown notice type option %q", option)
		}
		s.rec.Answers.SetText(qNoticeType, option)
	case ScreenIntakeStage:
		if option != ChoiceStandard && option != ChoiceDebtRecovery && option != ChoiceCourtClaim {
			return fmt.Errorf("unknown stage option %q", option)
		}
		s.rec.Answers.SetText(qNoticeStage, option)
	case ScreenCourtConfirmation:
		if err := yesNo(option); err != nil {
			return err
		}
		s.rec.Answers.SetBool(qCourtPapers, option == ChoiceYes)
	case ScreenIntakeAppealWindow:
		if err := yesNo(option); err != nil {
			return err
		}
		s.rec.Answers.SetBool(qWindowExpired, option == ChoiceYes)
	case ScreenPrivateStageCheck:
		if err := yesNo(option); err != nil {
			return err
		}
		s.rec.Answers.SetBool(qPrivateDebtLetter, option == ChoiceYes)
	case ScreenDebtDisputeCheck:
		if err := yesNo(option); err != nil {
			return err
		}
		s.rec.Answers.SetBool(qDisputesDebt, option == ChoiceYes)
	default:
		return fmt.Errorf("%w: on %s", ErrWrongScreen, s.engine.Current())
	}
	s.engine.NavigateTo(nextIntake(s.rec))
	return nil
}

func yesNo(option string) error {
	if option != ChoiceYes && option != ChoiceNo {
		return fmt.Errorf("expected yes or no, got %q", option)
	}
	return nil
}

// SelectCategory records the contravention category. Anything in the defence
// library moves to ground selection; the catch-all category is outside what
// the tool can draft for and stops at the advisory terminal.
func (s *Session) SelectCategory(cat casefile.ContraventionCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenContraventionSel); err != nil {
		return err
	}
	if _, ok := casefile.DefenceLibrary[cat]; !ok {
		return fmt.Errorf("unknown contravention category %q", cat)
	}
	s.rec.Answers.SetText(qCategory, string(cat))
	if cat == casefile.CategoryOther {
		s.engine.NavigateTo(ScreenCannotHelp)
		return nil
	}
	s.engine.NavigateTo(ScreenDefenceSelect)
	return nil
}

// ToggleOption flips one multi-select entry on the grounds or dispute-basis
// screen. At the selection cap an addition is silently ignored; removal is
// always honored.
func (s *Session) ToggleOption(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.engine.Current() {
	case ScreenDefenceSelect:
		s.rec.Answers.Toggle(qGrounds, id, maxSelections)
	case ScreenDisputeBasis:
		s.rec.Answers.Toggle(qDisputeBasis, id, maxSelections)
	default:
		return fmt.Errorf("%w: on %s", ErrWrongScreen, s.engine.Current())
	}
	return nil
}

// SetMitigation records the mitigating-circumstances opt-in offered alongside
// the grounds list.
func (s *Session) SetMitigation(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenDefenceSelect); err != nil {
		return err
	}
	s.rec.Answers.SetBool(qMitigation, v)
	return nil
}

// SubmitSelection leaves the grounds or dispute-basis screen once its bounds
// gate holds.
func (s *Session) SubmitSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenDefenceSelect, ScreenDisputeBasis); err != nil {
		return err
	}
	if err := s.passGate(); err != nil {
		return err
	}
	s.engine.NavigateTo(ScreenExplanation)
	return nil
}

// SetExplanation stores the free-text account without advancing; the word
// gate is checked on submit, never on keystrokes.
func (s *Session) SetExplanation(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenExplanation); err != nil {
		return err
	}
	s.rec.Answers.SetText(qExplanation, text)
	return nil
}

// SubmitExplanation advances to evidence review when the text holds between
// one and five hundred words. Over-long text blocks, it is never truncated.
func (s *Session) SubmitExplanation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenExplanation); err != nil {
		return err
	}
	if err := s.passGate(); err != nil {
		return err
	}
	s.engine.NavigateTo(ScreenEvidenceReview)
	return nil
}

// ConfirmEvidence records the forced-stop attestation. "Not reviewed" keeps
// the session on the review screen; "reviewed" moves on, straight to drafting
// for private debt cases and through the strategy pass otherwise.
func (s *Session) ConfirmEvidence(ctx context.Context, reviewed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenEvidenceReview); err != nil {
		return err
	}
	s.rec.Answers.SetBool(qEvidenceReviewed, reviewed)
	if !reviewed {
		return &GateError{Gate: GateEvidenceReviewed}
	}
	if privateDebtCase(s.rec) {
		return s.runDraft(ctx)
	}
	return s.runStrategize(ctx)
}

// AgreeStrategy records agreement with the proposed approach and starts the
// drafting pass.
func (s *Session) AgreeStrategy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenStrategyProposal); err != nil {
		return err
	}
	s.rec.Answers.SetBool(qStrategyAgreed, true)
	return s.runDraft(ctx)
}

// runStrategize executes the strategy pass under the analyzing screen.
// Failure reroutes to upload; the record keeps all committed answers.
func (s *Session) runStrategize(ctx context.Context) error {
	s.lastError = ""
	s.engine.NavigateTo(ScreenAnalyzing)
	strategy, err := s.analyzer.Strategize(ctx, s.rec.Notice, s.rec.Answers)
	if err != nil {
		s.lastError = fmt.Sprintf("could not build a strategy: %v", err)
		s.engine.NavigateTo(ScreenUpload)
		return fmt.Errorf("strategize: %w", err)
	}
	s.rec.Strategy = strategy
	s.engine.NavigateTo(ScreenStrategyProposal)
	return nil
}

// runDraft executes the drafting pass under the drafting screen. Same failure
// contract as runStrategize.
func (s *Session) runDraft(ctx context.Context) error {
	s.lastError = ""
	s.engine.NavigateTo(ScreenDrafting)
	letter, err := s.analyzer.Draft(ctx, s.rec.Notice, s.rec.Answers)
	if err != nil {
		s.lastError = fmt.Sprintf("could not draft the letter: %v", err)
		s.engine.NavigateTo(ScreenUpload)
		return fmt.Errorf("draft: %w", err)
	}
	s.rec.Letter = letter
	s.engine.NavigateTo(ScreenResult)
	return nil
}

// Back rewinds one screen where rewinding is offered. On async and terminal
// screens, and on empty history, it is a rejected no-op.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.CanGoBack() {
		return fmt.Errorf("%w: back not available on %s", ErrWrongScreen, s.engine.Current())
	}
	s.engine.GoBack()
	return nil
}

// RetryScan leaves the incomplete-data stop for a fresh upload.
func (s *Session) RetryScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(ScreenDataIncomplete); err != nil {
		return err
	}
	s.engine.NavigateTo(ScreenUpload)
	return nil
}

// ResetCase starts the whole wizard over: empty record, empty history,
// disclaimer screen.
func (s *Session) ResetCase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Reset()
	s.lastError = ""
	s.engine.Reset()
}

// ApplyPaymentReturn restores a saved record after the checkout round-trip,
// unlocks it, and lands on the result screen with nothing to rewind to. A nil
// saved record still unlocks over the current record; that degraded state is
// expected when the redirect outlived the saved case.
func (s *Session) ApplyPaymentReturn(saved *casefile.CaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if saved != nil {
		s.rec = saved
	}
	s.rec.Unlocked = true
	s.engine.force(ScreenResult)
}
