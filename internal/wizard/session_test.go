package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/defensuk/defens/internal/casefile"
)

type fakeAnalyzer struct {
	facts         *casefile.NoticeFacts
	extractErr    error
	strategy      *casefile.Strategy
	strategizeErr error
	letter        *casefile.LetterBundle
	draftErr      error

	extractCalls    int
	strategizeCalls int
	draftCalls      int
}

func (f *fakeAnalyzer) Extract(ctx context.Context, img casefile.NoticeImage) (*casefile.NoticeFacts, error) {
	f.extractCalls++
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.facts, nil
}

func (f *fakeAnalyzer) Strategize(ctx context.Context, facts *casefile.NoticeFacts, answers casefile.Answers) (*casefile.Strategy, error) {
	f.strategizeCalls++
	if f.strategizeErr != nil {
		return nil, f.strategizeErr
	}
	if f.strategy == nil {
		return &casefile.Strategy{Summary: "challenge it"}, nil
	}
	return f.strategy, nil
}

func (f *fakeAnalyzer) Draft(ctx context.Context, facts *casefile.NoticeFacts, answers casefile.Answers) (*casefile.LetterBundle, error) {
	f.draftCalls++
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	if f.letter == nil {
		return &casefile.LetterBundle{DraftType: casefile.DraftRepresentation, Letter: "Dear Sir"}, nil
	}
	return f.letter, nil
}

func councilFacts() *casefile.NoticeFacts {
	return &casefile.NoticeFacts{
		PCNNumber:            "AB12345678",
		NoticeType:           casefile.NoticeCouncil,
		ClassifiedStage:      casefile.StageStandard,
		Jurisdiction:         casefile.JurisdictionEnglandWales,
		ExtractionConfidence: 0.9,
	}
}

func testImage() casefile.NoticeImage {
	return casefile.NoticeImage{Data: []byte{0xff, 0xd8}, MediaType: "image/jpeg"}
}

// startSession walks a session through disclaimer and upload with the given
// extraction result.
func startSession(t *testing.T, fa *fakeAnalyzer) *Session {
	t.Helper()
	s := NewSession(fa)
	if err := s.SetAttestations(true, true); err != nil {
		t.Fatal(err)
	}
	if err := s.AcceptDisclaimer(); err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(context.Background(), testImage()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDualAttestationGate(t *testing.T) {
	s := NewSession(&fakeAnalyzer{})
	var gateErr *GateError
	if err := s.AcceptDisclaimer(); !errors.As(err, &gateErr) || gateErr.Gate != GateDualAttestation {
		t.Fatalf("expected dual attestation gate error, got %v", err)
	}
	s.SetAttestations(true, false)
	if err := s.AcceptDisclaimer(); err == nil {
		t.Fatal("one checkbox must not pass")
	}
	s.SetAttestations(true, true)
	if err := s.AcceptDisclaimer(); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenUpload {
		t.Fatalf("expected upload, got %s", got)
	}
}

func TestScenarioACouncilStandardLandsOnGrounds(t *testing.T) {
	fa := &fakeAnalyzer{facts: councilFacts()}
	s := startSession(t, fa)
	// No formal signals, so the only open intake question is the window.
	if got := s.State().Screen; got != ScreenIntakeAppealWindow {
		t.Fatalf("expected appeal window intake, got %s", got)
	}
	if err := s.Choose(ChoiceNo); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenContraventionSel {
		t.Fatalf("expected council grounds selection, got %s", got)
	}
	if err := s.SelectCategory(casefile.CategoryYellowBox); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenDefenceSelect {
		t.Fatalf("expected defence selection, got %s", got)
	}
}

func TestScenarioBCourtArtefactsRedFlag(t *testing.T) {
	facts := councilFacts()
	facts.ContainsHardCourtArtefacts = true
	fa := &fakeAnalyzer{facts: facts}
	s := startSession(t, fa)
	st := s.State()
	if st.Screen != ScreenRedFlagPause {
		t.Fatalf("expected red flag terminal, got %s", st.Screen)
	}
	if st.CanGoBack {
		t.Fatal("back must be disabled on the red flag terminal")
	}
	if err := s.Back(); err == nil {
		t.Fatal("back event must be rejected on the red flag terminal")
	}
}

func TestBranchDeterminismCourtStage(t *testing.T) {
	for i := 0; i < 3; i++ {
		facts := councilFacts()
		facts.ClassifiedStage = casefile.StageCourtClaim
		s := startSession(t, &fakeAnalyzer{facts: facts})
		if got := s.State().Screen; got != ScreenRedFlagPause {
			t.Fatalf("run %d: expected red flag, got %s", i, got)
		}
	}
}

func TestJurisdictionOutsideScopeRedFlag(t *testing.T) {
	facts := councilFacts()
	facts.Jurisdiction = casefile.JurisdictionScotland
	s := startSession(t, &fakeAnalyzer{facts: facts})
	if got := s.State().Screen; got != ScreenRedFlagPause {
		t.Fatalf("expected red flag for Scotland, got %s", got)
	}
}

func TestExpiredWindowRedFlag(t *testing.T) {
	s := startSession(t, &fakeAnalyzer{facts: councilFacts()})
	if err := s.Choose(ChoiceYes); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenRedFlagPause {
		t.Fatalf("expected red flag for expired window, got %s", got)
	}
}

func TestLowConfidenceDataIncomplete(t *testing.T) {
	facts := councilFacts()
	facts.ExtractionConfidence = 0.3
	s := startSession(t, &fakeAnalyzer{facts: facts})
	if got := s.State().Screen; got != ScreenDataIncomplete {
		t.Fatalf("expected data incomplete, got %s", got)
	}
	if err := s.RetryScan(); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenUpload {
		t.Fatalf("retry should land on upload, got %s", got)
	}
}

func TestMissingReferenceDataIncomplete(t *testing.T) {
	facts := councilFacts()
	facts.PCNNumber = casefile.PCNNotFound
	s := startSession(t, &fakeAnalyzer{facts: facts})
	if got := s.State().Screen; got != ScreenDataIncomplete {
		t.Fatalf("expected data incomplete, got %s", got)
	}
}

func TestExtractionFailureReturnsToUpload(t *testing.T) {
	fa := &fakeAnalyzer{extractErr: errors.New("timeout")}
	s := NewSession(fa)
	s.SetAttestations(true, true)
	s.AcceptDisclaimer()
	if err := s.Upload(context.Background(), testImage()); err == nil {
		t.Fatal("expected upload error")
	}
	st := s.State()
	if st.Screen != ScreenUpload {
		t.Fatalf("expected upload, got %s", st.Screen)
	}
	if st.LastError == "" {
		t.Fatal("extraction failure must be surfaced")
	}
	// One retry triggers exactly one new call.
	fa.extractErr = nil
	fa.facts = councilFacts()
	if err := s.Upload(context.Background(), testImage()); err != nil {
		t.Fatal(err)
	}
	if fa.extractCalls != 2 {
		t.Fatalf("expected 2 extract calls, got %d", fa.extractCalls)
	}
}

func TestDebtDisputeShortCircuit(t *testing.T) {
	facts := councilFacts()
	facts.NoticeType = casefile.NoticePrivate
	facts.ClassifiedStage = casefile.StageDebtRecovery
	fa := &fakeAnalyzer{facts: facts}
	s := startSession(t, fa)
	if err := s.Choose(ChoiceNo); err != nil { // window not expired
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenPrivateStageCheck {
		t.Fatalf("expected private stage check, got %s", got)
	}
	if err := s.Choose(ChoiceYes); err != nil { // debt letter confirmed
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenDebtDisputeCheck {
		t.Fatalf("expected debt dispute check, got %s", got)
	}
	if err := s.Choose(ChoiceNo); err != nil { // does not dispute
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenRedFlagPause {
		t.Fatalf("undisputed debt must red-flag, got %s", got)
	}
	if fa.draftCalls != 0 {
		t.Fatal("drafting must never run for an undisputed debt")
	}
}

func TestPrivateDebtPathDraftsSARPack(t *testing.T) {
	facts := councilFacts()
	facts.NoticeType = casefile.NoticePrivate
	facts.ClassifiedStage = casefile.StageDebtRecovery
	fa := &fakeAnalyzer{
		facts:  facts,
		letter: &casefile.LetterBundle{DraftType: casefile.DraftPreActionSAR, Letter: "LBC", SARLetter: "SAR"},
	}
	s := startSession(t, fa)
	mustChoose(t, s, ChoiceNo)  // window
	mustChoose(t, s, ChoiceYes) // debt letter
	mustChoose(t, s, ChoiceYes) // disputes
	if got := s.State().Screen; got != ScreenDisputeBasis {
		t.Fatalf("expected dispute basis, got %s", got)
	}
	if err := s.ToggleOption("private_signage"); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitSelection(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExplanation("The signs were hidden behind a tree."); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitExplanation(); err != nil {
		t.Fatal(err)
	}
	// Private debt skips the strategy pass entirely.
	if err := s.ConfirmEvidence(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if fa.strategizeCalls != 0 {
		t.Fatal("SAR path must not run the strategy pass")
	}
	if got := s.State().Screen; got != ScreenResult {
		t.Fatalf("expected result, got %s", got)
	}
	rec := s.Record()
	if rec.Letter == nil || rec.Letter.DraftType != casefile.DraftPreActionSAR {
		t.Fatalf("expected SAR pack, got %+v", rec.Letter)
	}
}

func mustChoose(t *testing.T, s *Session, option string) {
	t.Helper()
	if err := s.Choose(option); err != nil {
		t.Fatal(err)
	}
}

// walkToExplanation drives a council standard case to the explanation screen.
func walkToExplanation(t *testing.T, fa *fakeAnalyzer) *Session {
	t.Helper()
	s := startSession(t, fa)
	mustChoose(t, s, ChoiceNo) // window not expired
	if err := s.SelectCategory(casefile.CategoryBusLane); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleOption("SIGNAGE"); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitSelection(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWordCountBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		words int
		pass  bool
	}{
		{"empty", 0, false},
		{"one", 1, true},
		{"exactly500", 500, true},
		{"501blocks", 501, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := walkToExplanation(t, &fakeAnalyzer{facts: councilFacts()})
			text := strings.TrimSpace(strings.Repeat("word ", c.words))
			if err := s.SetExplanation(text); err != nil {
				t.Fatal(err)
			}
			err := s.SubmitExplanation()
			if c.pass && err != nil {
				t.Fatalf("expected pass, got %v", err)
			}
			if !c.pass {
				var gateErr *GateError
				if !errors.As(err, &gateErr) || gateErr.Gate != GateWordCount {
					t.Fatalf("expected word count gate error, got %v", err)
				}
				if got := s.State().Screen; got != ScreenExplanation {
					t.Fatalf("blocked submit must not advance, got %s", got)
				}
			}
		})
	}
}

func TestFourthToggleIgnored(t *testing.T) {
	s := walkToExplanation(t, &fakeAnalyzer{facts: councilFacts()})
	// Rewind to the defence screen and fill it to the cap.
	if err := s.Back(); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"TIME", "BRIEF", "EVID"} { // SIGNAGE already on
		if err := s.ToggleOption(id); err != nil {
			t.Fatal(err)
		}
	}
	// SIGNAGE + two more fills the cap; the next distinct add is ignored.
	if err := s.ToggleOption("PROC"); err != nil {
		t.Fatal(err)
	}
	got := s.Record().Answers.SetValue("grounds")
	if len(got) != 3 {
		t.Fatalf("expected 3 grounds, got %v", got)
	}
}

func TestScenarioCEvidenceForcedStop(t *testing.T) {
	fa := &fakeAnalyzer{facts: councilFacts()}
	s := walkToExplanation(t, fa)
	if err := s.SetExplanation("I was not parked there"); err != nil {
		t.Fatal(err)
	}
	if err := s.SubmitExplanation(); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenEvidenceReview {
		t.Fatalf("expected evidence review, got %s", got)
	}
	// "No" re-displays the forced stop and must not advance.
	var gateErr *GateError
	if err := s.ConfirmEvidence(context.Background(), false); !errors.As(err, &gateErr) {
		t.Fatalf("expected gate error, got %v", err)
	}
	if got := s.State().Screen; got != ScreenEvidenceReview {
		t.Fatalf("forced stop must hold the screen, got %s", got)
	}
	if fa.strategizeCalls != 0 {
		t.Fatal("no analyzer call before the attestation holds")
	}
	// "Reviewed" proceeds through strategy to the proposal.
	if err := s.ConfirmEvidence(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Screen; got != ScreenStrategyProposal {
		t.Fatalf("expected strategy proposal, got %s", got)
	}
	if fa.strategizeCalls != 1 {
		t.Fatalf("expected exactly one strategy call, got %d", fa.strategizeCalls)
	}
}

func TestAgreeStrategyDraftsAndLandsOnResult(t *testing.T) {
	fa := &fakeAnalyzer{facts: councilFacts()}
	s := walkToExplanation(t, fa)
	s.SetExplanation("The sign was obscured.")
	if err := s.SubmitExplanation(); err != nil {
		t.Fatal(err)
	}
	if err := s.ConfirmEvidence(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if err := s.AgreeStrategy(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := s.State()
	if st.Screen != ScreenResult {
		t.Fatalf("expected result, got %s", st.Screen)
	}
	if st.CanGoBack {
		t.Fatal("result is terminal")
	}
	if fa.draftCalls != 1 {
		t.Fatalf("expected exactly one draft call, got %d", fa.draftCalls)
	}
	if s.Record().Letter == nil {
		t.Fatal("letter must be committed before the result screen")
	}
}

func TestDraftFailureReroutesToUpload(t *testing.T) {
	fa := &fakeAnalyzer{facts: councilFacts(), draftErr: errors.New("503")}
	s := walkToExplanation(t, fa)
	s.SetExplanation("The sign was obscured.")
	if err := s.SubmitExplanation(); err != nil {
		t.Fatal(err)
	}
	if err := s.ConfirmEvidence(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if err := s.AgreeStrategy(context.Background()); err == nil {
		t.Fatal("expected draft failure")
	}
	st := s.State()
	if st.Screen != ScreenUpload {
		t.Fatalf("draft failure must reroute to upload, got %s", st.Screen)
	}
	// Committed answers survive the failure.
	if s.Record().Answers.TextValue("explanation") == "" {
		t.Fatal("failure must not roll back committed answers")
	}
	if s.Record().Strategy == nil {
		t.Fatal("failure must not roll back the committed strategy")
	}
}

func TestOtherCategoryCannotHelp(t *testing.T) {
	s := startSession(t, &fakeAnalyzer{facts: councilFacts()})
	mustChoose(t, s, ChoiceNo)
	if err := s.SelectCategory(casefile.CategoryOther); err != nil {
		t.Fatal(err)
	}
	st := s.State()
	if st.Screen != ScreenCannotHelp {
		t.Fatalf("expected cannot-help terminal, got %s", st.Screen)
	}
	if st.CanGoBack {
		t.Fatal("cannot-help is terminal")
	}
}

func TestPaymentReturnRestoresAndUnlocks(t *testing.T) {
	s := NewSession(&fakeAnalyzer{})
	saved := casefile.NewCaseRecord()
	saved.Letter = &casefile.LetterBundle{DraftType: casefile.DraftRepresentation, Letter: "Dear Sir"}
	s.ApplyPaymentReturn(saved)
	st := s.State()
	if st.Screen != ScreenResult || !st.Unlocked {
		t.Fatalf("expected unlocked result, got %+v", st)
	}
	if st.CanGoBack {
		t.Fatal("restored result must have empty history")
	}
	if s.Record().Letter == nil {
		t.Fatal("saved record must be restored")
	}
}

func TestPaymentReturnWithoutSavedRecordStillUnlocks(t *testing.T) {
	s := NewSession(&fakeAnalyzer{})
	s.ApplyPaymentReturn(nil)
	st := s.State()
	if st.Screen != ScreenResult || !st.Unlocked {
		t.Fatalf("expected degraded unlocked result, got %+v", st)
	}
	if s.Record().Letter != nil {
		t.Fatal("degraded restore keeps the record empty")
	}
}

func TestResetClearsRecordAndHistory(t *testing.T) {
	s := startSession(t, &fakeAnalyzer{facts: councilFacts()})
	s.ResetCase()
	st := s.State()
	if st.Screen != ScreenDisclaimer || st.CanGoBack {
		t.Fatalf("reset must land on a fresh disclaimer, got %+v", st)
	}
	if s.Record().Notice != nil {
		t.Fatal("reset must clear the record")
	}
}

func TestMissingAnalyzerIsConfigError(t *testing.T) {
	s := NewSession(nil)
	st := s.State()
	if st.Screen != ScreenConfigError {
		t.Fatalf("expected config error screen, got %s", st.Screen)
	}
	if err := s.AcceptDisclaimer(); err == nil {
		t.Fatal("events must be rejected on the config error screen")
	}
}

func TestScrollFlagConsumedOncePerNavigation(t *testing.T) {
	s := NewSession(&fakeAnalyzer{})
	s.State() // drain the construction signal
	s.SetAttestations(true, true)
	if err := s.AcceptDisclaimer(); err != nil {
		t.Fatal(err)
	}
	if !s.State().ScrollToTop {
		t.Fatal("navigation must raise the scroll signal")
	}
	if s.State().ScrollToTop {
		t.Fatal("scroll signal must read true exactly once")
	}
}
