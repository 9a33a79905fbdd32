package wizard

import (
	"fmt"

	"github.com/defensuk/defens/internal/casefile"
)

// Question ids under which the wizard files collected answers. These are also
// the keys of the legacy wire encoding sent to the analyzer.
const (
	qUnderstandsTerms      = "understandsTerms"
	qAcceptsResponsibility = "acceptsResponsibility"
	qInEnglandWales        = "inEnglandWales"
	qNoticeType            = "noticeTypeConfirmed"
	qNoticeStage           = "noticeStageConfirmed"
	qCourtPapers           = "receivedCourtPapers"
	qWindowExpired         = "challengeWindowExpired"
	qPrivateDebtLetter     = "privateDebtLetter"
	qDisputesDebt          = "disputesDebt"
	qDisputeBasis          = "disputeBasis"
	qCategory              = "contraventionCategory"
	qGrounds               = "grounds"
	qMitigation            = "mitigatingCircumstances"
	qExplanation           = "explanation"
	qEvidenceReviewed      = "evidenceReviewed"
	qStrategyAgreed        = "strategyAgreed"
)

const (
	explanationWordLimit = 500
	maxSelections        = 3
)

// Gate names, surfaced verbatim on rejected transitions.
const (
	GateDualAttestation  = "dual_attestation"
	GateWordCount        = "word_count"
	GateSelectionBounds  = "selection_bounds"
	GateEvidenceReviewed = "evidence_reviewed"
	GateStrategyAgreed   = "strategy_agreed"
)

// GateError reports a forward transition blocked by an unsatisfied gate.
type GateError struct {
	Gate string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("gate %q not satisfied", e.Gate)
}

// Gates are pure predicates over the record; they are re-evaluated on every
// call and never cached, so a transition that was blocked stays blocked until
// the underlying answers actually change.

func dualAttestation(rec *casefile.CaseRecord) bool {
	return rec.Answers.BoolValue(qUnderstandsTerms) && rec.Answers.BoolValue(qAcceptsResponsibility)
}

func explanationWordGate(rec *casefile.CaseRecord) bool {
	n := casefile.WordCount(rec.Answers.TextValue(qExplanation))
	return n >= 1 && n <= explanationWordLimit
}

// groundsGate holds when at least one ground is ticked within bounds, or the
// user opted into mitigating circumstances instead.
func groundsGate(rec *casefile.CaseRecord) bool {
	n := len(rec.Answers.SetValue(qGrounds))
	if n >= 1 && n <= maxSelections {
		return true
	}
	return n == 0 && rec.Answers.BoolValue(qMitigation)
}

func disputeBasisGate(rec *casefile.CaseRecord) bool {
	n := len(rec.Answers.SetValue(qDisputeBasis))
	return n >= 1 && n <= maxSelections
}

func evidenceReviewedGate(rec *casefile.CaseRecord) bool {
	return rec.Answers.BoolValue(qEvidenceReviewed)
}

func strategyAgreedGate(rec *casefile.CaseRecord) bool {
	return rec.Answers.BoolValue(qStrategyAgreed)
}

// gateFor returns the named gate guarding forward progress off a screen.
// Screens with no entry are binary-choice or async screens: their options ARE
// the transition, there is nothing to block.
func gateFor(s Screen) (string, func(*casefile.CaseRecord) bool, bool) {
	switch s {
	case ScreenDisclaimer:
		return GateDualAttestation, dualAttestation, true
	case ScreenExplanation:
		return GateWordCount, explanationWordGate, true
	case ScreenDefenceSelect:
		return GateSelectionBounds, groundsGate, true
	case ScreenDisputeBasis:
		return GateSelectionBounds, disputeBasisGate, true
	case ScreenEvidenceReview:
		return GateEvidenceReviewed, evidenceReviewedGate, true
	case ScreenStrategyProposal:
		return GateStrategyAgreed, strategyAgreedGate, true
	}
	return "", nil, false
}
