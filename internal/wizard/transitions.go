package wizard

import "github.com/defensuk/defens/internal/casefile"

// Extraction results below this confidence are treated as unreadable scans.
const confidenceFloor = 0.4

// The routing below is the transition table: pure functions from the record
// to the next screen. Intake answers override fields the extraction left
// unknown; they never override a definite extraction result.

// jurisdictionKnown reports whether the scan or the intake answered the
// jurisdiction question; jurisdictionInScope whether the answer was
// England/Wales.
func jurisdictionKnown(rec *casefile.CaseRecord) bool {
	if rec.Notice != nil && rec.Notice.Jurisdiction != casefile.JurisdictionUnknown {
		return true
	}
	return rec.Answers.Has(qInEnglandWales)
}

func jurisdictionInScope(rec *casefile.CaseRecord) bool {
	if rec.Notice != nil && rec.Notice.Jurisdiction != casefile.JurisdictionUnknown {
		return rec.Notice.Jurisdiction == casefile.JurisdictionEnglandWales
	}
	return rec.Answers.BoolValue(qInEnglandWales)
}

func effectiveType(rec *casefile.CaseRecord) casefile.NoticeType {
	if rec.Notice != nil && rec.Notice.NoticeType != casefile.NoticeUnknown {
		return rec.Notice.NoticeType
	}
	if v := rec.Answers.TextValue(qNoticeType); v != "" {
		return casefile.NoticeType(v)
	}
	return casefile.NoticeUnknown
}

func effectiveStage(rec *casefile.CaseRecord) casefile.NoticeStage {
	if rec.Notice != nil && rec.Notice.ClassifiedStage != casefile.StageUnknown {
		return rec.Notice.ClassifiedStage
	}
	if v := rec.Answers.TextValue(qNoticeStage); v != "" {
		return casefile.NoticeStage(v)
	}
	if rec.Answers.BoolValue(qPrivateDebtLetter) {
		return casefile.StageDebtRecovery
	}
	return casefile.StageUnknown
}

// courtFlag is the hard-stop predicate: court-claim stage, court artefacts on
// the scan, or the user reporting court papers in intake.
func courtFlag(rec *casefile.CaseRecord) bool {
	if rec.Notice != nil && rec.Notice.ContainsHardCourtArtefacts {
		return true
	}
	if effectiveStage(rec) == casefile.StageCourtClaim {
		return true
	}
	return rec.Answers.BoolValue(qCourtPapers)
}

// debtPath selects the debt-recovery question sequence: a classified debt
// stage, or formal collection signals on a private notice.
func debtPath(rec *casefile.CaseRecord) bool {
	if effectiveStage(rec) == casefile.StageDebtRecovery {
		return true
	}
	return rec.Notice != nil && rec.Notice.ContainsFormalSignals &&
		effectiveType(rec) == casefile.NoticePrivate
}

// privateDebtCase selects the SAR pre-action pack instead of a formal
// representation at drafting time.
func privateDebtCase(rec *casefile.CaseRecord) bool {
	return effectiveType(rec) == casefile.NoticePrivate && debtPath(rec)
}

// routeAfterExtraction decides the screen entered once extraction has
// committed to the record. Unreadable scans go to the incomplete-data stop
// before any other branching.
func routeAfterExtraction(rec *casefile.CaseRecord) Screen {
	f := rec.Notice
	if f.ExtractionConfidence < confidenceFloor || f.PCNNumber == "" || f.PCNNumber == casefile.PCNNotFound {
		return ScreenDataIncomplete
	}
	return nextIntake(rec)
}

// nextIntake walks the intake sequence and returns the first screen still
// needing input, or the red-flag stop when a hard-stop condition already
// holds. Called after extraction and after every binary-choice answer.
func nextIntake(rec *casefile.CaseRecord) Screen {
	if courtFlag(rec) {
		return ScreenRedFlagPause
	}
	if !jurisdictionKnown(rec) {
		return ScreenIntakeJurisdiction
	}
	if !jurisdictionInScope(rec) {
		return ScreenRedFlagPause
	}
	if effectiveType(rec) == casefile.NoticeUnknown {
		return ScreenIntakeType
	}
	if effectiveStage(rec) == casefile.StageUnknown {
		return ScreenIntakeStage
	}
	if rec.Notice != nil && rec.Notice.ContainsFormalSignals && !rec.Answers.Has(qCourtPapers) {
		return ScreenCourtConfirmation
	}
	if !rec.Answers.Has(qWindowExpired) {
		return ScreenIntakeAppealWindow
	}
	if rec.Answers.BoolValue(qWindowExpired) {
		return ScreenRedFlagPause
	}
	if debtPath(rec) {
		if effectiveType(rec) == casefile.NoticePrivate && !rec.Answers.Has(qPrivateDebtLetter) {
			return ScreenPrivateStageCheck
		}
		if !rec.Answers.Has(qDisputesDebt) {
			return ScreenDebtDisputeCheck
		}
		if !rec.Answers.BoolValue(qDisputesDebt) {
			return ScreenRedFlagPause
		}
		return ScreenDisputeBasis
	}
	if effectiveType(rec) == casefile.NoticePrivate {
		return ScreenDisputeBasis
	}
	return ScreenContraventionSel
}
