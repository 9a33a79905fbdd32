package wizard

// Screen identifies one wizard view. The set is closed: every transition in
// this package moves between members of this enumeration and nothing else.
type Screen string

const (
	ScreenDisclaimer         Screen = "DISCLAIMER"
	ScreenUpload             Screen = "UPLOAD"
	ScreenAnalyzing          Screen = "ANALYZING"
	ScreenDataIncomplete     Screen = "DATA_INCOMPLETE"
	ScreenIntakeJurisdiction Screen = "INTAKE_JURISDICTION"
	ScreenIntakeType         Screen = "INTAKE_TYPE"
	ScreenIntakeStage        Screen = "INTAKE_STAGE"
	ScreenIntakeAppealWindow Screen = "INTAKE_APPEAL_WINDOW"
	ScreenCourtConfirmation  Screen = "COURT_CONFIRMATION"
	ScreenPrivateStageCheck  Screen = "PRIVATE_STAGE_CHECK"
	ScreenDebtDisputeCheck   Screen = "DEBT_DISPUTE_CHECK"
	ScreenDisputeBasis       Screen = "DISPUTE_BASIS"
	ScreenContraventionSel   Screen = "CONTRAVENTION_SELECT"
	ScreenDefenceSelect      Screen = "DEFENCE_SELECT"
	ScreenExplanation        Screen = "EXPLANATION_INPUT"
	ScreenEvidenceReview     Screen = "EVIDENCE_REVIEW"
	ScreenStrategyProposal   Screen = "STRATEGY_PROPOSAL"
	ScreenDrafting           Screen = "DRAFTING"
	ScreenResult             Screen = "RESULT"
	ScreenRedFlagPause       Screen = "RED_FLAG_PAUSE"
	ScreenCannotHelp         Screen = "CANNOT_HELP"
	ScreenConfigError        Screen = "CONFIG_ERROR"
)

// IsAsync reports whether the screen exists only while an analyzer call is in
// flight. Async screens are never user-interactive and never enter history.
func (s Screen) IsAsync() bool {
	return s == ScreenAnalyzing || s == ScreenDrafting
}

// IsTerminal reports whether the screen is a dead end offering only reset
// (and, for the result screen, the export actions).
func (s Screen) IsTerminal() bool {
	switch s {
	case ScreenResult, ScreenRedFlagPause, ScreenDataIncomplete, ScreenCannotHelp, ScreenConfigError:
		return true
	}
	return false
}

// BackAllowed reports whether the user may rewind off this screen. Async and
// terminal screens cannot be rewound through; the whole case must be reset.
func (s Screen) BackAllowed() bool {
	return !s.IsAsync() && !s.IsTerminal()
}

func validScreen(s Screen) bool {
	switch s {
	case ScreenDisclaimer, ScreenUpload, ScreenAnalyzing, ScreenDataIncomplete,
		ScreenIntakeJurisdiction, ScreenIntakeType, ScreenIntakeStage,
		ScreenIntakeAppealWindow, ScreenCourtConfirmation, ScreenPrivateStageCheck,
		ScreenDebtDisputeCheck, ScreenDisputeBasis, ScreenContraventionSel,
		ScreenDefenceSelect, ScreenExplanation, ScreenEvidenceReview,
		ScreenStrategyProposal, ScreenDrafting, ScreenResult, ScreenRedFlagPause,
		ScreenCannotHelp, ScreenConfigError:
		return true
	}
	return false
}
