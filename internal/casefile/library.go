package casefile

// ContraventionCategory identifies which kind of alleged contravention the
// user is contesting; it selects the defence option set offered.
type ContraventionCategory string

const (
	CategorySharedBay        ContraventionCategory = "PARKING_SHARED_BAY"
	CategoryYellowLineSingle ContraventionCategory = "YELLOW_LINE_SINGLE"
	CategoryYellowLineDouble ContraventionCategory = "YELLOW_LINE_DOUBLE"
	CategoryRedRoute         ContraventionCategory = "RED_ROUTE"
	CategoryBusLane          ContraventionCategory = "BUS_LANE"
	CategoryYellowBox        ContraventionCategory = "YELLOW_BOX"
	CategoryWrongTurn        ContraventionCategory = "WRONG_TURN_NO_ENTRY"
	CategoryOther            ContraventionCategory = "OTHER"
)

// DefenceOption is one ground the user can select, with a plain-language
// gloss shown alongside the formal label.
type DefenceOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Plain string `json:"plain"`
}

// DefenceLibrary maps each contravention category to its ground options.
// CategoryOther is intentionally empty: it routes to the cannot-help screen.
var DefenceLibrary = map[ContraventionCategory][]DefenceOption{
	CategorySharedBay: {
		{ID: "DNO", Label: "Contravention did not occur", Plain: "You were parked correctly or not parked as alleged."},
		{ID: "PERMIT_VALID", Label: "Valid permit or ticket", Plain: "You had a valid permit or ticket covering that bay."},
		{ID: "SIGNAGE", Label: "Unclear or missing signage", Plain: "The bay rules were not clearly signed."},
		{ID: "MARKINGS", Label: "Bay markings non-compliant", Plain: "The bay markings were faded, incorrect, or unlawful."},
		{ID: "TRO", Label: "Traffic Order defect", Plain: "The legal order does not correctly create this restriction."},
		{ID: "PROC", Label: "Procedural impropriety", Plain: "The council did not follow the legal process correctly."},
	},
	CategoryYellowLineSingle: {
		{ID: "DNO", Label: "Contravention did not occur", Plain: "You were not parked during restricted hours."},
		{ID: "LOADING", Label: "Loading/unloading exemption", Plain: "You were actively loading or unloading."},
		{ID: "SIGNAGE", Label: "Time plate missing or unclear", Plain: "The restriction times were not clearly shown."},
		{ID: "LINES", Label: "Line markings defective", Plain: "The yellow line was faded, broken, or unclear."},
		{ID: "PROC", Label: "Procedural impropriety", Plain: "The council made a legal or administrative error."},
	},
	CategoryYellowLineDouble: {
		{ID: "DNO", Label: "Contravention did not occur", Plain: "You were not parked as alleged."},
		{ID: "LOADING", Label: "Loading/unloading exemption", Plain: "You were loading or unloading where permitted."},
		{ID: "LINES", Label: "Double yellow lines defective", Plain: "The lines were not clearly visible or compliant."},
		{ID: "PROC", Label: "Procedural impropriety", Plain: "The enforcement process was not followed correctly."},
	},
	CategoryRedRoute: {
		{ID: "DNO", Label: "Contravention did not occur", Plain: "You were stopped or parked lawfully."},
		{ID: "SIGNAGE", Label: "Red route signage unclear", Plain: "The red route restrictions were not clearly signed."},
		{ID: "EXEMPT", Label: "Permitted activity", Plain: "You were loading, picking up, or setting down passengers where allowed."},
		{ID: "MARKINGS", Label: "Road markings defective", Plain: "The red lines or bay markings were unclear or incorrect."},
		{ID: "PROC", Label: "Procedural impropriety", Plain: "TfL or the authority failed to follow the correct process."},
	},
	CategoryBusLane: {
		{ID: "TIME", Label: "Bus lane not in operation", Plain: "You entered outside the restricted hours."},
		{ID: "BRIEF", Label: "Brief entry to turn or avoid hazard", Plain: "You entered only briefly for a legitimate reason."},
		{ID: "SIGNAGE", Label: "Inadequate signage", Plain: "The bus lane signs or markings were unclear."},
		{ID: "EVID", Label: "Insufficient camera evidence", Plain: "The footage does not clearly show a contravention."},
		{ID: "PROC", Label: "Procedural impropriety", Plain: "The authority did not comply with enforcement rules."},
	},
	CategoryYellowBox: {
		{ID: "EXIT_CLEAR", Label: "Exit was clear when entering", Plain: "Your exit was clear when you entered the box junction."},
		{ID: "FORCED", Label: "Stop caused by another vehicle", Plain: "Another vehicle or obstruction caused you to stop in the box."},
		{ID: "MINIMIS", Label: "Momentary stop (De Minimis)", Plain: "The stop was momentary and insignificant in the context of the traffic flow."},
		{ID: "MARKINGS", Label: "Markings or signage non-compliant", Plain: "The box markings or regulatory signs were incorrect or unclear."},
		{ID: "EVID", Label: "Evidence does not show exit blocked at entry", Plain: "The evidence fails to prove the exit was blocked at the point of entry."},
	},
	CategoryWrongTurn: {
		{ID: "SIGNAGE", Label: "Inadequate or obscured signage", Plain: "The restriction signs were unclear or hidden."},
		{ID: "LAYOUT", Label: "Road layout misleading", Plain: "The road design made compliance unclear or unsafe."},
		{ID: "DNO", Label: "Contravention did not occur", Plain: "You did not complete the prohibited turn."},
		{ID: "EVID", Label: "Evidence insufficient", Plain: "The evidence does not clearly show the offence."},
	},
	CategoryOther: {},
}

// PrivateDisputeOptions are the selectable bases for disputing a private
// parking charge at the debt stage.
var PrivateDisputeOptions = []DefenceOption{
	{ID: "private_signage", Label: "No signage / unclear signage"},
	{ID: "private_no_contract", Label: "No contract formed"},
	{ID: "private_not_driver", Label: "Not the driver"},
	{ID: "private_no_keeper_liability", Label: "Keeper liability not established (POFA Schedule 4)"},
	{ID: "private_permission", Label: "Paid / authorised parking"},
	{ID: "private_blue_badge", Label: "Blue Badge / Equality Act 2010"},
	{ID: "private_other", Label: "Other"},
}

// Source is an entry of the citation whitelist fed to the drafting prompts.
type Source struct {
	ID    string
	Title string
}

var CouncilSources = []Source{
	{ID: "TMA_2004", Title: "Traffic Management Act 2004 (Part 6)"},
	{ID: "CEPC_ENG_GENERAL_2007", Title: "The Civil Enforcement of Parking Contraventions (England) General Regulations 2007"},
	{ID: "CEPC_ENG_REPS_APPEALS_2007", Title: "The Civil Enforcement of Parking Contraventions (England) Representations and Appeals Regulations 2007"},
}

var PrivateSources = []Source{
	{ID: "POFA_2012_SCH4", Title: "Protection of Freedoms Act 2012 – Schedule 4 (keeper liability)"},
	{ID: "DFT_POFA_GUIDE", Title: "DfT guidance on Section 56 and Schedule 4 of the Protection of Freedoms Act 2012"},
}

// Keyword lists the extraction prompt uses to anchor the formal-signal and
// court-artefact classifications.
var FormalThreatKeywords = []string{
	"professional adviser", "compliance department", "we are instructed",
	"debt recovery", "debt collector", "final demand", "formal demand",
	"formal action may be taken", "proceedings may be issued",
	"letter before claim", "letter of claim", "pre-action protocol",
	"notice of intended legal action", "collection agent",
}

var CourtArtefactKeywords = []string{
	"County Court Business Centre", "CCBC", "Money Claim Online", "MCOL",
	"N1", "Claim Form", "Claim number", "Particulars of claim", "Response pack",
	"County Court claim papers",
}
