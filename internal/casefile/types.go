package casefile

const Disclaimer = "This is a drafting tool, not professional advice. " +
	"You remain responsible for verifying all facts, procedural steps, and deadlines " +
	"before sending any letter produced here."

// PCNNotFound is the sentinel stored when extraction cannot read a reference
// number off the scanned notice.
const PCNNotFound = "NOT_FOUND"

type NoticeType string

const (
	NoticeCouncil NoticeType = "council"
	NoticePrivate NoticeType = "private"
	NoticeUnknown NoticeType = "unknown"
)

type NoticeStage string

const (
	StageStandard     NoticeStage = "standard"
	StageDebtRecovery NoticeStage = "debt_recovery"
	StageCourtClaim   NoticeStage = "court_claim"
	StageUnknown      NoticeStage = "unknown"
)

type Jurisdiction string

const (
	JurisdictionEnglandWales Jurisdiction = "England_Wales"
	JurisdictionScotland     Jurisdiction = "Scotland"
	JurisdictionNI           Jurisdiction = "NI"
	JurisdictionUnknown      Jurisdiction = "Unknown"
)

// NoticeImage is the scanned notice as uploaded: raw bytes plus the MIME type
// the analyzer needs to decode them.
type NoticeImage struct {
	Data      []byte `json:"data"`
	MediaType string `json:"media_type"`
}

// NoticeFacts is the structured result of scanning one notice document.
type NoticeFacts struct {
	PCNNumber                  string       `json:"pcn_number"`
	VehicleReg                 string       `json:"vehicle_reg,omitempty"`
	DateOfIssue                string       `json:"date_of_issue,omitempty"`
	Location                   string       `json:"location,omitempty"`
	ContraventionCode          string       `json:"contravention_code,omitempty"`
	ContraventionDescription   string       `json:"contravention_description,omitempty"`
	AuthorityName              string       `json:"authority_name,omitempty"`
	AuthorityAddress           string       `json:"authority_address,omitempty"`
	NoticeType                 NoticeType   `json:"notice_type"`
	ClassifiedStage            NoticeStage  `json:"classified_stage"`
	Jurisdiction               Jurisdiction `json:"jurisdiction"`
	ExtractionConfidence       float64      `json:"extraction_confidence"`
	ContainsFormalSignals      bool         `json:"contains_formal_signals"`
	ContainsHardCourtArtefacts bool         `json:"contains_hard_court_artefacts"`
	FormalSignalReason         string       `json:"formal_signal_reason,omitempty"`
}

// Strategy is the plain-language action plan proposed before drafting.
type Strategy struct {
	Summary   string `json:"summary"`
	Overview  string `json:"overview"`
	Rationale string `json:"rationale"`
}

type DraftType string

const (
	DraftRepresentation DraftType = "PCN_REPRESENTATION"
	DraftPreActionSAR   DraftType = "PRIVATE_PRE_ACTION_SAR_PACK"
)

type VerificationStatus string

const (
	VerificationVerified       VerificationStatus = "VERIFIED"
	VerificationBlockedPreview VerificationStatus = "BLOCKED_PREVIEW_ONLY"
)

// LetterBundle is the drafted output: the representation or pre-action letter,
// plus the SAR letter for private debt cases.
type LetterBundle struct {
	DraftType          DraftType          `json:"draft_type"`
	Letter             string             `json:"letter"`
	SARLetter          string             `json:"sar_letter,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	SourceCitations    []string           `json:"source_citations"`
	EvidenceChecklist  []string           `json:"evidence_checklist"`
	Rationale          string             `json:"rationale"`
}

// CaseRecord is the whole mutable state of one contested notice: what the scan
// found, what the user told us, and what the analyzer produced. Only the
// wizard session writes to it.
type CaseRecord struct {
	Notice   *NoticeFacts  `json:"notice"`
	Answers  Answers       `json:"answers"`
	Strategy *Strategy     `json:"strategy"`
	Letter   *LetterBundle `json:"letter"`
	Unlocked bool          `json:"unlocked"`
}

func NewCaseRecord() *CaseRecord {
	return &CaseRecord{Answers: Answers{}}
}

// Reset zeroes every field. Used on full wizard restart.
func (r *CaseRecord) Reset() {
	r.Notice = nil
	r.Answers = Answers{}
	r.Strategy = nil
	r.Letter = nil
	r.Unlocked = false
}
