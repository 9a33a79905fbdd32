package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/defensuk/defens/internal/casefile"
)

// Wire types carry the camelCase JSON contract spoken with the model; the
// converters below produce the snake_case storage types.

type extractionResult struct {
	PCNNumber                  *string `json:"pcnNumber"`
	VehicleReg                 *string `json:"vehicleReg"`
	DateOfIssue                *string `json:"dateOfIssue"`
	Location                   *string `json:"location"`
	ContraventionCode          *string `json:"contraventionCode"`
	ContraventionDescription   *string `json:"contraventionDescription"`
	AuthorityName              *string `json:"authorityName"`
	AuthorityAddress           *string `json:"authorityAddress"`
	NoticeType                 string  `json:"noticeType"`
	ClassifiedStage            string  `json:"classifiedStage"`
	Jurisdiction               string  `json:"jurisdiction"`
	ExtractionConfidence       float64 `json:"extractionConfidence"`
	ContainsFormalSignals      bool    `json:"containsFormalSignals"`
	ContainsHardCourtArtefacts bool    `json:"containsHardCourtArtefacts"`
	FormalSignalReason         *string `json:"formalSignalReason"`
}

type strategyResult struct {
	Summary   string `json:"summary"`
	Overview  string `json:"overview"`
	Rationale string `json:"rationale"`
}

type draftResult struct {
	DraftType          string   `json:"draftType"`
	Letter             string   `json:"letter"`
	SARLetter          *string  `json:"sarLetter"`
	VerificationStatus string   `json:"verificationStatus"`
	SourceCitations    []string `json:"sourceCitations"`
	EvidenceChecklist  []string `json:"evidenceChecklist"`
	Rationale          string   `json:"rationale"`
}

func validateExtraction(r extractionResult) error {
	var problems []string
	switch casefile.NoticeType(r.NoticeType) {
	case casefile.NoticeCouncil, casefile.NoticePrivate, casefile.NoticeUnknown:
	default:
		problems = append(problems, fmt.Sprintf("noticeType %q not in enum", r.NoticeType))
	}
	switch casefile.NoticeStage(r.ClassifiedStage) {
	case casefile.StageStandard, casefile.StageDebtRecovery, casefile.StageCourtClaim, casefile.StageUnknown:
	default:
		problems = append(problems, fmt.Sprintf("classifiedStage %q not in enum", r.ClassifiedStage))
	}
	switch casefile.Jurisdiction(r.Jurisdiction) {
	case casefile.JurisdictionEnglandWales, casefile.JurisdictionScotland, casefile.JurisdictionNI, casefile.JurisdictionUnknown:
	default:
		problems = append(problems, fmt.Sprintf("jurisdiction %q not in enum", r.Jurisdiction))
	}
	if r.ExtractionConfidence < 0 || r.ExtractionConfidence > 1 {
		problems = append(problems, fmt.Sprintf("extractionConfidence %v outside [0,1]", r.ExtractionConfidence))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// toNoticeFacts converts the wire result, substituting the sentinel for an
// absent or unreadable reference number.
func toNoticeFacts(r extractionResult) *casefile.NoticeFacts {
	pcn := deref(r.PCNNumber)
	if strings.TrimSpace(pcn) == "" {
		pcn = casefile.PCNNotFound
	}
	return &casefile.NoticeFacts{
		PCNNumber:                  pcn,
		VehicleReg:                 deref(r.VehicleReg),
		DateOfIssue:                deref(r.DateOfIssue),
		Location:                   deref(r.Location),
		ContraventionCode:          deref(r.ContraventionCode),
		ContraventionDescription:   deref(r.ContraventionDescription),
		AuthorityName:              deref(r.AuthorityName),
		AuthorityAddress:           deref(r.AuthorityAddress),
		NoticeType:                 casefile.NoticeType(r.NoticeType),
		ClassifiedStage:            casefile.NoticeStage(r.ClassifiedStage),
		Jurisdiction:               casefile.Jurisdiction(r.Jurisdiction),
		ExtractionConfidence:       r.ExtractionConfidence,
		ContainsFormalSignals:      r.ContainsFormalSignals,
		ContainsHardCourtArtefacts: r.ContainsHardCourtArtefacts,
		FormalSignalReason:         deref(r.FormalSignalReason),
	}
}

func validateStrategy(r strategyResult) error {
	var problems []string
	if strings.TrimSpace(r.Summary) == "" {
		problems = append(problems, "summary empty")
	}
	if strings.TrimSpace(r.Overview) == "" {
		problems = append(problems, "overview empty")
	}
	if strings.TrimSpace(r.Rationale) == "" {
		problems = append(problems, "rationale empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func validateDraft(r draftResult, sarPack bool) error {
	var problems []string
	if strings.TrimSpace(r.Letter) == "" {
		problems = append(problems, "letter empty")
	}
	switch casefile.DraftType(r.DraftType) {
	case casefile.DraftRepresentation, casefile.DraftPreActionSAR, "":
	default:
		problems = append(problems, fmt.Sprintf("draftType %q not in enum", r.DraftType))
	}
	switch casefile.VerificationStatus(r.VerificationStatus) {
	case casefile.VerificationVerified, casefile.VerificationBlockedPreview:
	default:
		problems = append(problems, fmt.Sprintf("verificationStatus %q not in enum", r.VerificationStatus))
	}
	if sarPack && strings.TrimSpace(deref(r.SARLetter)) == "" {
		problems = append(problems, "sarLetter required for the SAR pack")
	}
	allowed := map[string]bool{}
	sources := casefile.CouncilSources
	if sarPack {
		sources = casefile.PrivateSources
	}
	for _, s := range sources {
		allowed[s.ID] = true
	}
	for _, c := range r.SourceCitations {
		if !allowed[c] {
			problems = append(problems, fmt.Sprintf("citation %q not in the permitted source list", c))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func toLetterBundle(r draftResult, sarPack bool) *casefile.LetterBundle {
	dt := casefile.DraftType(r.DraftType)
	if dt == "" {
		dt = casefile.DraftRepresentation
		if sarPack {
			dt = casefile.DraftPreActionSAR
		}
	}
	return &casefile.LetterBundle{
		DraftType:          dt,
		Letter:             r.Letter,
		SARLetter:          deref(r.SARLetter),
		VerificationStatus: casefile.VerificationStatus(r.VerificationStatus),
		SourceCitations:    r.SourceCitations,
		EvidenceChecklist:  r.EvidenceChecklist,
		Rationale:          r.Rationale,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func factsJSON(facts *casefile.NoticeFacts) string {
	raw, err := json.Marshal(facts)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
