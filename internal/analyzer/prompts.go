package analyzer

import (
	"fmt"
	"strings"

	"github.com/defensuk/defens/internal/casefile"
)

const extractionSchemaPrompt = `Required JSON schema:
{
  "pcnNumber": "string or null (the notice reference; null when unreadable)",
  "vehicleReg": "string or null",
  "dateOfIssue": "string or null",
  "location": "string or null",
  "contraventionCode": "string or null",
  "contraventionDescription": "string or null",
  "authorityName": "string or null",
  "authorityAddress": "string or null",
  "noticeType": "council | private | unknown",
  "classifiedStage": "standard | debt_recovery | court_claim | unknown",
  "jurisdiction": "England_Wales | Scotland | NI | Unknown",
  "extractionConfidence": "float (0.0-1.0)",
  "containsFormalSignals": "boolean",
  "containsHardCourtArtefacts": "boolean",
  "formalSignalReason": "string or null"
}`

const strategySchemaPrompt = `Required JSON schema:
{
  "summary": "string",
  "overview": "string",
  "rationale": "string"
}`

const draftSchemaPrompt = `Required JSON schema:
{
  "draftType": "PCN_REPRESENTATION | PRIVATE_PRE_ACTION_SAR_PACK",
  "letter": "string (the full letter body, markdown allowed)",
  "sarLetter": "string or null (the separate SAR letter, SAR pack only)",
  "verificationStatus": "VERIFIED | BLOCKED_PREVIEW_ONLY",
  "sourceCitations": ["string (ids from the permitted source list only)"],
  "evidenceChecklist": ["string"],
  "rationale": "string"
}`

// Words the strategy pass must not use: the plan is shown to the user before
// payment and has to read as plain everyday language.
var strategyBannedWords = []string{
	"legal", "law", "appeal", "defence", "legislation", "regulation",
	"statute", "comply", "evidence", "witness", "representation",
	"liable", "liability",
}

func buildExtractionPrompt() string {
	var b strings.Builder
	b.WriteString("Extract the details of this UK parking notice from the attached image.\n\n")
	b.WriteString("Identify the STAGE of the notice:\n")
	b.WriteString("- court_claim: look for " + quoteList(casefile.CourtArtefactKeywords[:6]) + ".\n")
	b.WriteString("- debt_recovery: look for " + quoteList(casefile.FormalThreatKeywords[3:8]) + ".\n")
	b.WriteString("- standard: a notice to owner or an initial parking charge notice.\n\n")
	b.WriteString("Classify noticeType: council for a local authority or TfL notice, private for a private operator.\n")
	b.WriteString("Identify the jurisdiction: England_Wales, Scotland, or NI.\n\n")
	b.WriteString("Set containsFormalSignals when the text carries formal collection language such as ")
	b.WriteString(quoteList(casefile.FormalThreatKeywords[:4]))
	b.WriteString(". Set containsHardCourtArtefacts only for actual court paperwork, for example ")
	b.WriteString(quoteList(casefile.CourtArtefactKeywords[:4]))
	b.WriteString(".\n\nUse null for any field you cannot read; never invent a reference number.\n\n")
	b.WriteString(extractionSchemaPrompt)
	return b.String()
}

func buildStrategyPrompt(facts *casefile.NoticeFacts, answers casefile.Answers) string {
	return fmt.Sprintf(`Based on:
DATA: %s
USER_ANSWERS: %s

Provide:
1. summary: a short, high-impact headline explaining why this charge is being challenged.
2. overview: the action plan in two lines at most. For a private collection case, explain that all their records are being requested before they can take it further.
3. rationale: why this plan is best delivered as a professionally drafted letter that applies the specific technical rules for a proper review.

STRICT LANGUAGE CONTROL:
- Use ONLY plain, everyday language.
- BANNED WORDS: %s.
- Do not use any legalistic framing.

Maximum 120 words total.

%s`, factsJSON(facts), answers.WireJSON(), strings.Join(strategyBannedWords, ", "), strategySchemaPrompt)
}

func buildDraftPrompt(facts *casefile.NoticeFacts, answers casefile.Answers, sarPack bool) string {
	header := fmt.Sprintf(`HEADER:
- Recipient: %s
- Address: %s
- Reference: %s
- Vehicle: %s
- Date: %s`,
		orPlaceholder(facts.AuthorityName),
		orPlaceholder(facts.AuthorityAddress),
		facts.PCNNumber,
		orPlaceholder(facts.VehicleReg),
		orPlaceholder(facts.DateOfIssue))

	if sarPack {
		return fmt.Sprintf(`You are drafting a formal PRE-LITIGATION DISCLOSURE and SUBJECT ACCESS REQUEST (SAR) pack for a UK private parking debt case.
%s
Facts: %s

The main letter MUST:
1. Demand full pre-litigation disclosure including a copy of the contract, signage maps, and proof of assignment.
2. State that proceedings should be stayed until this data is provided.
Put the formal Subject Access Request under the Data Protection Act 2018 into sarLetter as a separate letter.

You MAY use formal terms (SAR, pre-litigation disclosure, DPA 2018, POFA 2012) in these letters.
Cite only from the permitted sources:
%s

%s`, header, answers.WireJSON(), sourceList(casefile.PrivateSources), draftSchemaPrompt)
	}

	return fmt.Sprintf(`You are drafting a professional representation letter to a UK parking authority.
%s
Facts: %s

You MAY use formal terms (legislation, regulations, TMA 2004) as appropriate; this letter is the only place such terms are allowed.
Cite only from the permitted sources:
%s

%s`, header, answers.WireJSON(), sourceList(casefile.CouncilSources), draftSchemaPrompt)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "As per ticket"
	}
	return s
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return strings.Join(quoted, ", ")
}

func sourceList(sources []casefile.Source) string {
	var b strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&b, "- %s: %s\n", s.ID, s.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
