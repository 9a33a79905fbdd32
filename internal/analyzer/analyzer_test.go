package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/defensuk/defens/internal/casefile"
)

type fakeCaller struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
	images    [][]casefile.NoticeImage
}

func (f *fakeCaller) GenerateJSON(ctx context.Context, prompt string, images ...casefile.NoticeImage) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, images)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

const goodExtraction = `{
  "pcnNumber": "AB12345678",
  "noticeType": "council",
  "classifiedStage": "standard",
  "jurisdiction": "England_Wales",
  "extractionConfidence": 0.9,
  "containsFormalSignals": false,
  "containsHardCourtArtefacts": false
}`

func testImage() casefile.NoticeImage {
	return casefile.NoticeImage{Data: []byte{0xff, 0xd8}, MediaType: "image/jpeg"}
}

func TestExtractHappyPath(t *testing.T) {
	fc := &fakeCaller{responses: []string{goodExtraction}}
	svc := NewService(fc)
	facts, err := svc.Extract(context.Background(), testImage())
	if err != nil {
		t.Fatal(err)
	}
	if facts.PCNNumber != "AB12345678" || facts.NoticeType != casefile.NoticeCouncil {
		t.Fatalf("unexpected facts: %+v", facts)
	}
	if len(fc.images) != 1 || len(fc.images[0]) != 1 {
		t.Fatal("extraction must send the notice image")
	}
}

func TestExtractNullReferenceBecomesSentinel(t *testing.T) {
	resp := strings.Replace(goodExtraction, `"AB12345678"`, "null", 1)
	svc := NewService(&fakeCaller{responses: []string{resp}})
	facts, err := svc.Extract(context.Background(), testImage())
	if err != nil {
		t.Fatal(err)
	}
	if facts.PCNNumber != casefile.PCNNotFound {
		t.Fatalf("expected sentinel, got %q", facts.PCNNumber)
	}
}

func TestExtractFencedResponseAccepted(t *testing.T) {
	svc := NewService(&fakeCaller{responses: []string{"```json\n" + goodExtraction + "\n```"}})
	if _, err := svc.Extract(context.Background(), testImage()); err != nil {
		t.Fatal(err)
	}
}

func TestExtractInvalidEnumRetriesWithFeedback(t *testing.T) {
	bad := strings.Replace(goodExtraction, `"council"`, `"municipal"`, 1)
	fc := &fakeCaller{responses: []string{bad, goodExtraction}}
	svc := NewService(fc)
	if _, err := svc.Extract(context.Background(), testImage()); err != nil {
		t.Fatal(err)
	}
	if fc.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fc.calls)
	}
	if !strings.Contains(fc.prompts[1], "failed validation") {
		t.Fatal("retry prompt must carry corrective feedback")
	}
}

func TestExtractTransportFailureSurfacesPassError(t *testing.T) {
	fc := &fakeCaller{
		errs:      []error{errors.New("status code: 400 bad request")},
		responses: []string{""},
	}
	svc := NewService(fc)
	_, err := svc.Extract(context.Background(), testImage())
	var pe *PassError
	if !errors.As(err, &pe) || pe.Pass != "extraction" {
		t.Fatalf("expected extraction pass error, got %v", err)
	}
	if fc.calls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", fc.calls)
	}
}

func TestStrategizeRejectsEmptyFields(t *testing.T) {
	fc := &fakeCaller{responses: []string{`{"summary":"","overview":"","rationale":""}`}}
	svc := NewService(fc)
	facts := &casefile.NoticeFacts{NoticeType: casefile.NoticeCouncil, PCNNumber: "AB1"}
	_, err := svc.Strategize(context.Background(), facts, casefile.Answers{})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if fc.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", fc.calls)
	}
}

func TestStrategyPromptCarriesLanguageControl(t *testing.T) {
	fc := &fakeCaller{responses: []string{`{"summary":"s","overview":"o","rationale":"r"}`}}
	svc := NewService(fc)
	facts := &casefile.NoticeFacts{NoticeType: casefile.NoticeCouncil, PCNNumber: "AB1"}
	if _, err := svc.Strategize(context.Background(), facts, casefile.Answers{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fc.prompts[0], "BANNED WORDS") {
		t.Fatal("strategy prompt must keep the plain-language control")
	}
}

const goodDraft = `{
  "draftType": "PCN_REPRESENTATION",
  "letter": "Dear Sir or Madam",
  "verificationStatus": "VERIFIED",
  "sourceCitations": ["TMA_2004"],
  "evidenceChecklist": ["photo of the signage"],
  "rationale": "signage challenge"
}`

func TestDraftCouncilRepresentation(t *testing.T) {
	fc := &fakeCaller{responses: []string{goodDraft}}
	svc := NewService(fc)
	facts := &casefile.NoticeFacts{NoticeType: casefile.NoticeCouncil, ClassifiedStage: casefile.StageStandard, PCNNumber: "AB1"}
	bundle, err := svc.Draft(context.Background(), facts, casefile.Answers{})
	if err != nil {
		t.Fatal(err)
	}
	if bundle.DraftType != casefile.DraftRepresentation {
		t.Fatalf("expected representation, got %s", bundle.DraftType)
	}
	if strings.Contains(fc.prompts[0], "SUBJECT ACCESS REQUEST") {
		t.Fatal("council draft must not use the SAR pack prompt")
	}
}

func TestDraftPrivateDebtUsesSARPack(t *testing.T) {
	resp := `{
	  "draftType": "PRIVATE_PRE_ACTION_SAR_PACK",
	  "letter": "Dear Sirs",
	  "sarLetter": "Subject access request",
	  "verificationStatus": "VERIFIED",
	  "sourceCitations": ["POFA_2012_SCH4"],
	  "evidenceChecklist": [],
	  "rationale": "disclosure first"
	}`
	fc := &fakeCaller{responses: []string{resp}}
	svc := NewService(fc)
	facts := &casefile.NoticeFacts{NoticeType: casefile.NoticePrivate, ClassifiedStage: casefile.StageDebtRecovery, PCNNumber: "PP1"}
	bundle, err := svc.Draft(context.Background(), facts, casefile.Answers{})
	if err != nil {
		t.Fatal(err)
	}
	if bundle.DraftType != casefile.DraftPreActionSAR || bundle.SARLetter == "" {
		t.Fatalf("expected SAR pack with separate SAR letter, got %+v", bundle)
	}
	if !strings.Contains(fc.prompts[0], "SUBJECT ACCESS REQUEST") {
		t.Fatal("private debt draft must use the SAR pack prompt")
	}
}

func TestDraftRejectsOffListCitation(t *testing.T) {
	bad := strings.Replace(goodDraft, `"TMA_2004"`, `"WIKIPEDIA"`, 1)
	fc := &fakeCaller{responses: []string{bad, goodDraft}}
	svc := NewService(fc)
	facts := &casefile.NoticeFacts{NoticeType: casefile.NoticeCouncil, PCNNumber: "AB1"}
	bundle, err := svc.Draft(context.Background(), facts, casefile.Answers{})
	if err != nil {
		t.Fatal(err)
	}
	if fc.calls != 2 {
		t.Fatalf("off-list citation must force a retry, got %d calls", fc.calls)
	}
	if bundle.SourceCitations[0] != "TMA_2004" {
		t.Fatalf("unexpected citations: %v", bundle.SourceCitations)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                   "{\"a\":1}",
		"```json\n{\"a\":1}\n```":     "{\"a\":1}",
		"```\n{\"a\":1}\n```":         "{\"a\":1}",
		"  ```json\n{\"a\":1}\n```  ": "{\"a\":1}",
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
