package letterpdf

import (
	"strings"
	"testing"

	"github.com/defensuk/defens/internal/casefile"
)

func TestBuildHTMLCarriesHeaderFields(t *testing.T) {
	facts := &casefile.NoticeFacts{
		PCNNumber:     "AB12345678",
		AuthorityName: "Camden Council",
		VehicleReg:    "AB12 CDE",
		DateOfIssue:   "2026-08-01",
	}
	doc := buildHTML("Representation Letter", facts, "Dear Sir or Madam,\n\nI write to contest the above notice.")
	for _, want := range []string{"AB12345678", "Camden Council", "AB12 CDE", "2026-08-01", "Representation Letter"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if !strings.Contains(doc, "<p>") {
		t.Error("letter body was not converted from markdown")
	}
}

func TestBuildHTMLOmitsSentinelReference(t *testing.T) {
	facts := &casefile.NoticeFacts{PCNNumber: casefile.PCNNotFound}
	doc := buildHTML("Representation Letter", facts, "body")
	if strings.Contains(doc, casefile.PCNNotFound) {
		t.Error("sentinel reference must not appear in the rendered letter")
	}
}

func TestBuildHTMLEscapesFacts(t *testing.T) {
	facts := &casefile.NoticeFacts{PCNNumber: "<script>x</script>"}
	doc := buildHTML("Representation Letter", facts, "body")
	if strings.Contains(doc, "<script>") {
		t.Error("header fields must be HTML escaped")
	}
}

func TestPrintLayoutHooksBreakBeforeAnnex(t *testing.T) {
	in := "<h2>Annex A: Evidence</h2><p>items</p>"
	out := applyPrintLayoutHooks(in)
	if !strings.Contains(out, `data-page-break-before="true"`) {
		t.Fatalf("annex heading not marked for page break: %s", out)
	}
	plain := "<h2>Grounds</h2>"
	if applyPrintLayoutHooks(plain) != plain {
		t.Error("ordinary headings must pass through unchanged")
	}
}
