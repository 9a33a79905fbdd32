package letterpdf

import (
	"context"
	"encoding/base64"
	"errors"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/defensuk/defens/internal/casefile"
)

// Renderer turns a drafted letter into an A4 PDF via headless Chromium.
type Renderer struct {
	chromePath string
}

func NewRenderer() *Renderer {
	return &Renderer{chromePath: detectChromePath()}
}

// RenderLetter renders the main letter of the bundle.
func (r *Renderer) RenderLetter(ctx context.Context, rec *casefile.CaseRecord) ([]byte, error) {
	if rec == nil || rec.Letter == nil {
		return nil, errors.New("no drafted letter")
	}
	title := "Representation Letter"
	if rec.Letter.DraftType == casefile.DraftPreActionSAR {
		title = "Pre-Action Disclosure Letter"
	}
	return r.render(ctx, buildHTML(title, rec.Notice, rec.Letter.Letter))
}

// RenderSAR renders the separate subject access request of a SAR pack.
func (r *Renderer) RenderSAR(ctx context.Context, rec *casefile.CaseRecord) ([]byte, error) {
	if rec == nil || rec.Letter == nil || strings.TrimSpace(rec.Letter.SARLetter) == "" {
		return nil, errors.New("no SAR letter in the bundle")
	}
	return r.render(ctx, buildHTML("Subject Access Request", rec.Notice, rec.Letter.SARLetter))
}

func (r *Renderer) render(ctx context.Context, htmlDoc string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;padding-right:8px;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.6).
				WithMarginBottom(0.75).
				WithMarginLeft(0.6).
				WithMarginRight(0.6).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const letterCSS = `
body{font-family:Georgia,'Times New Roman',serif;font-size:11pt;color:#1c1917;line-height:1.5;margin:0;}
.letter-wrap{max-width:760px;margin:0 auto;}
.letter-meta{font-size:9.5pt;color:#44403c;border-bottom:1px solid #d6d3d1;padding-bottom:0.5rem;margin-bottom:1.2rem;}
.letter-meta strong{color:#1c1917;}
.letter-title{font-size:13pt;font-weight:700;margin:0 0 1rem 0;}
.letter-body p{margin:0 0 0.7rem 0;}
.letter-body h1,.letter-body h2,.letter-body h3{font-size:11.5pt;font-weight:700;}
.letter-body ul,.letter-body ol{margin:0 0 0.7rem 1.2rem;}
.letter-body table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:10pt;}
.letter-body th,.letter-body td{border:1px solid #a8a29e;padding:0.3rem 0.4rem;text-align:left;vertical-align:top;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
`

// buildHTML wraps the markdown letter body in a printable document with the
// notice header fields.
func buildHTML(title string, facts *casefile.NoticeFacts, markdown string) string {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		// Markdown conversion over plain text letters should not fail; fall
		// back to preformatted text rather than losing the letter.
		content.Reset()
		content.WriteString("<pre>" + html.EscapeString(markdown) + "</pre>")
	}
	contentHTML := applyPrintLayoutHooks(content.String())

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + letterCSS +
		"html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}" +
		"@media print{ @page{size:A4;margin:0;} }" +
		"</style></head><body>" +
		"<div class='letter-wrap'>" +
		"<div class='letter-meta'>" + buildMetaHTML(facts) + "</div>" +
		"<h1 class='letter-title'>" + html.EscapeString(title) + "</h1>" +
		"<div class='letter-body'>" + contentHTML + "</div>" +
		"</div></body></html>"
}

func buildMetaHTML(facts *casefile.NoticeFacts) string {
	if facts == nil {
		return ""
	}
	var out strings.Builder
	if ref := strings.TrimSpace(facts.PCNNumber); ref != "" && ref != casefile.PCNNotFound {
		out.WriteString("<div><strong>Reference:</strong> " + html.EscapeString(ref) + "</div>")
	}
	if facts.AuthorityName != "" {
		out.WriteString("<div><strong>Recipient:</strong> " + html.EscapeString(facts.AuthorityName) + "</div>")
	}
	if facts.VehicleReg != "" {
		out.WriteString("<div><strong>Vehicle:</strong> " + html.EscapeString(facts.VehicleReg) + "</div>")
	}
	if facts.DateOfIssue != "" {
		out.WriteString("<div><strong>Date of issue:</strong> " + html.EscapeString(facts.DateOfIssue) + "</div>")
	}
	return out.String()
}

// applyPrintLayoutHooks pushes enclosure and annex headings onto a fresh page
// so the letter proper is never interleaved with its attachments.
func applyPrintLayoutHooks(contentHTML string) string {
	reAnnex := regexp.MustCompile(`(?i)<h2([^>]*)>\s*((?:Annex|Enclosure|Schedule of Evidence)[^<]*)\s*</h2>`)
	return reAnnex.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">$2</h2>`)
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
