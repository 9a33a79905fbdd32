package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/defensuk/defens/internal/casefile"
	"github.com/defensuk/defens/internal/store"
	"github.com/defensuk/defens/internal/wizard"
)

const maxUploadBytes = 10 << 20

// LetterPDFRenderer renders the drafted letters; the Chromium implementation
// lives in internal/letterpdf, tests substitute a fake.
type LetterPDFRenderer interface {
	RenderLetter(ctx context.Context, rec *casefile.CaseRecord) ([]byte, error)
	RenderSAR(ctx context.Context, rec *casefile.CaseRecord) ([]byte, error)
}

type Config struct {
	// CheckoutURL is the external payment page; the checkout endpoint
	// redirects there with the case token appended.
	CheckoutURL string
	// ReturnPath is where the payment return lands after processing, with
	// the payment parameter stripped.
	ReturnPath string
	// WebhookSecret, when set, requires an HMAC signature on payment
	// returns.
	WebhookSecret string
}

type Server struct {
	sessions *SessionStore
	cases    *store.CaseStore
	pdf      LetterPDFRenderer
	cfg      Config
	tracer   trace.Tracer
}

func NewServer(sessions *SessionStore, cases *store.CaseStore, pdf LetterPDFRenderer, cfg Config) http.Handler {
	if cfg.ReturnPath == "" {
		cfg.ReturnPath = "/"
	}
	s := &Server{
		sessions: sessions,
		cases:    cases,
		pdf:      pdf,
		cfg:      cfg,
		tracer:   otel.Tracer("defens/server"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/cases", s.handleCreateCase)
	mux.HandleFunc("/v1/cases/", s.handleCase)
	mux.HandleFunc("/v1/payment/return", s.handlePaymentReturn)
	mux.HandleFunc("/v1/checkout/", s.handleCheckout)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	token, sess := s.sessions.Create()
	writeJSON(w, 200, map[string]any{
		"token":      token,
		"state":      sess.State(),
		"disclaimer": casefile.Disclaimer,
	})
}

// handleCase dispatches /v1/cases/{token}[/rest].
func (s *Server) handleCase(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/cases/")
	token, sub, _ := strings.Cut(rest, "/")
	if token == "" {
		writeError(w, 400, "token is required")
		return
	}
	sess := s.sessions.Get(token)
	if sess == nil {
		writeError(w, 404, "unknown case token")
		return
	}
	switch sub {
	case "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, 200, sess.State())
	case "events":
		s.handleEvents(w, r, token, sess)
	case "upload":
		s.handleUpload(w, r, token, sess)
	case "letter":
		s.handleLetter(w, r, sess)
	case "letter.pdf":
		s.handleLetterPDF(w, r, sess, false)
	case "sar.pdf":
		s.handleLetterPDF(w, r, sess, true)
	default:
		http.NotFound(w, r)
	}
}

type eventRequest struct {
	Type        string `json:"type"`
	Understands bool   `json:"understands"`
	Accepts     bool   `json:"accepts"`
	Option      string `json:"option"`
	Category    string `json:"category"`
	Value       bool   `json:"value"`
	Text        string `json:"text"`
	Reviewed    bool   `json:"reviewed"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, token string, sess *wizard.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid event body")
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "wizard.event",
		trace.WithAttributes(attribute.String("event.type", req.Type)))
	defer span.End()

	var err error
	switch req.Type {
	case "attest":
		err = sess.SetAttestations(req.Understands, req.Accepts)
	case "accept_disclaimer":
		err = sess.AcceptDisclaimer()
	case "choose":
		err = sess.Choose(req.Option)
	case "select_category":
		err = sess.SelectCategory(casefile.ContraventionCategory(req.Category))
	case "toggle":
		err = sess.ToggleOption(req.Option)
	case "set_mitigation":
		err = sess.SetMitigation(req.Value)
	case "submit_selection":
		err = sess.SubmitSelection()
	case "set_explanation":
		err = sess.SetExplanation(req.Text)
	case "submit_explanation":
		err = sess.SubmitExplanation()
	case "confirm_evidence":
		err = sess.ConfirmEvidence(ctx, req.Reviewed)
	case "agree_strategy":
		err = sess.AgreeStrategy(ctx)
	case "back":
		err = sess.Back()
	case "retry_scan":
		err = sess.RetryScan()
	case "reset":
		sess.ResetCase()
		if cerr := s.cases.Clear(token); cerr != nil {
			log.Printf("clear case %s: %v", token, cerr)
		}
	default:
		writeError(w, 400, fmt.Sprintf("unknown event type %q", req.Type))
		return
	}

	status := 200
	if err != nil {
		span.RecordError(err)
		var gateErr *wizard.GateError
		switch {
		case errors.As(err, &gateErr):
			writeJSON(w, 409, map[string]any{"error": err.Error(), "gate": gateErr.Gate, "state": sess.State()})
			return
		case errors.Is(err, wizard.ErrWrongScreen):
			writeJSON(w, 409, map[string]any{"error": err.Error(), "state": sess.State()})
			return
		default:
			// Analyzer failures: the wizard has already rerouted, report
			// the new state alongside the failure.
			status = 502
		}
	}
	s.persistIfResult(token, sess)
	payload := map[string]any{"state": sess.State()}
	if err != nil {
		payload["error"] = err.Error()
	}
	writeJSON(w, status, payload)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, token string, sess *wizard.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, 400, "invalid multipart form or file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, 400, "failed to read uploaded file")
		return
	}
	mediaType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mediaType, "image/") {
		writeError(w, 400, "upload must be an image")
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "wizard.upload",
		trace.WithAttributes(attribute.Int("image.bytes", len(data))))
	defer span.End()

	err = sess.Upload(ctx, casefile.NoticeImage{Data: data, MediaType: mediaType})
	status := 200
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, wizard.ErrWrongScreen) {
			writeJSON(w, 409, map[string]any{"error": err.Error(), "state": sess.State()})
			return
		}
		status = 502
	}
	payload := map[string]any{"state": sess.State()}
	if err != nil {
		payload["error"] = err.Error()
	}
	writeJSON(w, status, payload)
}

// persistIfResult writes the record through to the case store when the wizard
// sits on the result screen still locked; that is the state the payment
// redirect must be able to restore.
func (s *Server) persistIfResult(token string, sess *wizard.Session) {
	rec, screen, _ := sess.Snapshot()
	if screen != wizard.ScreenResult || rec.Unlocked {
		return
	}
	if err := s.cases.Save(token, rec, string(screen)); err != nil {
		log.Printf("save case %s: %v", token, err)
	}
}

const previewLines = 5

func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rec := sess.Record()
	if rec.Letter == nil {
		writeError(w, 404, "no letter drafted yet")
		return
	}
	if !rec.Unlocked {
		writeJSON(w, 200, map[string]any{
			"locked":     true,
			"draft_type": rec.Letter.DraftType,
			"preview":    firstLines(rec.Letter.Letter, previewLines),
		})
		return
	}
	writeJSON(w, 200, map[string]any{
		"locked":              false,
		"draft_type":          rec.Letter.DraftType,
		"letter":              rec.Letter.Letter,
		"sar_letter":          rec.Letter.SARLetter,
		"verification_status": rec.Letter.VerificationStatus,
		"source_citations":    rec.Letter.SourceCitations,
		"evidence_checklist":  rec.Letter.EvidenceChecklist,
		"rationale":           rec.Letter.Rationale,
	})
}

func (s *Server) handleLetterPDF(w http.ResponseWriter, r *http.Request, sess *wizard.Session, sar bool) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rec := sess.Record()
	if rec.Letter == nil {
		writeError(w, 404, "no letter drafted yet")
		return
	}
	if !rec.Unlocked {
		writeError(w, 402, "letter export requires payment")
		return
	}
	var (
		pdf  []byte
		err  error
		name = "representation-letter.pdf"
	)
	if sar {
		pdf, err = s.pdf.RenderSAR(r.Context(), rec)
		name = "subject-access-request.pdf"
	} else {
		pdf, err = s.pdf.RenderLetter(r.Context(), rec)
	}
	if err != nil {
		log.Printf("render pdf: %v", err)
		writeError(w, 500, "failed to render PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(200)
	_, _ = w.Write(pdf)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/checkout/"), "/")
	if token == "" {
		writeError(w, 400, "token is required")
		return
	}
	if s.cfg.CheckoutURL == "" {
		writeError(w, 503, "checkout is not configured")
		return
	}
	if s.sessions.Get(token) == nil {
		writeError(w, 404, "unknown case token")
		return
	}
	sep := "?"
	if strings.Contains(s.cfg.CheckoutURL, "?") {
		sep = "&"
	}
	http.Redirect(w, r, s.cfg.CheckoutURL+sep+"case="+url.QueryEscape(token), http.StatusFound)
}

// handlePaymentReturn processes the checkout round-trip. The success
// parameter is consumed exactly once: the session is restored and unlocked,
// then the redirect strips the parameter, so a reload of the clean URL is a
// no-op.
func (s *Server) handlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("case")
	if token == "" {
		writeError(w, 400, "case parameter is required")
		return
	}
	if q.Get("payment") != "success" {
		http.Redirect(w, r, s.cleanReturnURL(token), http.StatusFound)
		return
	}
	if s.cfg.WebhookSecret != "" {
		if !verifyPaymentSignature(s.cfg.WebhookSecret, token, q.Get("sig")) {
			writeError(w, 403, "invalid payment signature")
			return
		}
	}
	sess := s.sessions.GetOrCreate(token)
	saved, err := s.cases.Load(token)
	if err != nil {
		// A lost record is the recognized degraded state: unlock anyway.
		log.Printf("load case %s: %v", token, err)
		saved = nil
	}
	sess.ApplyPaymentReturn(saved)
	http.Redirect(w, r, s.cleanReturnURL(token), http.StatusFound)
}

func (s *Server) cleanReturnURL(token string) string {
	return s.cfg.ReturnPath + "?case=" + url.QueryEscape(token)
}

// verifyPaymentSignature checks an HMAC-SHA256 hex signature over
// "payment=success&case=<token>". An optional "sha256=" prefix is accepted.
func verifyPaymentSignature(secret, token, sig string) bool {
	sig = strings.TrimSpace(sig)
	if strings.HasPrefix(strings.ToLower(sig), "sha256=") {
		sig = sig[len("sha256="):]
	}
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("payment=success&case=" + token))
	return hmac.Equal(mac.Sum(nil), provided)
}

func firstLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[:n], "\n")
}
