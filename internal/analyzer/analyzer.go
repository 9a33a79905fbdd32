package analyzer

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/defensuk/defens/internal/casefile"
)

// PassError names the analyzer pass that failed.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("analyzer pass %s: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }

// Service runs the three analyzer passes over one LLM caller.
type Service struct {
	exec   *PassExecutor
	tracer trace.Tracer
}

func NewService(caller LLMCaller) *Service {
	return &Service{
		exec:   NewPassExecutor(caller),
		tracer: otel.Tracer("defens/analyzer"),
	}
}

// NewServiceFromEnv wires the Anthropic caller from the environment.
// ErrNotConfigured when the key is absent.
func NewServiceFromEnv() (*Service, error) {
	caller, err := NewAnthropicCallerFromEnv()
	if err != nil {
		return nil, err
	}
	return NewService(caller), nil
}

// Extract reads the scanned notice into structured facts.
func (s *Service) Extract(ctx context.Context, img casefile.NoticeImage) (*casefile.NoticeFacts, error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.extract")
	defer span.End()

	var out extractionResult
	metrics, err := s.exec.Run(ctx, "extraction", buildExtractionPrompt(), &out,
		func() error { return validateExtraction(out) }, img)
	span.SetAttributes(
		attribute.Int("attempts", metrics.Attempts),
		attribute.Int("content_retries", metrics.ContentRetries),
	)
	if err != nil {
		span.RecordError(err)
		return nil, &PassError{Pass: "extraction", Err: err}
	}
	facts := toNoticeFacts(out)
	log.Printf("analyzer: extraction done type=%s stage=%s confidence=%.2f attempts=%d",
		facts.NoticeType, facts.ClassifiedStage, facts.ExtractionConfidence, metrics.Attempts)
	return facts, nil
}

// Strategize produces the plain-language plan shown before drafting.
func (s *Service) Strategize(ctx context.Context, facts *casefile.NoticeFacts, answers casefile.Answers) (*casefile.Strategy, error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.strategize")
	defer span.End()

	var out strategyResult
	metrics, err := s.exec.Run(ctx, "strategy", buildStrategyPrompt(facts, answers), &out,
		func() error { return validateStrategy(out) })
	span.SetAttributes(attribute.Int("attempts", metrics.Attempts))
	if err != nil {
		span.RecordError(err)
		return nil, &PassError{Pass: "strategy", Err: err}
	}
	return &casefile.Strategy{Summary: out.Summary, Overview: out.Overview, Rationale: out.Rationale}, nil
}

// Draft writes the letter bundle. Private debt cases get the pre-action SAR
// pack; everything else gets a formal representation.
func (s *Service) Draft(ctx context.Context, facts *casefile.NoticeFacts, answers casefile.Answers) (*casefile.LetterBundle, error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.draft")
	defer span.End()

	sarPack := IsPrivateDebt(facts, answers)
	span.SetAttributes(attribute.Bool("sar_pack", sarPack))

	var out draftResult
	metrics, err := s.exec.Run(ctx, "draft", buildDraftPrompt(facts, answers, sarPack), &out,
		func() error { return validateDraft(out, sarPack) })
	span.SetAttributes(attribute.Int("attempts", metrics.Attempts))
	if err != nil {
		span.RecordError(err)
		return nil, &PassError{Pass: "draft", Err: err}
	}
	log.Printf("analyzer: draft done type=%s attempts=%d", out.DraftType, metrics.Attempts)
	return toLetterBundle(out, sarPack), nil
}

// IsPrivateDebt mirrors the routing the wizard applied: a private notice at
// the debt stage, whether the stage came from the scan or the intake answers.
func IsPrivateDebt(facts *casefile.NoticeFacts, answers casefile.Answers) bool {
	if facts == nil || facts.NoticeType != casefile.NoticePrivate {
		return false
	}
	if facts.ClassifiedStage == casefile.StageDebtRecovery {
		return true
	}
	return answers.BoolValue("privateDebtLetter") ||
		answers.TextValue("noticeStageConfirmed") == string(casefile.StageDebtRecovery)
}
