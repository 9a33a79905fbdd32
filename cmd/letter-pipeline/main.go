package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/defensuk/defens/internal/analyzer"
	"github.com/defensuk/defens/internal/casefile"
)

// letter-pipeline runs the analysis passes against a notice photo without the
// wizard, for prompt iteration and batch checks.
func main() {
	imagePath := flag.String("image", "", "Path to the notice photo (jpeg, png or webp)")
	answersPath := flag.String("answers", "", "Optional JSON file of wizard answers in wire form")
	outputPath := flag.String("output", "", "Path to write the case record JSON (defaults to stdout)")
	flag.Parse()

	if *imagePath == "" {
		log.Fatal("missing required -image")
	}

	svc, err := analyzer.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("read image: %v", err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(*imagePath))
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	answers := casefile.Answers{}
	if *answersPath != "" {
		blob, err := os.ReadFile(*answersPath)
		if err != nil {
			log.Fatalf("read answers: %v", err)
		}
		var wire map[string]string
		if err := json.Unmarshal(blob, &wire); err != nil {
			log.Fatalf("decode answers JSON: %v", err)
		}
		answers = casefile.AnswersFromWire(wire)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rec := casefile.NewCaseRecord()
	rec.Answers = answers

	facts, err := svc.Extract(ctx, casefile.NoticeImage{Data: data, MediaType: mediaType})
	if err != nil {
		log.Fatalf("extract: %v", err)
	}
	rec.Notice = facts
	log.Printf("extracted %s notice (stage=%s, confidence=%.2f)",
		facts.NoticeType, facts.ClassifiedStage, facts.ExtractionConfidence)

	// Private debt cases skip the strategy pass, matching the wizard flow.
	if !analyzer.IsPrivateDebt(facts, answers) {
		strategy, err := svc.Strategize(ctx, facts, answers)
		if err != nil {
			log.Fatalf("strategize: %v", err)
		}
		rec.Strategy = strategy
	}

	letter, err := svc.Draft(ctx, facts, answers)
	if err != nil {
		log.Fatalf("draft: %v", err)
	}
	rec.Letter = letter
	log.Printf("drafted %s (%s)", letter.DraftType, letter.VerificationStatus)

	blob, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("encode record: %v", err)
	}
	if *outputPath == "" {
		fmt.Println(string(blob))
		return
	}
	if err := os.WriteFile(*outputPath, blob, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
}
