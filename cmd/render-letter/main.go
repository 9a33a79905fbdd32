package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/defensuk/defens/internal/casefile"
	"github.com/defensuk/defens/internal/letterpdf"
)

// render-letter turns a saved case record JSON into the exported PDF,
// using the same Chromium pipeline as the server.
func main() {
	inputPath := flag.String("input", "", "Path to a case record JSON (letter-pipeline output)")
	outputPath := flag.String("output", "letter.pdf", "Path to write the PDF")
	sar := flag.Bool("sar", false, "Render the subject access request letter instead")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var rec casefile.CaseRecord
	if err := json.Unmarshal(in, &rec); err != nil {
		log.Fatalf("decode case record: %v", err)
	}
	if rec.Letter == nil {
		log.Fatal("case record has no drafted letter")
	}
	if *sar && rec.Letter.SARLetter == "" {
		log.Fatal("case record has no subject access request letter")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	r := letterpdf.NewRenderer()
	var pdf []byte
	if *sar {
		pdf, err = r.RenderSAR(ctx, &rec)
	} else {
		pdf, err = r.RenderLetter(ctx, &rec)
	}
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	if err := os.WriteFile(*outputPath, pdf, 0o644); err != nil {
		log.Fatalf("write pdf: %v", err)
	}
	log.Printf("wrote %s (%d bytes)", *outputPath, len(pdf))
}
