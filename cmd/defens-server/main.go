package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/defensuk/defens/internal/analyzer"
	"github.com/defensuk/defens/internal/letterpdf"
	"github.com/defensuk/defens/internal/server"
	"github.com/defensuk/defens/internal/store"
	"github.com/defensuk/defens/internal/telemetry"
	"github.com/defensuk/defens/internal/wizard"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "HTTP listen address")
		dbPath       = flag.String("db", "./defens.db", "Path to the sqlite case database")
		snapshotPath = flag.String("snapshot", "./sessions.json", "Path to the session snapshot file")
		checkoutURL  = flag.String("checkout-url", "", "External payment checkout page")
		returnPath   = flag.String("return-path", "/", "Path the payment return redirects to")
		otlpEndpoint = flag.String("otlp-endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP trace collector endpoint (empty disables tracing)")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "defens-server", *otlpEndpoint)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	// A missing API key is not fatal: sessions surface a config-error screen
	// instead, so the service still answers health checks and payment returns.
	var wizAnalyzer wizard.Analyzer
	svc, err := analyzer.NewServiceFromEnv()
	switch {
	case err == nil:
		wizAnalyzer = svc
	case errors.Is(err, analyzer.ErrNotConfigured):
		log.Printf("warning: %v, sessions will report a configuration error", err)
	default:
		log.Fatalf("analyzer: %v", err)
	}

	cases, err := store.NewCaseStore(*dbPath)
	if err != nil {
		log.Fatalf("open case store: %v", err)
	}
	defer cases.Close()

	sessions := server.NewSessionStore(wizAnalyzer)
	snap, err := store.LoadSnapshot(*snapshotPath)
	if err != nil {
		log.Fatalf("load session snapshot: %v", err)
	}
	sessions.Restore(snap)
	if n := len(snap.Sessions); n > 0 {
		log.Printf("restored %d sessions from %s", n, *snapshotPath)
	}

	cfg := server.Config{
		CheckoutURL:   *checkoutURL,
		ReturnPath:    *returnPath,
		WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
	}
	handler := server.NewServer(sessions, cases, letterpdf.NewRenderer(), cfg)

	log.Printf("defens listening on %s (db=%s)", *addr, *dbPath)
	srv := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}

	if err := store.SaveSnapshot(*snapshotPath, sessions.Snapshot()); err != nil {
		log.Printf("save session snapshot: %v", err)
	} else {
		log.Printf("session snapshot written to %s", *snapshotPath)
	}
}
