// Package main ingests item files from the command line.
//
// Usage:
//
//	ingest [config flags] [-into id] [-dry-run] file.json [file.json ...]
//
// Each file holds a payload in any shape the HTTP API accepts. "-" reads stdin.
// Items go to the -into exhibit, else the payload's exhibit, else -exhibit/EXHIBIT_ID.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/di"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/logger"
	"github.com/listenupapp/exhibit-server/internal/service"
)

func main() {
	into := flag.String("into", "", "Exhibit to ingest into, overriding the payload's exhibit")
	dryRun := flag.Bool("dry-run", false, "Print built documents without writing anything")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] file.json [file.json ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	injector := di.NewContainerWithConfig(cfg)
	if err := di.BootstrapIngest(injector); err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var failed bool
	for _, path := range flag.Args() {
		ok, err := run(ctx, injector, path, *into, cfg.Exhibit.ID, *dryRun)
		if err != nil {
			log.Error("ingest failed", "file", path, "error", err)
		}
		failed = failed || !ok || err != nil
	}

	stop()
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}
	if failed {
		os.Exit(1)
	}
}

// run ingests one file and prints its report. It reports false when any item failed.
func run(ctx context.Context, injector do.Injector, path, exhibit, fallback string, dryRun bool) (bool, error) {
	payload, err := readPayload(path)
	if err != nil {
		return false, err
	}

	target := exhibit
	if target == "" {
		target = payload.Exhibit
	}
	if target == "" {
		target = fallback
	}

	if dryRun {
		return true, printDocuments(ctx, injector, payload, target)
	}

	svc := do.MustInvoke[*service.IngestService](injector)
	payload.Exhibit = ""
	report, err := svc.IngestPayload(ctx, target, payload)
	if err != nil {
		return false, err
	}
	return report.Failed == 0, printJSON(report)
}

func printDocuments(ctx context.Context, injector do.Injector, payload *ingest.Payload, exhibit string) error {
	builder := do.MustInvoke[*ingest.Builder](injector).DryRun()
	for _, item := range payload.Items {
		if item == nil {
			continue
		}
		doc, delta, err := builder.Build(ctx, item, exhibit)
		if err != nil {
			return fmt.Errorf("build %s: %w", item.ID, err)
		}
		if err := printJSON(map[string]any{"document": doc, "sidecar": delta.Data}); err != nil {
			return err
		}
	}
	return nil
}

func readPayload(path string) (*ingest.Payload, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return ingest.DecodePayload(r)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
