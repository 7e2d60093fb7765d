// loopctl is the operator CLI: decide, ingest, scores, replay.
//
// Usage:
//
//	loopctl decide  -f <activation-input.json> [-registry <overrides.yaml>]
//	loopctl ingest  -db <path> -indicator <key> -value <v> [-ts <rfc3339>] [-source <id>]
//	loopctl scores  -db <path> -loop <id> -window <7d|14d|28d|90d> [-asof <rfc3339>]
//	loopctl replay  -f <fixture.json> [-registry <overrides.yaml>]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/api"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/engine"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/obstore"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/replay"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/tasks"
)

// #region main
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	sub := os.Args[1]
	args := os.Args[2:]
	switch sub {
	case "decide":
		runDecide(args)
	case "ingest":
		runIngest(args)
	case "scores":
		runScores(args)
	case "replay":
		runReplay(args)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: loopctl <decide|ingest|scores|replay> [options]\n")
	fmt.Fprintf(os.Stderr, "  loopctl decide  -f <activation-input.json> [-registry <overrides.yaml>]\n")
	fmt.Fprintf(os.Stderr, "  loopctl ingest  -db <path> -indicator <key> -value <v> [-ts <rfc3339>] [-source <id>]\n")
	fmt.Fprintf(os.Stderr, "  loopctl scores  -db <path> -loop <id> -window <7d|14d|28d|90d> [-asof <rfc3339>]\n")
	fmt.Fprintf(os.Stderr, "  loopctl replay  -f <fixture.json> [-registry <overrides.yaml>]\n")
}

// #endregion main

// #region decide

func runDecide(args []string) {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	file := fs.String("f", "", "activation input JSON file")
	regPath := fs.String("registry", "", "registry overrides YAML")
	fs.Parse(args)
	if *file == "" {
		fatalf("decide: -f is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fatalf("read input: %v", err)
	}
	var in api.ActivationInput
	if err := json.Unmarshal(data, &in); err != nil {
		fatalf("parse input: %v", err)
	}
	ls, readiness, hints, now, err := api.ParseInput(in)
	if err != nil {
		fatalf("invalid input: %v", err)
	}

	l := ladder.New(ladder.DefaultConfig(), loadRegistry(*regPath))
	decision := l.Decide(ls, readiness, hints, now)
	printJSON(api.FromDecision(decision))
}

// #endregion decide

// #region ingest

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dbPath := fs.String("db", "loopcore.db", "database path")
	indicator := fs.String("indicator", "", "indicator key")
	value := fs.Float64("value", 0, "observed value")
	tsStr := fs.String("ts", "", "observation timestamp (default: now)")
	source := fs.String("source", "", "source id")
	fs.Parse(args)
	if *indicator == "" {
		fatalf("ingest: -indicator is required")
	}

	ts := time.Now().UTC()
	if *tsStr != "" {
		var err error
		ts, err = time.Parse(time.RFC3339, *tsStr)
		if err != nil {
			fatalf("invalid -ts: %v", err)
		}
	}

	eng := openEngine(*dbPath)
	obs, err := eng.Ingest(obstore.RawObservation{
		SourceID:     *source,
		IndicatorKey: *indicator,
		Timestamp:    ts,
		Value:        *value,
	})
	if err != nil {
		fatalf("ingest: %v", err)
	}
	fmt.Printf("%s loop=%s status=%s band_pos=%.4f smoothed=%.4f\n",
		obs.IndicatorKey, obs.LoopID, obs.Status, obs.BandPos, obs.Smoothed)
}

// #endregion ingest

// #region scores

func runScores(args []string) {
	fs := flag.NewFlagSet("scores", flag.ExitOnError)
	dbPath := fs.String("db", "loopcore.db", "database path")
	loopID := fs.String("loop", "", "loop id")
	windowStr := fs.String("window", "28d", "trailing window")
	asOfStr := fs.String("asof", "", "as-of timestamp (default: now)")
	fs.Parse(args)
	if *loopID == "" {
		fatalf("scores: -loop is required")
	}
	window, err := scores.ParseWindow(*windowStr)
	if err != nil {
		fatalf("%v", err)
	}
	asOf := time.Now().UTC()
	if *asOfStr != "" {
		asOf, err = time.Parse(time.RFC3339, *asOfStr)
		if err != nil {
			fatalf("invalid -asof: %v", err)
		}
	}

	eng := openEngine(*dbPath)
	ls, err := eng.Scores(*loopID, window, asOf)
	if err != nil {
		fatalf("scores: %v", err)
	}
	printJSON(map[string]any{
		"loopId":      ls.LoopID,
		"window":      string(ls.Window),
		"severity":    ls.Severity,
		"persistence": ls.Persistence,
		"dispersion":  ls.Dispersion,
		"hubLoad":     ls.HubLoad,
		"meta": map[string]any{
			"windowStart":       ls.Meta.WindowStart.Format(time.RFC3339),
			"totalIndicators":   ls.Meta.TotalIndicators,
			"outsideIndicators": ls.Meta.OutsideIndicators,
			"totalDays":         ls.Meta.TotalDays,
			"outsideDays":       ls.Meta.OutsideDays,
		},
	})
}

// #endregion scores

// #region replay

func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	file := fs.String("f", "", "fixture JSON file")
	regPath := fs.String("registry", "", "registry overrides YAML")
	fs.Parse(args)
	if *file == "" {
		fatalf("replay: -f is required")
	}

	f, err := replay.LoadFixture(*file)
	if err != nil {
		fatalf("%v", err)
	}
	l := ladder.New(ladder.DefaultConfig(), loadRegistry(*regPath))
	report, err := replay.Run(f, l)
	if err != nil {
		fatalf("replay: %v", err)
	}

	for _, r := range report.Results {
		mark := "PASS"
		if !r.Passed {
			mark = "FAIL"
		}
		fmt.Printf("[%s] %s\n", mark, r.Name)
		if r.Mismatch != "" {
			fmt.Printf("       %s\n", r.Mismatch)
		}
	}
	fmt.Printf("%d/%d passed\n", report.Passed, report.Total)
	if !report.OK() {
		os.Exit(1)
	}
}

// #endregion replay

// #region helpers

func loadRegistry(path string) *registry.Registry {
	if path == "" {
		return registry.Default()
	}
	reg, err := registry.LoadOverrides(path)
	if err != nil {
		fatalf("%v", err)
	}
	return reg
}

func openEngine(dbPath string) *engine.Engine {
	store, err := obstore.NewStore(dbPath)
	if err != nil {
		fatalf("open store: %v", err)
	}
	taskStore, err := tasks.NewStoreWithDB(store.DB())
	if err != nil {
		fatalf("open task store: %v", err)
	}
	l := ladder.New(ladder.DefaultConfig(), registry.Default())
	eng, err := engine.New(store, taskStore, l, engine.DefaultConfig(), nil)
	if err != nil {
		fatalf("build engine: %v", err)
	}
	return eng
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// #endregion helpers
