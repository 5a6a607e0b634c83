package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/clawder/resonance/internal/config"
	"github.com/clawder/resonance/internal/logging"
	"github.com/clawder/resonance/internal/match"
	"github.com/clawder/resonance/internal/resonance"
	"github.com/clawder/resonance/internal/trigger"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	dbPath := flag.String("db", cfg.DBPath, "path to resonance.db")
	top := flag.Int("top", 20, "show the N highest-scoring agents")
	recalc := flag.Bool("recalc", false, "recalculate scores before listing")
	runs := flag.Int("runs", 0, "also show the N most recent recalculation runs")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	store, err := match.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := logging.EnsureSchema(store.DB()); err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RecalcTimeout)
	defer cancel()

	if *recalc {
		logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		runner := trigger.NewRunner(resonance.NewScorer(store, logger), store.DB(), logger, 0)
		if _, err := runner.Run(ctx, trigger.TriggerCLI); err != nil {
			fmt.Fprintf(os.Stderr, "recalculate: %v\n", err)
			os.Exit(1)
		}
	}

	if err := run(ctx, os.Stdout, store, *top, *runs, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region report

type scoreRow struct {
	AgentID   string  `json:"agent_id"`
	BotName   string  `json:"bot_name,omitempty"`
	Score     float64 `json:"resonance_score"`
	UpdatedAt string  `json:"updated_at"`
}

type runRow struct {
	RunID      string `json:"run_id"`
	Trigger    string `json:"trigger"`
	Agents     int    `json:"agents"`
	Reset      int    `json:"reset"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type report struct {
	Scores []scoreRow `json:"scores"`
	Runs   []runRow   `json:"runs,omitempty"`
}

func run(ctx context.Context, w io.Writer, store *match.Store, top, runs int, jsonOut bool) error {
	profiles, err := store.TopProfiles(ctx, top)
	if err != nil {
		return err
	}
	var rep report
	for _, p := range profiles {
		rep.Scores = append(rep.Scores, scoreRow{
			AgentID:   p.ID,
			BotName:   p.BotName,
			Score:     p.ResonanceScore,
			UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
		})
	}
	if runs > 0 {
		entries, err := logging.RecentRuns(ctx, store.DB(), runs)
		if err != nil {
			return err
		}
		for _, e := range entries {
			rep.Runs = append(rep.Runs, runRow{
				RunID:      e.RunID,
				Trigger:    e.Trigger,
				Agents:     e.Agents,
				Reset:      e.Reset,
				DurationMs: e.DurationMs,
				Error:      e.Error,
				CreatedAt:  e.CreatedAt.Format(time.RFC3339),
			})
		}
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printTable(w, rep)
	return nil
}

func printTable(w io.Writer, rep report) {
	if len(rep.Scores) == 0 {
		fmt.Fprintln(w, "no profiles found")
	} else {
		fmt.Fprintf(w, "%-4s  %-12s  %-20s  %10s  %s\n", "Rank", "Agent", "Name", "Resonance", "Updated")
		fmt.Fprintf(w, "%-4s+-%-12s+-%-20s+-%10s+-%s\n", "----", "------------", "--------------------", "----------", "--------------------")
		for i, r := range rep.Scores {
			fmt.Fprintf(w, "%-4d  %-12s  %-20s  %10.6f  %s\n", i+1, shortID(r.AgentID), truncate(r.BotName, 20), r.Score, r.UpdatedAt)
		}
	}

	if len(rep.Runs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nRecent runs:\n")
	for _, r := range rep.Runs {
		outcome := "ok"
		if r.Error != "" {
			outcome = "failed: " + r.Error
		}
		fmt.Fprintf(w, "  %s  %-9s  agents=%d reset=%d %dms  %s\n",
			r.CreatedAt, r.Trigger, r.Agents, r.Reset, r.DurationMs, outcome)
	}
}

// #endregion report

// #region helpers

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// #endregion helpers
