package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"charging-robots/internal/compare"
	"charging-robots/internal/config"
	"charging-robots/internal/dispatch"
	"charging-robots/internal/model"
	"charging-robots/internal/sim"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "compare":
		cmdCompare(os.Args[2:])
	case "train":
		cmdTrain(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --scale small --policy hybrid_strategy --seed 42")
	fmt.Println("  cli compare --scales small,medium --out results/compare.csv")
	fmt.Println("  cli train --episodes 50 --out results/qtable.json")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run executes one simulation and prints the final statistics")
	fmt.Println("  - compare runs every policy per scale over the same arrivals and ranks them")
	fmt.Println("  - train runs repeated rl episodes, carrying the Q table across runs")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	scale := fs.String("scale", "", "Fleet scale: small, medium, large")
	policy := fs.String("policy", "", "Dispatch policy")
	seed := fs.Int64("seed", 0, "RNG seed (0 = config value)")
	horizon := fs.Int("horizon", 0, "Horizon in minutes (0 = config value)")
	logPath := fs.String("log", "", "Write the last event log lines to this file")
	verbose := fs.Bool("verbose", false, "Debug logging")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath, *scale, *policy, *seed, *horizon)

	s, err := sim.New(cfg)
	if err != nil {
		fatal(err)
	}
	s.SetLogger(newLogger(*verbose))
	if err := s.Setup(); err != nil {
		fatal(err)
	}
	stats, err := s.Run()
	if err != nil {
		fatal(err)
	}

	fmt.Printf("policy=%s scale=%s seed=%d horizon=%d\n", cfg.Policy, cfg.Scale, cfg.Seed, cfg.HorizonMinutes)
	fmt.Printf("completed=%d failed=%d completion=%.1f%%\n",
		stats.CompletedCount, stats.FailedCount, stats.CompletionRate)
	fmt.Printf("avg_wait=%.1fmin avg_charge=%.1fmin swaps=%d avg_util=%.2f\n",
		stats.AvgWaitingTime, stats.AvgChargingTime, stats.BatterySwaps, stats.AvgRobotUtilization)
	fmt.Printf("zones:%s\n", zoneSummary(stats.ZoneCoverage))

	if *logPath != "" {
		lines := s.EventLog(100)
		if err := writeLines(*logPath, lines); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %d log lines to %s\n", len(lines), *logPath)
	}
}

func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	scales := fs.String("scales", "small", "Comma-separated scales")
	policies := fs.String("policies", "", "Comma-separated policies (default: all)")
	seed := fs.Int64("seed", 0, "RNG seed (0 = config value)")
	horizon := fs.Int("horizon", 0, "Horizon in minutes (0 = config value)")
	outPath := fs.String("out", "", "Output CSV path")
	jsonPath := fs.String("json", "", "Output JSON path")
	verbose := fs.Bool("verbose", false, "Debug logging")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath, "", "", *seed, *horizon)

	results, err := compare.Run(cfg, splitList(*scales), splitList(*policies), newLogger(*verbose))
	if err != nil {
		fatal(err)
	}

	ranked := compare.RankByCompletion(results)
	fmt.Printf("%-4s %-8s %-24s %-10s %-8s %-10s %-10s %-6s\n",
		"rank", "scale", "policy", "completed", "failed", "rate%", "wait(min)", "swaps")
	for i, r := range ranked {
		fmt.Printf("%-4d %-8s %-24s %-10d %-8d %-10.1f %-10.1f %-6d\n",
			i+1, r.Scale, r.Policy,
			r.Stats.CompletedCount, r.Stats.FailedCount,
			r.Stats.CompletionRate, r.Stats.AvgWaitingTime, r.Stats.BatterySwaps)
	}

	best := compare.BestByScale(results)
	for _, scale := range sortedScales(best) {
		r := best[scale]
		fmt.Printf("best for %s: %s (%.1f%%)\n", scale, r.Policy, r.Stats.CompletionRate)
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			fatal(err)
		}
		if err := compare.WriteResultsCSV(*outPath, ranked); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %d rows to %s\n", len(ranked), *outPath)
	}
	if *jsonPath != "" {
		if err := os.MkdirAll(filepath.Dir(*jsonPath), 0o755); err != nil {
			fatal(err)
		}
		if err := compare.WriteResultsJSON(*jsonPath, ranked); err != nil {
			fatal(err)
		}
	}
}

func cmdTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	scale := fs.String("scale", "", "Fleet scale")
	episodes := fs.Int("episodes", 20, "Number of training episodes")
	seed := fs.Int64("seed", 0, "Base RNG seed (0 = config value)")
	horizon := fs.Int("horizon", 24*60, "Horizon per episode in minutes")
	outPath := fs.String("out", "", "Save the trained Q table to this file")
	inPath := fs.String("in", "", "Start from a previously saved Q table")
	verbose := fs.Bool("verbose", false, "Debug logging")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath, *scale, config.PolicyRL, *seed, *horizon)

	learner := dispatch.NewQLearning(rand.New(rand.NewSource(cfg.Seed)))
	if *inPath != "" {
		if err := learner.LoadTable(*inPath); err != nil {
			fatal(err)
		}
		fmt.Printf("resumed from %s: %d states, epsilon %.3f\n",
			*inPath, learner.StatesLearned(), learner.Epsilon())
	}

	log := newLogger(*verbose)
	var recent []float64
	for ep := 1; ep <= *episodes; ep++ {
		epCfg := *cfg
		// A fresh arrival schedule per episode, reproducible from the
		// base seed.
		epCfg.Seed = cfg.Seed + int64(ep)

		s, err := sim.NewWithPolicy(&epCfg, learner)
		if err != nil {
			fatal(err)
		}
		s.SetLogger(log)
		if err := s.Setup(); err != nil {
			fatal(err)
		}
		stats, err := s.Run()
		if err != nil {
			fatal(err)
		}
		reward := learner.EndEpisode()

		recent = append(recent, reward)
		if len(recent) > 5 {
			recent = recent[1:]
		}
		sum := 0.0
		for _, r := range recent {
			sum += r
		}

		fmt.Printf("episode %3d: reward=%9.1f recent5=%9.1f completion=%5.1f%% epsilon=%.3f states=%d\n",
			ep, reward, sum/float64(len(recent)), stats.CompletionRate,
			learner.Epsilon(), learner.StatesLearned())
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			fatal(err)
		}
		if err := learner.SaveTable(*outPath); err != nil {
			fatal(err)
		}
		fmt.Printf("saved Q table to %s\n", *outPath)
	}
}

func loadConfig(path, scale, policy string, seed int64, horizon int) *config.Config {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadUnchecked(path)
		if err != nil {
			fatal(err)
		}
	} else {
		cfg = config.Default()
	}
	if scale != "" {
		cfg.Scale = scale
		cfg.Fleet = config.FleetConfig{}
	}
	if policy != "" {
		cfg.Policy = policy
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if horizon > 0 {
		cfg.HorizonMinutes = horizon
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	return cfg
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func writeLines(path string, lines []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// zoneSummary renders the zone counts in the fixed zone order so runs
// with the same seed print identical lines.
func zoneSummary(counts map[string]int) string {
	var b strings.Builder
	for _, zone := range model.ZoneNames {
		fmt.Fprintf(&b, " %s=%d", zone, counts[zone])
	}
	return b.String()
}

func sortedScales(best map[string]compare.Result) []string {
	scales := make([]string, 0, len(best))
	for scale := range best {
		scales = append(scales, scale)
	}
	sort.Strings(scales)
	return scales
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
