package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/panbanda/hoist/internal/cache"
	"github.com/panbanda/hoist/internal/codegen"
	"github.com/panbanda/hoist/internal/output"
	"github.com/panbanda/hoist/internal/progress"
	"github.com/panbanda/hoist/internal/remote"
	"github.com/panbanda/hoist/internal/report"
	"github.com/panbanda/hoist/internal/service/analysis"
	"github.com/panbanda/hoist/pkg/analyzer"
	"github.com/panbanda/hoist/pkg/config"
	"github.com/panbanda/hoist/pkg/watch"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze [path...]",
	Aliases: []string{"a"},
	Short:   "Find methods that can be pulled up into a common superclass",
	Long: `Scans the given paths (default: current directory), compares the methods of
every pair of classes and reports near-duplicate methods grouped into
extract-superclass suggestions.

Examples:
  hoist analyze src/                      # Text report
  hoist analyze -f json -o report.json .  # JSON report to a file
  hoist analyze --ref main .              # Analyze the main branch
  hoist analyze --generate --gen-dir out  # Also write skeleton sources
  hoist analyze owner/repo@v1.2.0         # Clone and analyze a GitHub repository
  hoist analyze --watch src/              # Re-run whenever a source file changes`,
	RunE: runAnalyze,
}

func init() {
	defaults := config.DefaultConfig()

	analyzeCmd.Flags().Float64("threshold", defaults.Similarity.Threshold, "Minimum name and body similarity (0.0-1.0)")
	analyzeCmd.Flags().Float64("name-threshold", defaults.Similarity.NameThreshold, "Minimum method-name similarity")
	analyzeCmd.Flags().Float64("body-threshold", defaults.Similarity.BodyThreshold, "Minimum method-body similarity")
	analyzeCmd.Flags().Int("name-window", defaults.Similarity.NameWindow, "Shingle size for method names")
	analyzeCmd.Flags().String("body-window", defaults.Similarity.BodyWindow, `Shingle size for method bodies ("auto" or a positive integer)`)
	analyzeCmd.Flags().String("cluster-mode", defaults.Clustering.Mode, "Grouping: first_seen or connected")
	analyzeCmd.Flags().StringP("format", "f", defaults.Output.Format, "Output format: text, json, markdown, toon")
	analyzeCmd.Flags().StringP("output", "o", "", "Write output to file")
	analyzeCmd.Flags().String("ref", "", "Git ref (branch, tag, SHA) to analyze instead of the working tree")
	analyzeCmd.Flags().Bool("generate", false, "Write superclass and subclass skeleton sources")
	analyzeCmd.Flags().String("gen-dir", "", `Directory for generated sources (default: "generated" beside each class)`)
	analyzeCmd.Flags().Int("workers", 0, "Parallel workers (0 = number of CPUs)")
	analyzeCmd.Flags().Bool("no-cache", false, "Disable the parse cache")
	analyzeCmd.Flags().Bool("no-color", false, "Disable colored output")
	analyzeCmd.Flags().Bool("no-progress", false, "Hide the progress bar")
	analyzeCmd.Flags().Bool("shallow", false, "Shallow clone remote repositories (no --ref or @ref)")
	analyzeCmd.Flags().Bool("watch", false, "Watch for changes and re-run the analysis")
	analyzeCmd.Flags().Duration("debounce", 500*time.Millisecond, "Quiet period before a watch re-run")

	rootCmd.AddCommand(analyzeCmd)
}

// applyFlags overrides config values with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		v, _ := flags.GetFloat64("threshold")
		cfg.Similarity.Threshold = v
		cfg.Similarity.NameThreshold = v
		cfg.Similarity.BodyThreshold = v
	}
	if flags.Changed("name-threshold") {
		cfg.Similarity.NameThreshold, _ = flags.GetFloat64("name-threshold")
	}
	if flags.Changed("body-threshold") {
		cfg.Similarity.BodyThreshold, _ = flags.GetFloat64("body-threshold")
	}
	if flags.Changed("name-window") {
		cfg.Similarity.NameWindow, _ = flags.GetInt("name-window")
	}
	if flags.Changed("body-window") {
		cfg.Similarity.BodyWindow, _ = flags.GetString("body-window")
	}
	if flags.Changed("cluster-mode") {
		cfg.Clustering.Mode, _ = flags.GetString("cluster-mode")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("generate") {
		cfg.Generate.Enabled, _ = flags.GetBool("generate")
	}
	if flags.Changed("gen-dir") {
		cfg.Generate.Dir, _ = flags.GetString("gen-dir")
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		cfg.Output.Color = false
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loaded.Config
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if loaded.Source != "" {
		logger.Debug("config loaded", "path", loaded.Source)
	}

	paths := getPaths(args)
	ref, _ := cmd.Flags().GetString("ref")
	watching, _ := cmd.Flags().GetBool("watch")

	src, err := remote.Parse(paths[0])
	if err != nil {
		return err
	}
	if src != nil {
		if watching {
			return errors.New("--watch cannot be used with a remote repository")
		}
		if len(paths) > 1 {
			return errors.New("a remote repository must be the only path")
		}
		if ref != "" {
			src.Ref = ref
		}
		shallow, _ := cmd.Flags().GetBool("shallow")
		if shallow && src.Ref != "" {
			return fmt.Errorf("--shallow cannot be used with ref %q", src.Ref)
		}

		output.NewStatus(cmd.ErrOrStderr()).Info("Cloning %s...", src.URL)
		if err := src.Clone(cmd.Context(), progressWriter(cmd), shallow); err != nil {
			return err
		}
		defer src.Cleanup()

		ref, err = src.Revision()
		if err != nil {
			return err
		}
		paths = []string{src.CloneDir}
	}

	if watching {
		return watchAnalyze(cmd, cfg, paths, ref)
	}
	return analyzeOnce(cmd.Context(), cmd, cfg, paths, ref)
}

// progressWriter returns where clone progress goes, or nil when hidden.
func progressWriter(cmd *cobra.Command) io.Writer {
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); noProgress {
		return nil
	}
	return cmd.ErrOrStderr()
}

// watchAnalyze runs the analysis, then again after every batch of changes
// until the command context is cancelled.
func watchAnalyze(cmd *cobra.Command, cfg *config.Config, paths []string, ref string) error {
	if ref != "" {
		return errors.New("--watch cannot be used with --ref")
	}
	if len(paths) != 1 {
		return errors.New("--watch accepts a single directory")
	}
	if info, err := os.Stat(paths[0]); err != nil || !info.IsDir() {
		return fmt.Errorf("--watch requires a directory: %s", paths[0])
	}

	if err := analyzeOnce(cmd.Context(), cmd, cfg, paths, ""); err != nil {
		return err
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	w, err := watch.NewWatcher(paths[0], cfg, debounce)
	if err != nil {
		return err
	}
	defer w.Stop()
	w.SetLogger(logger)
	w.SetCallback(func(ctx context.Context, changed []string) {
		output.NewStatus(cmd.ErrOrStderr()).Info("\n%d file(s) changed, re-analyzing...", len(changed))
		if err := analyzeOnce(ctx, cmd, cfg, paths, ""); err != nil {
			output.NewStatus(cmd.ErrOrStderr()).Error("Analysis failed: %v", err)
		}
	})

	output.NewStatus(cmd.ErrOrStderr()).Info("Watching %s (Ctrl+C to stop)", paths[0])
	if err := w.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// analyzeOnce runs one analysis and writes the report and any generated
// sources.
func analyzeOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, paths []string, ref string) error {
	c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		logger.Warn("parse cache disabled", "error", err)
		c, _ = cache.New("", 0, false)
	}
	svc := analysis.New(
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
		analysis.WithCache(c),
	)

	var bar *progress.Bar
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		bar = progress.NewBarWriter("Analyzing", cmd.ErrOrStderr())
		ctx = analyzer.WithTracker(ctx, bar.Tracker())
	}

	result, err := svc.Analyze(ctx, analysis.Options{Paths: paths, Ref: ref})
	if bar != nil {
		if err != nil {
			bar.FinishError(err)
		} else {
			bar.Finish()
		}
	}
	if errors.Is(err, analysis.ErrNoFiles) {
		output.NewStatus(cmd.ErrOrStderr()).Warning("No source files found")
		return nil
	}
	if err != nil {
		return err
	}
	if n := len(result.Skipped); n > 0 {
		logger.Warn("some files were skipped", "count", n)
	}

	gen := codegen.New(cfg.Generate.Dir)
	plans, err := gen.Plans(result.Groups)
	if err != nil {
		logger.Warn("no refactoring suggestions", "error", err)
	}

	outputFile, _ := cmd.Flags().GetString("output")
	var formatter *output.Formatter
	if outputFile == "" {
		formatter = output.NewWriterFormatter(output.ParseFormat(cfg.Output.Format), cmd.OutOrStdout(), cfg.Output.Color)
	} else {
		formatter, err = output.NewFormatter(output.ParseFormat(cfg.Output.Format), outputFile, cfg.Output.Color)
		if err != nil {
			return err
		}
	}
	defer formatter.Close()

	if err := formatter.Output(report.New(result.Analysis, result.Groups, plans)); err != nil {
		return err
	}

	if cfg.Generate.Enabled && plans != nil {
		written, err := codegen.Write(plans)
		if err != nil {
			return err
		}
		for _, path := range written {
			logger.Info("generated", "path", path)
		}
		output.NewStatus(cmd.ErrOrStderr()).Success("Wrote %d files", len(written))
	}
	if outputFile != "" {
		output.NewStatus(cmd.ErrOrStderr()).Success("Report written to %s", outputFile)
	}
	return nil
}
