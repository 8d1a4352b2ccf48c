// Package analysis runs the superclass-opportunity pipeline: scan, parse,
// detect, cluster and summarize.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/panbanda/hoist/internal/cache"
	"github.com/panbanda/hoist/internal/fileproc"
	"github.com/panbanda/hoist/internal/scanner"
	"github.com/panbanda/hoist/internal/vcs"
	"github.com/panbanda/hoist/pkg/analyzer/cluster"
	"github.com/panbanda/hoist/pkg/analyzer/opportunity"
	"github.com/panbanda/hoist/pkg/config"
	"github.com/panbanda/hoist/pkg/models"
	"github.com/panbanda/hoist/pkg/parser"
	"github.com/panbanda/hoist/pkg/source"
)

// ErrNoFiles is returned when the given paths contain no supported source.
var ErrNoFiles = errors.New("no source files found")

// ErrFileTooLarge marks a file skipped by the size limit.
var ErrFileTooLarge = errors.New("file exceeds max_file_size")

// Service orchestrates superclass analysis.
type Service struct {
	config *config.Config
	logger *slog.Logger
	cache  *cache.Cache
	opener func(path, ref string) (vcs.Tree, error)
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache sets the parse cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithTreeOpener replaces vcs.OpenTree (for testing).
func WithTreeOpener(open func(path, ref string) (vcs.Tree, error)) Option {
	return func(s *Service) {
		s.opener = open
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
		opener: vcs.OpenTree,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache, _ = cache.New("", 0, false)
	}
	return s
}

// Options selects what to analyze.
type Options struct {
	Paths []string
	// Ref analyzes a git revision instead of the working tree.
	Ref string
}

// Result holds the live object graph of one run alongside its plain form.
type Result struct {
	Analysis      *models.SuperclassAnalysis
	Classes       []*models.ClassUnit
	Opportunities []models.Opportunity
	Groups        []*models.RelationshipGroup
	Skipped       []fileproc.ProcessingError
}

// Analyze runs the full pipeline. A *analyzer.Tracker carried by ctx is
// ticked once per file and once per class pair.
func (s *Service) Analyze(ctx context.Context, opts Options) (*Result, error) {
	detector, err := opportunity.New(
		opportunity.WithConfig(s.config.Similarity),
		opportunity.WithWorkers(s.config.Analysis.Workers),
		opportunity.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	clusterer, err := cluster.New(cluster.Mode(s.config.Clustering.Mode))
	if err != nil {
		return nil, err
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	src, files, oversized, err := s.resolve(paths, opts.Ref)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	s.logger.Info("scanned", "source", src.Describe(), "files", len(files), "oversized", oversized)
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		for lang, group := range scanner.GroupByLanguage(files) {
			s.logger.Debug("language", "name", string(lang), "files", len(group))
		}
	}

	classes, skipped, err := s.extract(ctx, src, files)
	if err != nil {
		return nil, err
	}

	opps, err := detector.Detect(ctx, classes)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	groups := clusterer.Cluster(opps)
	s.logger.Info("detected", "classes", len(classes), "opportunities", len(opps), "groups", len(groups))

	result := &Result{
		Classes:       classes,
		Opportunities: opps,
		Groups:        groups,
		Skipped:       skipped,
		Analysis: &models.SuperclassAnalysis{
			Opportunities: make([]models.OpportunityRecord, len(opps)),
			Groups:        make([]models.GroupRecord, len(groups)),
			Threshold:     s.config.Similarity.Threshold,
			ClusterMode:   string(clusterer.Mode()),
			Source:        src.Describe(),
		},
	}
	for i, o := range opps {
		result.Analysis.Opportunities[i] = o.Record()
	}
	for i, g := range groups {
		result.Analysis.Groups[i] = g.Record(i + 1)
	}
	result.Analysis.Summary = summarize(classes, opps, groups)
	result.Analysis.Summary.FilesScanned = len(files)
	result.Analysis.Summary.FilesSkipped = len(skipped) + oversized
	return result, nil
}

// resolve picks the content source and lists the files to read.
func (s *Service) resolve(paths []string, ref string) (source.ContentSource, []string, int, error) {
	sc := scanner.NewScanner(s.config)
	if ref == "" {
		files, err := sc.ScanPaths(paths)
		if err != nil {
			return nil, nil, 0, err
		}
		files, oversized := scanner.FilterBySize(files, s.config.Analysis.MaxFileSize)
		return source.NewFilesystem(), files, oversized, nil
	}

	tree, err := s.opener(paths[0], ref)
	if err != nil {
		return nil, nil, 0, err
	}
	src := source.NewRevision(tree)
	files, err := src.Select(paths, func(f string) bool {
		return sc.Accepts(f) && !s.config.ShouldExclude(f)
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return src, files, 0, nil
}

// extract parses every file in parallel and returns all classes in file
// order. Unreadable or unparsable files are logged and skipped.
func (s *Service) extract(ctx context.Context, src source.ContentSource, files []string) ([]*models.ClassUnit, []fileproc.ProcessingError, error) {
	var (
		errs     fileproc.ProcessingErrors
		hits     atomic.Int64
		maxBytes = s.config.Analysis.MaxFileSize
	)

	perFile, err := fileproc.MapFiles(ctx, files, s.config.Analysis.Workers,
		func(ctx context.Context, psr *parser.Parser, path string) ([]*models.ClassUnit, error) {
			content, err := src.Read(path)
			if err != nil {
				return nil, err
			}
			if maxBytes > 0 && int64(len(content)) > maxBytes {
				return nil, ErrFileTooLarge
			}
			if classes, ok := s.cache.Get(path, content); ok {
				hits.Add(1)
				return classes, nil
			}

			result, err := psr.Parse(ctx, content, parser.DetectLanguage(path), path)
			if err != nil {
				return nil, err
			}
			defer result.Close()

			classes := parser.ExtractClasses(result)
			if err := s.cache.Put(path, content, classes); err != nil {
				s.logger.Debug("cache write failed", "path", path, "error", err)
			}
			return classes, nil
		},
		func(path string, err error) {
			s.logger.Warn("skipping file", "path", path, "error", err)
			errs.Add(path, err)
		},
	)
	if err != nil {
		return nil, nil, err
	}

	var classes []*models.ClassUnit
	for _, cs := range perFile {
		classes = append(classes, cs...)
	}
	if s.cache.Enabled() {
		s.logger.Debug("parse cache", "hits", hits.Load(), "files", len(files))
	}

	skipped := slices.Clone(errs.Errors)
	slices.SortFunc(skipped, func(a, b fileproc.ProcessingError) int {
		return strings.Compare(a.Path, b.Path)
	})
	return classes, skipped, nil
}
