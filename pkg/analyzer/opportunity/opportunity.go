// Package opportunity finds pairs of methods in different classes that are
// candidates for extraction into a common superclass.
package opportunity

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/panbanda/hoist/pkg/analyzer"
	"github.com/panbanda/hoist/pkg/config"
	"github.com/panbanda/hoist/pkg/models"
	"github.com/panbanda/hoist/pkg/similarity"
	"github.com/sourcegraph/conc/pool"
)

// Detector flags method pairs that share a signature and whose names and
// bodies are near-identical. A Detector is safe for concurrent use.
type Detector struct {
	config  Config
	workers int
	logger  *slog.Logger
	err     error

	names *similarity.Shingler
	body  *similarity.Shingler // nil when the window is chosen per pair
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithThreshold sets both the name and body similarity thresholds.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.config.NameThreshold = threshold
		d.config.BodyThreshold = threshold
	}
}

// WithNameThreshold sets the minimum name similarity.
func WithNameThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.config.NameThreshold = threshold
	}
}

// WithBodyThreshold sets the minimum body similarity.
func WithBodyThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.config.BodyThreshold = threshold
	}
}

// WithNameWindow sets the shingle length used for method names.
func WithNameWindow(window int) Option {
	return func(d *Detector) {
		d.config.NameWindow = window
	}
}

// WithBodyWindow fixes the shingle length used for bodies.
// AutoWindow restores the per-pair estimate.
func WithBodyWindow(window int) Option {
	return func(d *Detector) {
		d.config.BodyWindow = window
	}
}

// WithNormalizeDescriptors toggles whitespace-insensitive comparison of
// return and parameter types.
func WithNormalizeDescriptors(normalize bool) Option {
	return func(d *Detector) {
		d.config.NormalizeDescriptors = normalize
	}
}

// WithWorkers bounds the number of class pairs compared concurrently.
// Values <= 0 use NumCPU.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		d.workers = n
	}
}

// WithLogger sets the logger used for per-pair diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithConfig applies the similarity section of a loaded configuration.
func WithConfig(cfg config.SimilarityConfig) Option {
	return func(d *Detector) {
		window, err := cfg.BodyWindowSize()
		if err != nil {
			d.err = err
			return
		}
		d.config = Config{
			NameThreshold:        cfg.NameThreshold,
			BodyThreshold:        cfg.BodyThreshold,
			NameWindow:           cfg.NameWindow,
			BodyWindow:           window,
			NormalizeDescriptors: cfg.NormalizeDescriptors,
		}
	}
}

// New creates a detector. Invalid settings are reported as a
// *similarity.ConfigurationError.
func New(opts ...Option) (*Detector, error) {
	d := &Detector{
		config: DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.err != nil {
		return nil, d.err
	}

	if err := similarity.ValidateThreshold("name_threshold", d.config.NameThreshold); err != nil {
		return nil, err
	}
	if err := similarity.ValidateThreshold("body_threshold", d.config.BodyThreshold); err != nil {
		return nil, err
	}
	if err := similarity.ValidateWindow("name_window", d.config.NameWindow); err != nil {
		return nil, err
	}
	if d.config.BodyWindow != AutoWindow {
		if err := similarity.ValidateWindow("body_window", d.config.BodyWindow); err != nil {
			return nil, err
		}
		d.body, _ = similarity.NewShingler(d.config.BodyWindow)
	}
	d.names, _ = similarity.NewShingler(d.config.NameWindow)

	if d.workers <= 0 {
		d.workers = runtime.NumCPU()
	}
	return d, nil
}

// Config returns the effective settings.
func (d *Detector) Config() Config {
	return d.config
}

// Detect compares every method of classes[i] with every method of
// classes[j] for i < j. Opportunities are returned in that enumeration
// order regardless of how many workers ran.
//
// A *analyzer.Tracker carried by ctx is ticked once per class pair.
func (d *Detector) Detect(ctx context.Context, classes []*models.ClassUnit) ([]models.Opportunity, error) {
	n := len(classes)
	pairs := n * (n - 1) / 2
	if pairs == 0 {
		return nil, nil
	}

	tracker := analyzer.TrackerFromContext(ctx)
	tracker.Grow(pairs)

	// One slot per class pair keeps the merge lock-free and ordered.
	slots := make([][]models.Opportunity, pairs)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(d.workers)
	slot := 0
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			idx, a, b := slot, classes[i], classes[j]
			p.Go(func(ctx context.Context) error {
				found, err := d.compareClasses(ctx, a, b)
				if err != nil {
					return err
				}
				slots[idx] = found
				tracker.Tick(a.Name + " <-> " + b.Name)
				return nil
			})
			slot++
		}
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var total int
	for _, s := range slots {
		total += len(s)
	}
	result := make([]models.Opportunity, 0, total)
	for _, s := range slots {
		result = append(result, s...)
	}
	return result, nil
}

func (d *Detector) compareClasses(ctx context.Context, a, b *models.ClassUnit) ([]models.Opportunity, error) {
	var found []models.Opportunity
	debug := d.logger.Enabled(ctx, slog.LevelDebug)

	for _, m := range a.Methods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, o := range b.Methods {
			eval := d.Evaluate(m, o)
			if debug {
				d.logger.LogAttrs(ctx, slog.LevelDebug, "compared methods",
					slog.String("class_a", a.Name),
					slog.String("method_a", m.Name),
					slog.String("class_b", b.Name),
					slog.String("method_b", o.Name),
					slog.Any("result", eval),
				)
			}
			if !eval.Flagged() {
				continue
			}
			found = append(found, models.Opportunity{
				A:              models.Occurrence{Class: a, Method: m},
				B:              models.Occurrence{Class: b, Method: o},
				NameSimilarity: eval.NameSimilarity,
				BodySimilarity: eval.BodySimilarity,
				BodyWindow:     eval.BodyWindow,
			})
		}
	}
	return found, nil
}

// Evaluate applies the four criteria to one pair of declarations. The cheap
// structural checks run first; once one fails the rest are skipped.
func (d *Detector) Evaluate(a, b models.Declaration) Evaluation {
	eval := Evaluation{ReturnType: Skip, Parameters: Skip, Name: Skip, Body: Skip}

	eval.ReturnType = outcome(d.descriptor(a.ResultType()) == d.descriptor(b.ResultType()))
	if eval.ReturnType != Pass {
		return eval
	}
	eval.Parameters = outcome(d.sameParameters(a.Params(), b.Params()))
	if eval.Parameters != Pass {
		return eval
	}

	eval.NameSimilarity = d.names.Similarity(a.Identifier(), b.Identifier())
	eval.Name = outcome(eval.NameSimilarity >= d.config.NameThreshold)
	if eval.Name != Pass {
		return eval
	}

	bodyA, bodyB := a.BodyText(), b.BodyText()
	shingler := d.body
	if shingler == nil {
		// AverageLineLength never returns less than 1.
		shingler, _ = similarity.NewShingler(similarity.AverageLineLength(bodyA, bodyB))
	}
	eval.BodyWindow = shingler.Window()
	if bodyA == bodyB {
		eval.BodySimilarity = 1
	} else {
		eval.BodySimilarity = shingler.Similarity(bodyA, bodyB)
	}
	eval.Body = outcome(eval.BodySimilarity >= d.config.BodyThreshold)
	return eval
}

// sameParameters compares whole descriptors, so modifiers such as ref or
// params and default values take part alongside type and name.
func (d *Detector) sameParameters(a, b []models.Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || d.descriptor(a[i].String()) != d.descriptor(b[i].String()) {
			return false
		}
	}
	return true
}

func (d *Detector) descriptor(s string) string {
	if d.config.NormalizeDescriptors {
		return models.NormalizeDescriptor(s)
	}
	return s
}
