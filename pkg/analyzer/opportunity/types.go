package opportunity

import "log/slog"

// AutoWindow selects the body window per pair from the average line length
// of the two bodies.
const AutoWindow = 0

// Config holds detector settings.
type Config struct {
	NameThreshold        float64
	BodyThreshold        float64
	NameWindow           int
	BodyWindow           int // AutoWindow or a fixed shingle length
	NormalizeDescriptors bool
}

// DefaultConfig returns the default detector settings.
func DefaultConfig() Config {
	return Config{
		NameThreshold:        0.8,
		BodyThreshold:        0.8,
		NameWindow:           3,
		BodyWindow:           AutoWindow,
		NormalizeDescriptors: true,
	}
}

// Outcome is the result of one criterion for one method pair.
type Outcome string

const (
	Pass Outcome = "pass"
	Fail Outcome = "fail"
	Skip Outcome = "skip" // Not evaluated; an earlier criterion failed
)

// Evaluation records how a method pair fared against each criterion.
type Evaluation struct {
	ReturnType     Outcome
	Parameters     Outcome
	Name           Outcome
	Body           Outcome
	NameSimilarity float64
	BodySimilarity float64
	BodyWindow     int
}

// Flagged reports whether every criterion passed.
func (e Evaluation) Flagged() bool {
	return e.ReturnType == Pass && e.Parameters == Pass && e.Name == Pass && e.Body == Pass
}

// LogValue implements slog.LogValuer.
func (e Evaluation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("return_type", string(e.ReturnType)),
		slog.String("params", string(e.Parameters)),
		slog.String("name", string(e.Name)),
		slog.String("body", string(e.Body)),
		slog.Float64("name_sim", e.NameSimilarity),
		slog.Float64("body_sim", e.BodySimilarity),
		slog.Int("window", e.BodyWindow),
	)
}

func outcome(ok bool) Outcome {
	if ok {
		return Pass
	}
	return Fail
}
