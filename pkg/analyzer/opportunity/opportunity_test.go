package opportunity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/panbanda/hoist/pkg/analyzer"
	"github.com/panbanda/hoist/pkg/models"
	"github.com/panbanda/hoist/pkg/parser"
	"github.com/panbanda/hoist/pkg/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func method(ret, name, body string, params ...models.Parameter) *models.MethodSignature {
	return &models.MethodSignature{Name: name, ReturnType: ret, Parameters: params, Body: body}
}

func param(typ, name string) models.Parameter {
	return models.Parameter{Type: typ, Name: name}
}

func class(name string, methods ...*models.MethodSignature) *models.ClassUnit {
	return (&models.ClassUnit{Name: name, Path: name + ".cs", Language: "csharp", Methods: methods}).Link()
}

const greetBody = `{ return "Hi " + name; }`

func greet() *models.MethodSignature {
	return method("string", "Greet", greetBody, param("string", "name"))
}

func tick() *models.MethodSignature {
	return method("void", "Tick", "{\n    counter++;\n    Render();\n}")
}

func mustDetector(t *testing.T, opts ...Option) *Detector {
	t.Helper()
	d, err := New(opts...)
	require.NoError(t, err)
	return d
}

func TestDetect_GreetScenario(t *testing.T) {
	a := class("A", greet())
	b := class("B", greet())

	opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{a, b})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Same(t, a, opp.A.Class)
	assert.Same(t, b, opp.B.Class)
	assert.Same(t, a.Methods[0], opp.A.Method)
	assert.Same(t, b.Methods[0], opp.B.Method)
	assert.Equal(t, 1.0, opp.NameSimilarity)
	assert.Equal(t, 1.0, opp.BodySimilarity)
	assert.GreaterOrEqual(t, opp.BodyWindow, 1)
}

func TestDetect_ParameterNamesMustMatch(t *testing.T) {
	body := "{ return x + 1; }"
	a := class("A", method("int", "Sum", body, param("int", "x")))
	b := class("B", method("int", "Sum", body, param("int", "y")))

	opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{a, b})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetect_ParameterModifiersAndDefaults(t *testing.T) {
	body := "{ return x + 1; }"
	withText := func(text string) models.Parameter {
		p := param("int", "x")
		p.Text = text
		return p
	}
	plain := class("Plain", method("int", "Bump", body, withText("int x")))

	tests := []struct {
		name  string
		other models.Parameter
		want  int
	}{
		{"identical", withText("int x"), 1},
		{"ref modifier", withText("ref int x"), 0},
		{"out modifier", withText("out int x"), 0},
		{"default value", withText("int x = 5"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := class("Other", method("int", "Bump", body, tt.other))
			opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{plain, other})
			require.NoError(t, err)
			assert.Len(t, opps, tt.want)
		})
	}
}

func TestDetect_ParsedParameterModifiers(t *testing.T) {
	src := `public class Plain { public int Bump(int x) { return x + 1; } }
public class ByRef { public int Bump(ref int x) { return x + 1; } }
public class Defaulted { public int Bump(int x = 5) { return x + 1; } }
public class Twin { public int Bump(int x) { return x + 1; } }
`
	p := parser.New()
	defer p.Close()
	result, err := p.Parse(context.Background(), []byte(src), parser.LangCSharp, "Bump.cs")
	require.NoError(t, err)
	defer result.Close()

	classes := parser.ExtractClasses(result)
	require.Len(t, classes, 4)

	opps, err := mustDetector(t).Detect(context.Background(), classes)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Plain", opps[0].A.Class.Name)
	assert.Equal(t, "Twin", opps[0].B.Class.Name)
}

func TestDetect_TickOrderings(t *testing.T) {
	x := class("X", tick())
	y := class("Y", tick())

	for _, order := range [][]*models.ClassUnit{{x, y}, {y, x}} {
		t.Run(order[0].Name+order[1].Name, func(t *testing.T) {
			opps, err := mustDetector(t).Detect(context.Background(), order)
			require.NoError(t, err)
			require.Len(t, opps, 1)
			assert.Same(t, order[0], opps[0].A.Class)
			assert.Same(t, order[1], opps[0].B.Class)
		})
	}
}

func TestDetect_EnumerationOrder(t *testing.T) {
	a := class("A", tick(), greet())
	b := class("B", greet(), tick())
	c := class("C", tick())

	opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{a, b, c})
	require.NoError(t, err)

	var got []string
	for _, o := range opps {
		got = append(got, fmt.Sprintf("%s.%s-%s.%s", o.A.Class.Name, o.A.Method.Name, o.B.Class.Name, o.B.Method.Name))
	}
	assert.Equal(t, []string{
		"A.Tick-B.Tick",
		"A.Greet-B.Greet",
		"A.Tick-C.Tick",
		"B.Tick-C.Tick",
	}, got)
}

func TestDetect_NoSelfPairs(t *testing.T) {
	a := class("A", greet(), greet())

	opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{a})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetect_ThresholdIsInclusive(t *testing.T) {
	// With a window of one, "abcde" and "abcdf" share 4 of 5 characters.
	a := class("A", method("void", "abcde", "{}"))
	b := class("B", method("void", "abcdf", "{}"))
	classes := []*models.ClassUnit{a, b}

	opps, err := mustDetector(t, WithNameWindow(1), WithThreshold(0.8)).Detect(context.Background(), classes)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, 0.8, opps[0].NameSimilarity)

	opps, err = mustDetector(t, WithNameWindow(1), WithThreshold(0.81)).Detect(context.Background(), classes)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetect_IndependentThresholds(t *testing.T) {
	a := class("A", method("int", "Compute", "{ return a * b + c; }"))
	b := class("B", method("int", "Compute", "{ return q - r / s; }"))
	classes := []*models.ClassUnit{a, b}

	opps, err := mustDetector(t).Detect(context.Background(), classes)
	require.NoError(t, err)
	assert.Empty(t, opps)

	opps, err = mustDetector(t, WithBodyThreshold(0)).Detect(context.Background(), classes)
	require.NoError(t, err)
	assert.Len(t, opps, 1)
}

func TestDetect_ReturnTypeMustMatch(t *testing.T) {
	a := class("A", method("int", "Size", "{ return items.Count; }"))
	b := class("B", method("long", "Size", "{ return items.Count; }"))

	opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{a, b})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetect_DescriptorNormalization(t *testing.T) {
	body := "{ return items; }"
	a := class("A", method("List< int >", "Items", body, param("Dictionary<string, int>", "map")))
	b := class("B", method("List<int>", "Items", body, param("Dictionary<string,int>", "map")))
	classes := []*models.ClassUnit{a, b}

	opps, err := mustDetector(t).Detect(context.Background(), classes)
	require.NoError(t, err)
	assert.Len(t, opps, 1)

	opps, err = mustDetector(t, WithNormalizeDescriptors(false)).Detect(context.Background(), classes)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetect_EmptyBodiesAreEqual(t *testing.T) {
	a := class("A", method("void", "Reset", ""))
	b := class("B", method("void", "Reset", ""))

	opps, err := mustDetector(t).Detect(context.Background(), []*models.ClassUnit{a, b})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, 1.0, opps[0].BodySimilarity)
}

func TestDetect_FixedBodyWindow(t *testing.T) {
	a := class("A", greet())
	b := class("B", greet())

	opps, err := mustDetector(t, WithBodyWindow(4)).Detect(context.Background(), []*models.ClassUnit{a, b})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, 4, opps[0].BodyWindow)
}

func TestDetect_ParallelMatchesSequential(t *testing.T) {
	var classes []*models.ClassUnit
	for i := 0; i < 12; i++ {
		methods := []*models.MethodSignature{tick()}
		if i%2 == 0 {
			methods = append(methods, greet())
		}
		if i%3 == 0 {
			methods = append(methods, method("int", "Count", "{ return items.Length; }"))
		}
		classes = append(classes, class(fmt.Sprintf("C%02d", i), methods...))
	}

	sequential, err := mustDetector(t, WithWorkers(1)).Detect(context.Background(), classes)
	require.NoError(t, err)
	require.NotEmpty(t, sequential)

	for run := 0; run < 5; run++ {
		parallel, err := mustDetector(t, WithWorkers(8)).Detect(context.Background(), classes)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel)
	}
}

func TestDetect_FewerThanTwoClasses(t *testing.T) {
	d := mustDetector(t)

	opps, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, opps)

	opps, err = d.Detect(context.Background(), []*models.ClassUnit{class("A", greet())})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classes := []*models.ClassUnit{class("A", greet()), class("B", greet()), class("C", greet())}
	opps, err := mustDetector(t).Detect(ctx, classes)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, opps)
}

func TestDetect_TicksTrackerPerClassPair(t *testing.T) {
	tracker := analyzer.NewTracker(nil)
	ctx := analyzer.WithTracker(context.Background(), tracker)

	classes := []*models.ClassUnit{class("A"), class("B"), class("C"), class("D")}
	_, err := mustDetector(t).Detect(ctx, classes)
	require.NoError(t, err)

	assert.Equal(t, 6, tracker.Total())
	assert.Equal(t, 6, tracker.Done())
}

func TestDetect_DebugLogsEveryComparison(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := class("A", greet())
	b := class("B", method("int", "Greet", greetBody, param("string", "name")))
	_, err := mustDetector(t, WithLogger(logger)).Detect(context.Background(), []*models.ClassUnit{a, b})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "compared methods")
	assert.Contains(t, out, "class_a=A")
	assert.Contains(t, out, "result.return_type=fail")
	assert.Contains(t, out, "result.body=skip")
}

func TestEvaluate_ShortCircuits(t *testing.T) {
	d := mustDetector(t)

	eval := d.Evaluate(method("int", "Sum", "{}", param("int", "x")), method("int", "Sum", "{}", param("int", "y")))
	assert.Equal(t, Pass, eval.ReturnType)
	assert.Equal(t, Fail, eval.Parameters)
	assert.Equal(t, Skip, eval.Name)
	assert.Equal(t, Skip, eval.Body)
	assert.False(t, eval.Flagged())

	eval = d.Evaluate(greet(), greet())
	assert.True(t, eval.Flagged())
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		field string
	}{
		{"threshold above one", WithThreshold(1.5), "name_threshold"},
		{"negative body threshold", WithBodyThreshold(-0.1), "body_threshold"},
		{"zero name window", WithNameWindow(0), "name_window"},
		{"negative body window", WithBodyWindow(-2), "body_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.opt)
			assert.Nil(t, d)

			var cfgErr *similarity.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	d := mustDetector(t)
	assert.Equal(t, DefaultConfig(), d.Config())
}
