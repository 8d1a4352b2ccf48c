package parser

import (
	"context"
	"testing"

	"github.com/panbanda/hoist/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, lang Language, source string) []*models.ClassUnit {
	t.Helper()
	p := New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte(source), lang, "fixture")
	require.NoError(t, err)
	defer result.Close()
	return ExtractClasses(result)
}

func names(classes []*models.ClassUnit) []string {
	var out []string
	for _, c := range classes {
		out = append(out, c.Name)
	}
	return out
}

func methodNames(c *models.ClassUnit) []string {
	var out []string
	for _, m := range c.Methods {
		out = append(out, m.Name)
	}
	return out
}

func paramNames(m *models.MethodSignature) []string {
	var out []string
	for _, p := range m.Parameters {
		out = append(out, p.Name)
	}
	return out
}

func paramTypes(m *models.MethodSignature) []string {
	var out []string
	for _, p := range m.Parameters {
		out = append(out, p.Type)
	}
	return out
}

const csharpSource = `namespace Shapes
{
    public class Greeter
    {
        public Greeter(string prefix) { _prefix = prefix; }

        public string Greet(string name)
        {
            return "Hi " + name;
        }

        private int Sum(int x, List<int> ys) => x + ys.Count;

        public class Inner
        {
            public void Run() { }
        }
    }

    public interface IGreeter
    {
        string Greet(string name);
    }
}
`

func TestExtractClasses_CSharp(t *testing.T) {
	classes := extract(t, LangCSharp, csharpSource)
	require.Equal(t, []string{"Greeter", "Inner"}, names(classes))

	greeter := classes[0]
	assert.Equal(t, "csharp", greeter.Language)
	assert.Equal(t, "fixture", greeter.Path)
	require.Equal(t, []string{"Greeter", "Greet", "Sum"}, methodNames(greeter))

	ctor := greeter.Methods[0]
	assert.Empty(t, ctor.ReturnType)
	assert.Equal(t, []string{"prefix"}, paramNames(ctor))

	greet := greeter.Methods[1]
	assert.Equal(t, "string", greet.ReturnType)
	assert.Equal(t, []string{"name"}, paramNames(greet))
	assert.Equal(t, []string{"string"}, paramTypes(greet))
	assert.Contains(t, greet.Body, `return "Hi " + name;`)
	assert.Contains(t, greet.Modifiers, "public")
	assert.Equal(t, uint32(7), greet.StartLine)
	assert.Same(t, greeter, greet.Class)

	sum := greeter.Methods[2]
	assert.Equal(t, "int", sum.ReturnType)
	assert.Equal(t, []string{"x", "ys"}, paramNames(sum))
	assert.Equal(t, []string{"int", "List<int>"}, paramTypes(sum))
	assert.Contains(t, sum.Body, "x + ys.Count")

	assert.Equal(t, []string{"Run"}, methodNames(classes[1]))
}

func TestExtractClasses_CSharpParameterText(t *testing.T) {
	classes := extract(t, LangCSharp, `public class Counter
{
    public int Bump(ref int x, int step = 5, params int[] rest) { return x + step; }
}
`)
	require.Len(t, classes, 1)
	require.Len(t, classes[0].Methods, 1)

	bump := classes[0].Methods[0]
	assert.Equal(t, []string{"x", "step", "rest"}, paramNames(bump))
	var text []string
	for _, p := range bump.Parameters {
		text = append(text, p.String())
	}
	assert.Equal(t, []string{"ref int x", "int step = 5", "params int[] rest"}, text)
}

const javaSource = `public class Circle implements Shape {
    private final double r;

    public Circle(double r) { this.r = r; }

    @Override
    public double area(int scale, String... labels) {
        return Math.PI * r * r * scale;
    }
}

enum Color {
    RED, GREEN;

    public String label() { return name().toLowerCase(); }
}

interface Shape { double area(); }
`

func TestExtractClasses_Java(t *testing.T) {
	classes := extract(t, LangJava, javaSource)
	require.Equal(t, []string{"Circle", "Color"}, names(classes))

	circle := classes[0]
	require.Equal(t, []string{"Circle", "area"}, methodNames(circle))

	area := circle.Methods[1]
	assert.Equal(t, "double", area.ReturnType)
	assert.Equal(t, []string{"scale", "labels"}, paramNames(area))
	assert.Equal(t, "int", area.Parameters[0].Type)
	assert.Equal(t, "String...", area.Parameters[1].Type)
	assert.Contains(t, area.Body, "Math.PI")
	assert.Contains(t, area.Modifiers, "public")
	assert.NotContains(t, area.Modifiers, "@Override")

	assert.Equal(t, []string{"label"}, methodNames(classes[1]))
}

const pythonSource = `class Greeter(Base):
    def __init__(self, prefix):
        self.prefix = prefix

    @staticmethod
    def greet(name: str, times: int = 1, *args, **kwargs) -> str:
        return "Hi " + name

    class Inner:
        def run(self):
            pass


def free_function():
    pass
`

func TestExtractClasses_Python(t *testing.T) {
	classes := extract(t, LangPython, pythonSource)
	require.Equal(t, []string{"Greeter", "Inner"}, names(classes))

	greeter := classes[0]
	require.Equal(t, []string{"__init__", "greet"}, methodNames(greeter))
	assert.Equal(t, []string{"self", "prefix"}, paramNames(greeter.Methods[0]))

	greet := greeter.Methods[1]
	assert.Equal(t, "str", greet.ReturnType)
	assert.Equal(t, []string{"name", "times", "*args", "**kwargs"}, paramNames(greet))
	assert.Equal(t, []string{"str", "int", "", ""}, paramTypes(greet))
	assert.Contains(t, greet.Body, `return "Hi " + name`)

	assert.Equal(t, []string{"run"}, methodNames(classes[1]))
}

const typescriptSource = `export class Greeter {
  private prefix: string;

  constructor(prefix: string) { this.prefix = prefix; }

  public greet(name: string, loud?: boolean): string {
    return "Hi " + name;
  }

  static create() { return new Greeter("x"); }
}

const Anon = class { m() {} };
`

func TestExtractClasses_TypeScript(t *testing.T) {
	classes := extract(t, LangTypeScript, typescriptSource)
	require.Equal(t, []string{"Greeter"}, names(classes))

	greeter := classes[0]
	require.Equal(t, []string{"constructor", "greet", "create"}, methodNames(greeter))

	greet := greeter.Methods[1]
	assert.Equal(t, "string", greet.ReturnType)
	assert.Equal(t, []string{"name", "loud?"}, paramNames(greet))
	assert.Equal(t, []string{"string", "boolean"}, paramTypes(greet))
	assert.Contains(t, greet.Modifiers, "public")
	assert.Contains(t, greeter.Methods[2].Modifiers, "static")
	assert.Empty(t, greeter.Methods[2].ReturnType)
}

func TestExtractClasses_JavaScript(t *testing.T) {
	classes := extract(t, LangJavaScript, "class A {\n  m(a, b = 2, ...rest) { return a; }\n}\n")
	require.Len(t, classes, 1)
	require.Len(t, classes[0].Methods, 1)
	assert.Equal(t, []string{"a", "b", "...rest"}, paramNames(classes[0].Methods[0]))
}

func TestExtractClasses_NoClasses(t *testing.T) {
	assert.Empty(t, extract(t, LangPython, "def f():\n    return 1\n"))
	assert.Empty(t, ExtractClasses(&ParseResult{Language: LangUnknown}))
}
