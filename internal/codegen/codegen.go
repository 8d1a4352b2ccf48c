// Package codegen renders extract-superclass skeletons for relationship
// groups and writes them to disk.
package codegen

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/panbanda/hoist/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// dialect maps a ClassUnit language to its template set and file extension.
type dialect struct {
	templates string
	ext       string
	typed     bool
}

var dialects = map[string]dialect{
	"csharp":     {"csharp", ".cs", true},
	"java":       {"java", ".java", true},
	"python":     {"python", ".py", true},
	"typescript": {"typescript", ".ts", true},
	"tsx":        {"typescript", ".tsx", true},
	"javascript": {"typescript", ".js", false},
}

// File is one generated source file.
type File struct {
	Path    string `json:"path" toon:"path"`
	Class   string `json:"class" toon:"class"`
	Content string `json:"content" toon:"content"`
}

// Plan is the set of files proposed for one relationship group.
type Plan struct {
	Superclass File   `json:"superclass" toon:"superclass"`
	Subclasses []File `json:"subclasses" toon:"subclasses"`
	// Skipped lists classes that already extend a superclass proposed by an
	// earlier plan.
	Skipped []string `json:"skipped,omitempty" toon:"skipped,omitempty"`
}

// Generator builds plans. Dir, when set, receives every file; otherwise
// files go to a "generated" directory beside each class's source.
type Generator struct {
	dir string
}

// New creates a generator.
func New(dir string) *Generator {
	return &Generator{dir: dir}
}

type skeleton struct {
	Super     string
	Class     string
	Method    string
	Return    string
	Params    string
	Body      string
	Inherited string
}

// SuperclassName proposes a name for the group's new superclass.
func SuperclassName(g *models.RelationshipGroup) string {
	if len(g.Participants) == 0 || g.Participants[0].Class == nil {
		return "NewSuperclass"
	}
	return "New" + g.Participants[0].Class.Name
}

// Plans renders a plan for every group. Superclass names are made unique
// across the run, and a class gets at most one subclass skeleton.
func (gen *Generator) Plans(groups []*models.RelationshipGroup) ([]*Plan, error) {
	usedNames := make(map[string]int)
	extended := make(map[*models.ClassUnit]bool)

	plans := make([]*Plan, 0, len(groups))
	for _, g := range groups {
		name := SuperclassName(g)
		usedNames[name]++
		if n := usedNames[name]; n > 1 {
			name = fmt.Sprintf("%s%d", name, n)
		}

		plan, err := gen.plan(g, name, extended)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Plan renders the files for a single group.
func (gen *Generator) Plan(g *models.RelationshipGroup) (*Plan, error) {
	return gen.plan(g, SuperclassName(g), make(map[*models.ClassUnit]bool))
}

func (gen *Generator) plan(g *models.RelationshipGroup, super string, extended map[*models.ClassUnit]bool) (*Plan, error) {
	if len(g.Participants) == 0 {
		return nil, fmt.Errorf("empty relationship group")
	}
	rep := g.Participants[0]
	d, ok := dialects[rep.Class.Language]
	if !ok {
		return nil, fmt.Errorf("no skeleton templates for language %q", rep.Class.Language)
	}

	base := skeleton{
		Super:  super,
		Method: rep.Method.Name,
		Params: renderParams(rep.Method.Parameters),
		Body:   renderBody(rep.Method.Body, d),
	}
	if d.typed {
		base.Return = rep.Method.ReturnType
	}

	content, err := execute(d.templates+".super", base)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Superclass: File{
			Path:    gen.path(rep.Class.Path, super, d.ext),
			Class:   super,
			Content: content,
		},
	}

	for _, cls := range g.Classes() {
		if extended[cls] {
			plan.Skipped = append(plan.Skipped, cls.Name)
			continue
		}
		extended[cls] = true

		data := base
		data.Class = cls.Name
		data.Inherited = inherited(g, cls)
		content, err := execute(d.templates+".sub", data)
		if err != nil {
			return nil, err
		}
		plan.Subclasses = append(plan.Subclasses, File{
			Path:    gen.path(cls.Path, cls.Name, d.ext),
			Class:   cls.Name,
			Content: content,
		})
	}
	return plan, nil
}

func execute(name string, data skeleton) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}

func (gen *Generator) path(source, class, ext string) string {
	if gen.dir != "" {
		return filepath.Join(gen.dir, class+ext)
	}
	return filepath.Join(filepath.Dir(source), "generated", class+ext)
}

// inherited names the class's own methods that the superclass replaces.
func inherited(g *models.RelationshipGroup, cls *models.ClassUnit) string {
	var names []string
	for _, p := range g.Participants {
		if p.Class == cls {
			names = append(names, p.Method.Name)
		}
	}
	return strings.Join(names, ", ")
}

func renderParams(params []models.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func renderBody(body string, d dialect) string {
	body = strings.TrimSpace(body)
	switch {
	case body == "" && d.templates == "python":
		return "pass"
	case body == "":
		return "{\n    }"
	case strings.HasPrefix(body, "=>") && !strings.HasSuffix(body, ";"):
		return body + ";"
	}
	return body
}

// Write saves every file of the plans and returns the paths written.
func Write(plans []*Plan) ([]string, error) {
	var written []string
	for _, p := range plans {
		files := append([]File{p.Superclass}, p.Subclasses...)
		for _, f := range files {
			if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
				return written, fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
			}
			if err := os.WriteFile(f.Path, []byte(f.Content), 0o644); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", f.Path, err)
			}
			written = append(written, f.Path)
		}
	}
	return written, nil
}
