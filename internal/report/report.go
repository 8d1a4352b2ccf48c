// Package report renders superclass opportunities for people: each group's
// classes and methods, followed by the proposed superclass and subclass
// skeletons.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/hoist/internal/codegen"
	"github.com/panbanda/hoist/internal/output"
	"github.com/panbanda/hoist/pkg/models"
)

const separator = "----------------------------------------------------------------"

// Report is an output.Renderable over one analysis run.
type Report struct {
	analysis *models.SuperclassAnalysis
	groups   []*models.RelationshipGroup
	plans    []*codegen.Plan
}

// Data is the serialized form of a report.
type Data struct {
	Analysis    *models.SuperclassAnalysis `json:"analysis" toon:"analysis"`
	Suggestions []*codegen.Plan `json:"suggestions,omitempty" toon:"suggestions,omitempty"`
}

// New creates a report. plans, when non-nil, holds one plan per group.
func New(analysis *models.SuperclassAnalysis, groups []*models.RelationshipGroup, plans []*codegen.Plan) *Report {
	if plans != nil && len(plans) != len(groups) {
		plans = nil
	}
	return &Report{analysis: analysis, groups: groups, plans: plans}
}

func (r *Report) RenderData() any {
	return Data{Analysis: r.analysis, Suggestions: r.plans}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	output.Heading(w, colored, "Superclass Opportunities")
	fmt.Fprintf(w, "Source: %s\n\n", r.analysis.Source)

	if len(r.groups) == 0 {
		fmt.Fprintln(w, "No refactoring opportunities found.")
		fmt.Fprintln(w)
	}

	bold := func(s string) string { return s }
	if colored {
		c := color.New(color.Bold)
		bold = func(s string) string { return c.Sprint(s) }
	}

	for i, g := range r.groups {
		fmt.Fprintf(w, "Refactoring opportunity found in classes %s\n\n", bold(strings.Join(classNames(g), ", ")))
		for _, p := range g.Participants {
			fmt.Fprintf(w, "  %s: %s\n", p.Class.Name, location(p))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Methods %s are similar", strings.Join(methodNames(g), ", "))
		if sim, ok := r.bodySimilarity(g); ok {
			text := fmt.Sprintf("%.1f%%", sim*100)
			if colored {
				text = output.SimilarityColor(sim, text)
			}
			fmt.Fprintf(w, " (body similarity up to %s)", text)
		}
		fmt.Fprint(w, "\n\n")

		if r.plans != nil {
			plan := r.plans[i]
			fmt.Fprintln(w, "Suggested refactoring:")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Create a new superclass that implements the common method, e.g.:")
			fmt.Fprintln(w)
			fmt.Fprint(w, indent(plan.Superclass.Content))
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Change the subclasses to extend the new class:")
			for _, sub := range plan.Subclasses {
				fmt.Fprintln(w)
				fmt.Fprint(w, indent(sub.Content))
			}
			if len(plan.Skipped) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintf(w, "Already extending an earlier suggestion: %s\n", strings.Join(plan.Skipped, ", "))
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w, separator)
		fmt.Fprintln(w)
	}

	return r.SummaryTable().RenderText(w, colored)
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Superclass Opportunities\n\n")
	fmt.Fprintf(w, "Source: %s\n\n", r.analysis.Source)

	if len(r.groups) == 0 {
		fmt.Fprintf(w, "No refactoring opportunities found.\n\n")
	}

	for i, g := range r.groups {
		fmt.Fprintf(w, "## %d. %s\n\n", i+1, strings.Join(classNames(g), ", "))
		fmt.Fprintln(w, "| Class | Method | Location |")
		fmt.Fprintln(w, "| --- | --- | --- |")
		for _, p := range g.Participants {
			fmt.Fprintf(w, "| %s | `%s` | %s |\n", p.Class.Name, p.Method.Signature(), location(p))
		}
		fmt.Fprintln(w)

		if r.plans != nil {
			lang := g.Participants[0].Class.Language
			plan := r.plans[i]
			fmt.Fprintf(w, "Suggested superclass `%s`:\n\n", plan.Superclass.Class)
			fmt.Fprintf(w, "```%s\n%s```\n\n", lang, plan.Superclass.Content)
			for _, sub := range plan.Subclasses {
				fmt.Fprintf(w, "```%s\n%s```\n\n", lang, sub.Content)
			}
		}
	}

	return r.SummaryTable().RenderMarkdown(w)
}

// SummaryTable returns the run's aggregate statistics as a table.
func (r *Report) SummaryTable() *output.Table {
	s := r.analysis.Summary
	pct := func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }
	rows := [][]string{
		{"Files scanned", fmt.Sprint(s.FilesScanned)},
		{"Files skipped", fmt.Sprint(s.FilesSkipped)},
		{"Classes analyzed", fmt.Sprint(s.ClassesAnalyzed)},
		{"Methods analyzed", fmt.Sprint(s.MethodsAnalyzed)},
		{"Opportunities", fmt.Sprint(s.TotalOpportunities)},
		{"Groups", fmt.Sprint(s.TotalGroups)},
		{"Classes involved", fmt.Sprint(s.ClassesInvolved)},
		{"Methods involved", fmt.Sprint(s.MethodsInvolved)},
		{"Largest group", fmt.Sprint(s.LargestGroup)},
	}
	if s.TotalOpportunities > 0 {
		rows = append(rows,
			[]string{"Body similarity (avg)", pct(s.AvgBodySimilarity)},
			[]string{"Body similarity (p50)", pct(s.P50BodySimilarity)},
			[]string{"Body similarity (p95)", pct(s.P95BodySimilarity)},
			[]string{"Body similarity (min)", pct(s.MinBodySimilarity)},
		)
	}
	return output.NewTable("Summary", []string{"Metric", "Value"}, rows, nil, s)
}

// bodySimilarity returns the highest body similarity among the recorded
// opportunities between members of g.
func (r *Report) bodySimilarity(g *models.RelationshipGroup) (float64, bool) {
	members := make(map[models.MethodRef]bool, len(g.Participants))
	for _, p := range g.Participants {
		members[p.Ref()] = true
	}
	best, found := 0.0, false
	for _, o := range r.analysis.Opportunities {
		if members[o.A] && members[o.B] && (!found || o.BodySimilarity > best) {
			best, found = o.BodySimilarity, true
		}
	}
	return best, found
}

func classNames(g *models.RelationshipGroup) []string {
	classes := g.Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names
}

func methodNames(g *models.RelationshipGroup) []string {
	names := make([]string, len(g.Participants))
	for i, p := range g.Participants {
		names[i] = p.Method.Name
	}
	return names
}

func location(p models.Occurrence) string {
	if p.Method.StartLine == 0 {
		return p.Class.Path
	}
	return fmt.Sprintf("%s:%d-%d", p.Class.Path, p.Method.StartLine, p.Method.EndLine)
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			sb.WriteString(l)
			continue
		}
		sb.WriteString("    ")
		sb.WriteString(l)
	}
	return sb.String()
}
