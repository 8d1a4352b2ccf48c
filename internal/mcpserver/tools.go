package mcpserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/hoist/internal/cache"
	"github.com/panbanda/hoist/internal/codegen"
	"github.com/panbanda/hoist/internal/output"
	"github.com/panbanda/hoist/internal/report"
	"github.com/panbanda/hoist/internal/service/analysis"
	"github.com/panbanda/hoist/pkg/config"
)

// SuperclassInput is the input of find_superclass_opportunities.
type SuperclassInput struct {
	Paths         []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format        string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
	Threshold     float64  `json:"threshold,omitempty" jsonschema:"Minimum name and body similarity (0.0-1.0). Default 0.8."`
	NameThreshold float64  `json:"name_threshold,omitempty" jsonschema:"Minimum method-name similarity. Overrides threshold for names."`
	BodyThreshold float64  `json:"body_threshold,omitempty" jsonschema:"Minimum method-body similarity. Overrides threshold for bodies."`
	ClusterMode   string   `json:"cluster_mode,omitempty" jsonschema:"Grouping: first_seen (default) or connected."`
	Ref           string   `json:"ref,omitempty" jsonschema:"Git revision to analyze instead of the working tree."`
	Generate      bool     `json:"generate,omitempty" jsonschema:"Include superclass and subclass skeleton sources for each group."`
}

type tools struct {
	config *config.Config
	logger *slog.Logger
}

func getPaths(input SuperclassInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input SuperclassInput) output.Format {
	switch strings.ToLower(input.Format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// configFor applies the call's overrides to a copy of the base config.
func (t *tools) configFor(input SuperclassInput) (*config.Config, error) {
	cfg := *t.config
	if input.Threshold > 0 {
		cfg.Similarity.Threshold = input.Threshold
		cfg.Similarity.NameThreshold = input.Threshold
		cfg.Similarity.BodyThreshold = input.Threshold
	}
	if input.NameThreshold > 0 {
		cfg.Similarity.NameThreshold = input.NameThreshold
	}
	if input.BodyThreshold > 0 {
		cfg.Similarity.BodyThreshold = input.BodyThreshold
	}
	if input.ClusterMode != "" {
		cfg.Clustering.Mode = input.ClusterMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (t *tools) handleFindSuperclassOpportunities(ctx context.Context, req *mcp.CallToolRequest, input SuperclassInput) (*mcp.CallToolResult, any, error) {
	cfg, err := t.configFor(input)
	if err != nil {
		return toolError(err.Error())
	}

	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(t.logger)}
	if c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled); err != nil {
		t.logger.Warn("parse cache disabled", "error", err)
	} else {
		opts = append(opts, analysis.WithCache(c))
	}

	result, err := analysis.New(opts...).Analyze(ctx, analysis.Options{
		Paths: getPaths(input),
		Ref:   input.Ref,
	})
	if err != nil {
		return toolError(err.Error())
	}

	var plans []*codegen.Plan
	if input.Generate {
		plans, err = codegen.New(cfg.Generate.Dir).Plans(result.Groups)
		if err != nil {
			return toolError(err.Error())
		}
	}

	rep := report.New(result.Analysis, result.Groups, plans)
	format := getFormat(input)
	if format == output.FormatMarkdown {
		var sb strings.Builder
		if err := rep.RenderMarkdown(&sb); err != nil {
			return toolError(err.Error())
		}
		return textResult(sb.String())
	}
	return toolResult(rep.RenderData(), format)
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := output.Marshal(data, format)
	if err != nil {
		return nil, nil, err
	}
	return textResult(text)
}

func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}
