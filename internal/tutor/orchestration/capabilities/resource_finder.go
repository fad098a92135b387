package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/router"
)

const (
	defaultMaxResources = 5
	maxResources        = 10
)

// Resource is one entry of the study-resource catalog.
type Resource struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Level   string `json:"level"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
}

type ResourceQuery struct {
	Query      string `json:"query"`
	Subject    string `json:"subject,omitempty"`
	Level      string `json:"level,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type ResourceResults struct {
	Resources []Resource `json:"resources"`
	Total     int        `json:"total"`
}

// NewResourceFinderTool searches catalog by keyword.
func NewResourceFinderTool(catalog []Resource) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: router.ToolResourceFinder,
			Desc: "Search study resources (articles, videos, exercises) by topic keywords. Returns id, title, subject, level and a one-line summary.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Topic keywords, e.g. photosynthesis, quadratic equations, essay structure.",
					Required: true,
				},
				"subject": {
					Type: "string",
					Desc: "Optional subject filter: biology, math, writing, history, physics, study-skills.",
				},
				"level": {
					Type: "string",
					Desc: "Optional level filter: surface, guided or deep.",
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of resources to return (default: 5, max: 10)",
				},
			}),
		},
		func(ctx context.Context, in *ResourceQuery) (*ResourceResults, error) {
			return searchResources(catalog, in)
		},
	)
}

func searchResources(catalog []Resource, in *ResourceQuery) (*ResourceResults, error) {
	if in == nil || strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	limit := in.MaxResults
	if limit <= 0 {
		limit = defaultMaxResources
	}
	if limit > maxResources {
		limit = maxResources
	}

	terms := keywords(in.Query)
	type scored struct {
		res   Resource
		score int
	}
	var matches []scored
	for _, r := range catalog {
		if in.Subject != "" && !strings.EqualFold(r.Subject, in.Subject) {
			continue
		}
		if in.Level != "" && !strings.EqualFold(r.Level, in.Level) {
			continue
		}
		haystack := strings.ToLower(r.Title + " " + r.Subject + " " + r.Summary)
		score := 0
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{res: r, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].res.ID < matches[j].res.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := &ResourceResults{Resources: make([]Resource, 0, len(matches))}
	for _, m := range matches {
		out.Resources = append(out.Resources, m.res)
	}
	out.Total = len(out.Resources)
	return out, nil
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "about": true, "with": true, "can": true,
	"you": true, "me": true, "some": true, "find": true, "resources": true, "learn": true,
	"more": true, "what": true, "how": true, "want": true, "need": true, "please": true,
}

func keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ResourceFinderArgs searches for the learner's message.
func ResourceFinderArgs(in model.CapabilityInput) (string, error) {
	b, err := json.Marshal(ResourceQuery{
		Query:      in.Message,
		MaxResults: defaultMaxResources,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FormatResources renders the tool's JSON result as a short reading list.
func FormatResources(result string) (string, error) {
	var res ResourceResults
	if err := json.Unmarshal([]byte(result), &res); err != nil {
		return "", err
	}
	if len(res.Resources) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString("Here are some resources to explore:\n")
	for _, r := range res.Resources {
		fmt.Fprintf(&sb, "- %s (%s, %s): %s\n", r.Title, r.Kind, r.Level, r.Summary)
	}
	return sb.String(), nil
}

// DefaultResources is the built-in study-resource catalog.
var DefaultResources = []Resource{
	{ID: "res-001", Title: "Photosynthesis in Five Minutes", Subject: "biology", Level: "surface", Kind: "video", Summary: "How plants turn light, water and carbon dioxide into glucose and oxygen."},
	{ID: "res-002", Title: "Light and Dark Reactions Explained", Subject: "biology", Level: "guided", Kind: "article", Summary: "Walkthrough of the light-dependent reactions and the Calvin cycle in photosynthesis."},
	{ID: "res-003", Title: "Quadratic Equations Practice Set", Subject: "math", Level: "guided", Kind: "exercise", Summary: "Twenty graded problems on factoring and the quadratic formula."},
	{ID: "res-004", Title: "Why the Quadratic Formula Works", Subject: "math", Level: "deep", Kind: "article", Summary: "Derivation of the quadratic formula by completing the square."},
	{ID: "res-005", Title: "Essay Structure Cheat Sheet", Subject: "writing", Level: "surface", Kind: "article", Summary: "Thesis, body paragraphs and conclusion for a five-paragraph essay."},
	{ID: "res-006", Title: "Writing Strong Arguments", Subject: "writing", Level: "guided", Kind: "video", Summary: "Claims, evidence and counterarguments in persuasive essay writing."},
	{ID: "res-007", Title: "Causes of the French Revolution", Subject: "history", Level: "surface", Kind: "article", Summary: "Fiscal crisis, Enlightenment ideas and social inequality in 1789 France."},
	{ID: "res-008", Title: "Newton's Laws with Everyday Examples", Subject: "physics", Level: "surface", Kind: "video", Summary: "Inertia, force and acceleration, and action-reaction explained with daily life."},
	{ID: "res-009", Title: "Spaced Repetition for Exams", Subject: "study-skills", Level: "guided", Kind: "article", Summary: "Plan review sessions with spaced repetition and active recall."},
	{ID: "res-010", Title: "Vaccines and the Immune System", Subject: "biology", Level: "deep", Kind: "article", Summary: "Antigens, memory cells and how vaccines train adaptive immunity."},
}
