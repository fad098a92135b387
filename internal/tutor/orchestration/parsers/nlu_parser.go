package parsers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

const (
	RecordDelimiter   = "##"
	TupleDelimiter    = "<||>"
	CompleteDelimiter = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024
	maxRecords    = 100
	maxTupleLen   = 4 * 1024
	maxMetaLen    = 2 * 1024
	maxErrSnippet = 200
)

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	inner := s[1 : len(s)-1]
	// at most 5 segments so metadata may contain delimiters
	parts := strings.SplitN(inner, TupleDelimiter, 5)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	return &rawTuple{Type: strings.ToLower(strings.TrimSpace(parts[0])), Parts: parts}, nil
}

func parseFloatInRange(s, name string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s invalid number", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s out of range", name)
	}
	return v, nil
}

func parseMeta(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}, nil
	}
	if len(s) > maxMetaLen {
		return nil, fmt.Errorf("metadata too large")
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, fmt.Errorf("metadata not json object")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseNLUResponse turns the classifier's tuple records into an NLUAnalysis.
// Malformed records are skipped and noted in ParsingMetadata["parsing_errors"].
func ParseNLUResponse(content string) (resp *model.NLUAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "nlu_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("nlu parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			resp = nil
		}
	}()

	truncated := false
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "nlu_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
		truncated = true
	}
	if idx := strings.Index(content, CompleteDelimiter); idx >= 0 {
		content = content[:idx]
	}

	resp = &model.NLUAnalysis{
		Intents:         []model.ScoredIntent{},
		Sentiment:       model.SentimentNeutral,
		ParsingMetadata: map[string]any{},
		Timestamp:       time.Now().UTC(),
	}

	addErr := func(msg string) {
		v, _ := resp.ParsingMetadata["parsing_errors"].([]string)
		resp.ParsingMetadata["parsing_errors"] = append(v, msg)
	}

	if truncated {
		resp.ParsingMetadata["truncated"] = true
	}

	processed := 0
	for _, rec := range strings.Split(content, RecordDelimiter) {
		if processed >= maxRecords {
			resp.ParsingMetadata["records_capped"] = true
			break
		}
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		processed++

		rt, rerr := parseRawTuple(rec)
		if rerr != nil {
			addErr(fmt.Sprintf("bad_record: %s", safeSnippet(rec)))
			continue
		}

		switch rt.Type {
		case "intent":
			if len(rt.Parts) < 3 {
				addErr("intent: insufficient parts")
				continue
			}
			name := model.IntentType(strings.ToLower(strings.TrimSpace(rt.Parts[1])))
			if !utf8.ValidString(string(name)) || !name.IsValid() {
				addErr("intent: unknown name")
				continue
			}
			conf, err := parseFloatInRange(rt.Parts[2], "intent.confidence", 0, 1)
			if err != nil {
				addErr("intent: invalid confidence")
				continue
			}
			prio := conf
			if len(rt.Parts) >= 4 {
				if p, err := parseFloatInRange(rt.Parts[3], "intent.priority", 0, 1); err == nil {
					prio = p
				} else {
					addErr("intent: invalid priority")
				}
			}
			resp.Intents = append(resp.Intents, model.ScoredIntent{Name: name, Confidence: conf, Priority: prio})

		case "sentiment":
			if len(rt.Parts) < 3 {
				addErr("sentiment: insufficient parts")
				continue
			}
			label := strings.ToLower(strings.TrimSpace(rt.Parts[1]))
			if !utf8.ValidString(label) || label == "" {
				addErr("sentiment: invalid label")
				continue
			}
			conf, err := parseFloatInRange(rt.Parts[2], "sentiment.confidence", 0, 1)
			if err != nil {
				addErr("sentiment: invalid confidence")
				continue
			}
			resp.Sentiment = model.ParseSentimentType(label)
			resp.SentimentConf = conf
			if len(rt.Parts) >= 4 {
				m, err := parseMeta(rt.Parts[3])
				if err != nil {
					addErr("sentiment: invalid metadata json")
					continue
				}
				if f, ok := frustrationFromMeta(m); ok {
					resp.Frustration = f
				}
			}

		case "depth":
			if len(rt.Parts) < 3 {
				addErr("depth: insufficient parts")
				continue
			}
			stage := model.Depth(strings.ToLower(strings.TrimSpace(rt.Parts[1])))
			if !stage.IsValid() {
				addErr("depth: unknown stage")
				continue
			}
			conf, err := parseFloatInRange(rt.Parts[2], "depth.confidence", 0, 1)
			if err != nil {
				addErr("depth: invalid confidence")
				continue
			}
			resp.RequestedDepth = stage
			resp.DepthConfidence = conf

		default:
			addErr("unknown tuple type")
		}
	}

	// PrimaryIntent: highest confidence, then priority
	best := -1.0
	for _, it := range resp.Intents {
		score := it.Confidence*0.6 + it.Priority*0.4
		if score > best {
			best = score
			resp.PrimaryIntent = it.Name
		}
	}

	// A frustrated label without an explicit level still counts.
	if resp.Frustration == 0 && resp.Sentiment == model.SentimentFrustrated {
		resp.Frustration = resp.SentimentConf
	}

	return resp, nil
}

func frustrationFromMeta(m map[string]any) (float64, bool) {
	v, ok := m["frustration"].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
