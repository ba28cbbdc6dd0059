package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emitcore/ghgcore/internal/ingestion"
)

// columnClassifyTimeout bounds a single classify_column call. The
// specification requires a bounded timeout of a few seconds per column;
// on timeout the caller falls back to the local rule-based classification.
const columnClassifyTimeout = 5 * time.Second

// ColumnClassifierAdapter implements classify.LLMFallback on top of a
// Router, gating every call behind the router's online/offline mode so an
// ingestion with no configured credential never attempts network I/O.
type ColumnClassifierAdapter struct {
	router *Router
	logger *slog.Logger
}

// NewColumnClassifierAdapter wraps router for column classification use. A
// nil router is valid and makes the adapter a permanent no-op, matching
// "missing credential ⇒ adapter is a no-op returning ⊥".
func NewColumnClassifierAdapter(router *Router, logger *slog.Logger) *ColumnClassifierAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ColumnClassifierAdapter{router: router, logger: logger}
}

// columnClassification is the permissive JSON shape the model is asked to
// return. Every field is optional so a partially-malformed response still
// parses; ClassifyColumn rejects the result only if category is absent or
// outside the closed role vocabulary.
type columnClassification struct {
	Category   string   `json:"category"`
	Scope      *int     `json:"scope"`
	Unit       string   `json:"unit"`
	Confidence *float64 `json:"confidence"`
}

// ClassifyColumn asks the underlying router to classify one column. It
// never returns an error to the classifier: any failure (no router
// configured, network error, malformed JSON, invalid category) yields
// (nil, nil), the contractual "fall through" signal.
func (a *ColumnClassifierAdapter) ClassifyColumn(ctx context.Context, name string, samples []string) (*ingestion.ColumnMapping, error) {
	if a == nil || a.router == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, columnClassifyTimeout)
	defer cancel()

	req := NewChatRequest(buildClassifyPrompt(name, samples)).
		WithSystem(classifyColumnSystemPrompt).
		WithTemperature(0).
		WithMaxTokens(150)

	resp, err := a.router.Chat(ctx, req)
	if err != nil {
		a.logger.Debug("column classification call failed, ignoring", "column", name, "error", err)
		return nil, nil
	}

	parsed, err := parseColumnClassification(resp.Output)
	if err != nil {
		a.logger.Debug("column classification response unparseable, ignoring",
			"column", name, "error", err, "raw", TruncateForLog(resp.Output))
		return nil, nil
	}

	return parsed, nil
}

const classifyColumnSystemPrompt = `You classify one spreadsheet column for a greenhouse-gas emissions ingestion pipeline.
Respond with a single JSON object and nothing else:
{"category": "<role>", "scope": <1, 2, 3, or null>, "unit": "<unit string or null>", "confidence": <number between 0 and 1>}
"category" MUST be exactly one of: fuel, electricity, transport, waste, water, refrigerant, amount, unit, date, category, location, notes, ignore, unknown.`

func buildClassifyPrompt(name string, samples []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Column name: %q\n", name)
	if len(samples) == 0 {
		b.WriteString("Sample values: (none)\n")
	} else {
		fmt.Fprintf(&b, "Sample values: %s\n", strings.Join(samples, ", "))
	}
	return b.String()
}

// parseColumnClassification defensively extracts a JSON object from the
// model's output (models sometimes wrap JSON in prose or code fences) and
// validates it against the closed role vocabulary.
func parseColumnClassification(output string) (*ingestion.ColumnMapping, error) {
	jsonText := extractJSONObject(output)
	if jsonText == "" {
		return nil, errors.New("ai: no JSON object found in response")
	}

	var cc columnClassification
	if err := json.Unmarshal([]byte(jsonText), &cc); err != nil {
		return nil, fmt.Errorf("ai: decoding classification: %w", err)
	}

	role := ingestion.Role(strings.ToLower(strings.TrimSpace(cc.Category)))
	if !role.IsValid() {
		return nil, fmt.Errorf("ai: %q is not a recognized role", cc.Category)
	}

	mapping := &ingestion.ColumnMapping{Role: role, UnitHint: strings.TrimSpace(cc.Unit)}

	if cc.Scope != nil {
		scope := ingestion.Scope(*cc.Scope)
		if scope.IsValid() {
			mapping.ScopeHint = scope
		}
	}

	if cc.Confidence != nil && *cc.Confidence > 0 && *cc.Confidence <= 1 {
		mapping.Confidence = *cc.Confidence
	}

	return mapping, nil
}

// extractJSONObject returns the first balanced {...} substring in s, or ""
// if none is found. This tolerates models that wrap their JSON answer in
// markdown fences or a leading sentence.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// TruncateForLog bounds a string for safe inclusion in a log attribute.
func TruncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
