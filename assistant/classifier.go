package assistant

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/model"
)

// Intent is the outcome of classifying one user message.
type Intent struct {
	Agent      AgentID
	Confidence float64
}

// Classifier maps a user message to an agent.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Intent, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (Intent, error) { return f(ctx, text) }

// KeywordClassifier scores agents by multilingual keyword stems. The agent
// with the most matching words wins; ties go to the earlier agent and halve
// the confidence.
type KeywordClassifier struct {
	order []AgentID
	stems map[AgentID][]string
}

// NewKeywordClassifier builds a classifier from the catalog keywords.
func NewKeywordClassifier(c *Catalog) *KeywordClassifier {
	k := &KeywordClassifier{stems: map[AgentID][]string{}}
	for _, a := range c.Agents {
		k.order = append(k.order, a.ID)
		for _, words := range a.Keywords {
			for _, w := range words {
				k.stems[a.ID] = append(k.stems[a.ID], normalize(w))
			}
		}
	}
	return k
}

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(_ context.Context, text string) (Intent, error) {
	words := tokenize(text)

	best, bestScore, tie := AgentNone, 0, false
	for _, id := range k.order {
		score := 0
		for _, w := range words {
			if slices.ContainsFunc(k.stems[id], func(stem string) bool { return strings.HasPrefix(w, stem) }) {
				score++
			}
		}

		switch {
		case score > bestScore:
			best, bestScore, tie = id, score, false
		case score == bestScore && score > 0:
			tie = true
		}
	}

	if best == AgentNone {
		return Intent{Agent: AgentNone}, nil
	}
	if tie {
		return Intent{Agent: best, Confidence: 0.5}, nil
	}
	return Intent{Agent: best, Confidence: 1}, nil
}

// normalize lowercases s and folds the apostrophe variants used in Uzbek
// Latin script.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'ʻ', 'ʼ', '’', '‘', '`':
			return '\''
		}
		return unicode.ToLower(r)
	}, s)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(normalize(text), func(r rune) bool {
		return r != '\'' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ModelClassifier asks a language model which agent should answer. The
// model must reply with {"agent": "<id>"}; malformed JSON is repaired and
// unknown labels map to AgentNone.
type ModelClassifier struct {
	llm    model.Model
	prompt string
}

// NewModelClassifier builds the routing prompt from the catalog descriptions.
func NewModelClassifier(llm model.Model, c *Catalog) *ModelClassifier {
	var b strings.Builder
	b.WriteString("You route messages of an ERP assistant for a flowershop to the agent that should answer.\n")
	b.WriteString("Agents:\n")
	for _, a := range c.Agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.ID, strings.TrimSpace(a.Description))
	}
	fmt.Fprintf(&b, "- %s: greetings, questions about the assistant itself and anything no agent handles.\n", AgentNone)
	b.WriteString(`Reply with JSON only, for example {"agent": "flower_agent"}.`)

	return &ModelClassifier{llm: llm, prompt: b.String()}
}

// Prompt returns the system prompt sent with every classification.
func (m *ModelClassifier) Prompt() string { return m.prompt }

// Classify implements Classifier.
func (m *ModelClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	resp, err := model.Complete(ctx, m.llm, model.Request{
		Instructions: m.prompt,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, text)},
	})
	if err != nil {
		return Intent{Agent: AgentNone}, fmt.Errorf("classify: %w", err)
	}

	label, err := parseLabel(resp.Content.Text())
	if err != nil {
		return Intent{Agent: AgentNone}, err
	}

	id, err := ParseAgentID(label)
	if err != nil {
		return Intent{Agent: AgentNone}, nil
	}

	return Intent{Agent: id, Confidence: 1}, nil
}

// parseLabel extracts the agent label from a model reply that may wrap the
// JSON in prose or code fences.
func parseLabel(reply string) (string, error) {
	raw := strings.TrimSpace(reply)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	} else if start >= 0 {
		raw = raw[start:]
	}

	if !gjson.Valid(raw) {
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil {
			return "", fmt.Errorf("classify: unreadable reply %q: %w", reply, err)
		}
		raw = repaired
	}

	v := gjson.Get(raw, "agent")
	if !v.Exists() {
		return "", fmt.Errorf("classify: reply %q has no agent", reply)
	}

	return strings.TrimSpace(v.String()), nil
}

// ChainClassifier asks its classifiers in order and returns the first
// answer naming an agent with at least MinConfidence. Errors are skipped
// unless every classifier fails.
type ChainClassifier struct {
	Classifiers   []Classifier
	MinConfidence float64
}

// NewChainClassifier chains classifiers with a minimum confidence of 1.
func NewChainClassifier(cs ...Classifier) *ChainClassifier {
	return &ChainClassifier{Classifiers: cs, MinConfidence: 1}
}

// Classify implements Classifier.
func (c *ChainClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	var (
		errs     []error
		fallback = Intent{Agent: AgentNone}
	)

	for _, cl := range c.Classifiers {
		intent, err := cl.Classify(ctx, text)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if intent.Agent == AgentNone {
			continue
		}
		if intent.Confidence >= c.MinConfidence {
			return intent, nil
		}
		if intent.Confidence > fallback.Confidence {
			fallback = intent
		}
	}

	if len(errs) == len(c.Classifiers) && len(errs) > 0 {
		return fallback, errs[0]
	}

	return fallback, nil
}
