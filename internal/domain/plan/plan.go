// Package plan defines the classifier's execution plan for one query.
package plan

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
)

// ErrNoJSON is returned when no JSON object can be located in the
// classifier output.
var ErrNoJSON = errors.New("no JSON object found in classifier output")

// AgentPlan is produced once per query by classification and is read-only
// afterwards.
type AgentPlan struct {
	Agents              []agent.Kind `json:"agents"`
	ClarifyingQuestions []string     `json:"clarifying_questions"`
	Summary             string       `json:"plan"`
}

// Default is the fallback plan used whenever classification fails or its
// output cannot be interpreted.
func Default() *AgentPlan {
	return &AgentPlan{
		Agents: []agent.Kind{
			agent.KindLegalNorms,
			agent.KindJudicialPractice,
			agent.KindAnalytics,
		},
		ClarifyingQuestions: []string{
			"Уточните, пожалуйста, какие аспекты вашего вопроса наиболее важны?",
			"Есть ли какие-то конкретные законы или нормативные акты, которые вас интересуют?",
		},
		Summary: "Анализ правовых норм, изучение судебной практики, сбор аналитической информации",
	}
}

// ImageOnly is the fixed plan for image-only input: the intent is
// unambiguous, so the classifier is bypassed entirely.
func ImageOnly() *AgentPlan {
	return &AgentPlan{
		Agents:              []agent.Kind{agent.KindDocumentAnalysis},
		ClarifyingQuestions: []string{"Какой аспект документа вас интересует?"},
		Summary:             "Анализ изображения документа",
	}
}

// Parse extracts the first well-formed JSON object from free-text
// classifier output and interprets it as an AgentPlan. Unknown agent
// names are dropped and returned so the caller can log them; they never
// fail the parse. Minor formatting noise around the object is tolerated:
// the substring between the first '{' and the last '}' is taken, nothing
// more exotic is attempted.
func Parse(text string) (p *AgentPlan, dropped []string, err error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, nil, ErrNoJSON
	}

	var raw struct {
		Agents              []string `json:"agents"`
		ClarifyingQuestions []string `json:"clarifying_questions"`
		Summary             string   `json:"plan"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, nil, err
	}

	p = &AgentPlan{
		ClarifyingQuestions: raw.ClarifyingQuestions,
		Summary:             raw.Summary,
	}
	for _, name := range raw.Agents {
		k := agent.Kind(strings.TrimSpace(name))
		if !k.Valid() {
			dropped = append(dropped, name)
			continue
		}
		p.Agents = append(p.Agents, k)
	}
	return p, dropped, nil
}
