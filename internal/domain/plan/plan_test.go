package plan

import (
	"errors"
	"testing"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
)

func TestParseExtractsEmbeddedJSON(t *testing.T) {
	text := `Вот мой план:
{"agents": ["legal_norms_agent", "analytics_agent"], "clarifying_questions": ["Какой регион?"], "plan": "Анализ норм"}
Надеюсь, это поможет.`

	p, dropped, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(dropped) != 0 {
		t.Fatalf("unexpected dropped agents %v", dropped)
	}
	if len(p.Agents) != 2 || p.Agents[0] != agent.KindLegalNorms || p.Agents[1] != agent.KindAnalytics {
		t.Fatalf("unexpected agents %v", p.Agents)
	}
	if p.Summary != "Анализ норм" {
		t.Fatalf("unexpected summary %q", p.Summary)
	}
	if len(p.ClarifyingQuestions) != 1 {
		t.Fatalf("unexpected questions %v", p.ClarifyingQuestions)
	}
}

func TestParseDropsUnknownAgents(t *testing.T) {
	p, dropped, err := Parse(`{"agents": ["legal_norms_agent", "tax_wizard_agent", " judicial_practice_agent "], "plan": "x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != "tax_wizard_agent" {
		t.Fatalf("expected tax_wizard_agent dropped, got %v", dropped)
	}
	// Registered names survive, including ones needing a trim.
	if len(p.Agents) != 2 || p.Agents[1] != agent.KindJudicialPractice {
		t.Fatalf("unexpected agents %v", p.Agents)
	}
}

func TestParseNoJSON(t *testing.T) {
	if _, _, err := Parse("никакого JSON здесь нет"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, _, err := Parse(`{"agents": [unquoted]}`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestDefaultPlanShape(t *testing.T) {
	p := Default()
	want := []agent.Kind{agent.KindLegalNorms, agent.KindJudicialPractice, agent.KindAnalytics}
	if len(p.Agents) != len(want) {
		t.Fatalf("unexpected agents %v", p.Agents)
	}
	for i, k := range want {
		if p.Agents[i] != k {
			t.Fatalf("agent %d: expected %s, got %s", i, k, p.Agents[i])
		}
	}
	if len(p.ClarifyingQuestions) != 2 {
		t.Fatalf("default plan must carry 2 clarifying questions, got %v", p.ClarifyingQuestions)
	}
}

func TestImageOnlyPlan(t *testing.T) {
	p := ImageOnly()
	if len(p.Agents) != 1 || p.Agents[0] != agent.KindDocumentAnalysis {
		t.Fatalf("unexpected agents %v", p.Agents)
	}
}
