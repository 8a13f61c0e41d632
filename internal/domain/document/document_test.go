package document

import (
	"strings"
	"testing"
)

func TestDetermineTypeScoring(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Type
	}{
		{
			name: "contract",
			text: "Договор аренды. Стороны несут обязательства, предмет договора описан ниже.",
			want: TypeContract,
		},
		{
			name: "lawsuit",
			text: "Исковое заявление. Истец просит взыскать с ответчика сумму долга.",
			want: TypeLawsuit,
		},
		{
			name: "no keywords",
			text: "Просто произвольный текст без юридической лексики.",
			want: TypeOther,
		},
		{
			name: "empty",
			text: "",
			want: TypeUnknown,
		},
		{
			name: "case insensitive",
			text: "ДОГОВОР подписан, СТОРОНЫ согласны, ОБЯЗАТЕЛЬСТВА приняты.",
			want: TypeContract,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineType(tc.text); got != tc.want {
				t.Fatalf("DetermineType(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestDetermineTypeTieBreakIsDeterministic(t *testing.T) {
	// One contract keyword and one power-of-attorney keyword: a tie.
	// The earlier type in the enumeration order must win, every time.
	text := "Здесь упомянут контракт и доверенность."
	if got := DetermineType(text); got != TypeContract {
		t.Fatalf("tie resolved to %s, want %s", got, TypeContract)
	}
	for range 50 {
		if got := DetermineType(text); got != TypeContract {
			t.Fatalf("tie-break not stable: got %s", got)
		}
	}
}

func TestReadableFallsBackToUnknown(t *testing.T) {
	if got := Type("martian_scroll").Readable(); got != readable[TypeUnknown] {
		t.Fatalf("unexpected label %q", got)
	}
	if got := TypeContract.Readable(); got != "Договор" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestHasTables(t *testing.T) {
	if !HasTables("Ниже приведена таблица платежей.") {
		t.Fatal("keyword marker not detected")
	}
	if !HasTables("a\tb\tc\td") {
		t.Fatal("tab-separated row not detected")
	}
	if HasTables("Обычный абзац текста.") {
		t.Fatal("false positive on plain text")
	}
}

func TestExtractStructuredDataContract(t *testing.T) {
	text := "Договор от 01.02.2024 на сумму 150 000 руб.\n" +
		"Сторона 1: ООО Ромашка\n" +
		"Сторона 2: Иванов Иван Иванович\n" +
		"Предмет договора: аренда офисного помещения\n\n" +
		"Прочие условия."
	s := ExtractStructuredData(text, TypeContract)
	if s == nil {
		t.Fatal("expected structured data")
	}
	if len(s.Dates) != 1 || s.Dates[0] != "01.02.2024" {
		t.Fatalf("unexpected dates %v", s.Dates)
	}
	if len(s.MoneyAmounts) == 0 || !strings.Contains(s.MoneyAmounts[0], "руб") {
		t.Fatalf("unexpected amounts %v", s.MoneyAmounts)
	}
	if len(s.Parties) != 2 {
		t.Fatalf("unexpected parties %v", s.Parties)
	}
	if !strings.Contains(s.Subject, "аренда офисного помещения") {
		t.Fatalf("unexpected subject %q", s.Subject)
	}
}

func TestExtractStructuredDataCourtDecision(t *testing.T) {
	text := "Суд: Арбитражный суд города Москвы\n\n" +
		"Дело № А40-12345/2024\n" +
		"Истец: ООО Ромашка\n" +
		"Ответчик: ИП Петров\n\n"
	s := ExtractStructuredData(text, TypeCourtDecision)
	if s == nil {
		t.Fatal("expected structured data")
	}
	if s.Court == "" {
		t.Fatal("court not extracted")
	}
	if s.CaseNumber == "" {
		t.Fatal("case number not extracted")
	}
	if !strings.Contains(s.Plaintiff, "Ромашка") || !strings.Contains(s.Defendant, "Петров") {
		t.Fatalf("parties not extracted: plaintiff=%q defendant=%q", s.Plaintiff, s.Defendant)
	}
}

func TestExtractStructuredDataNilWhenEmpty(t *testing.T) {
	if s := ExtractStructuredData("nothing to see here", TypeOther); s != nil {
		t.Fatalf("expected nil, got %+v", s)
	}
}

func TestAnalyzePipeline(t *testing.T) {
	a := Analyze("Договор аренды между сторонами. Предмет договора: помещение. Обязательства сторон описаны.")
	if a.Type != TypeContract {
		t.Fatalf("unexpected type %s", a.Type)
	}
	if a.TypeReadable != "Договор" {
		t.Fatalf("unexpected readable %q", a.TypeReadable)
	}
	if !a.IsComplex {
		t.Fatal("contracts are complex documents")
	}
	if len(a.Tips) != 3 {
		t.Fatalf("unexpected tips %v", a.Tips)
	}
}
