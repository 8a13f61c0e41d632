// Package document classifies analyzed legal documents and extracts
// structured fields from the analysis narrative.
package document

import (
	"regexp"
	"strings"
)

// Type is a document type code.
type Type string

// Known document types. The order of types in the enumeration below is
// the tie-break order for classification.
const (
	TypeContract        Type = "contract"
	TypeLawsuit         Type = "lawsuit"
	TypeCourtDecision   Type = "court_decision"
	TypeAppeal          Type = "appeal"
	TypePowerOfAttorney Type = "power_of_attorney"
	TypeStatute         Type = "statute"
	TypeLegalStatement  Type = "legal_statement"
	TypeNotaryDocument  Type = "notary_document"
	TypeOfficialLetter  Type = "official_letter"
	TypeOther           Type = "other_legal_document"
	TypeUnknown         Type = "unknown"
)

// types is the fixed enumeration order used for scoring and tie-breaks.
var types = []Type{
	TypeContract,
	TypeLawsuit,
	TypeCourtDecision,
	TypeAppeal,
	TypePowerOfAttorney,
	TypeStatute,
	TypeLegalStatement,
	TypeNotaryDocument,
	TypeOfficialLetter,
}

// keywords drive classification: one point per keyword found in the text.
var keywords = map[Type][]string{
	TypeContract:        {"договор", "соглашение", "контракт", "стороны", "обязательства", "предмет договора"},
	TypeLawsuit:         {"исковое заявление", "истец", "ответчик", "исковые требования", "взыскать"},
	TypeCourtDecision:   {"решение суда", "суд решил", "постановил", "резолютивная часть", "мотивировочная часть"},
	TypeAppeal:          {"апелляционная жалоба", "апелляция", "обжаловать", "вышестоящий суд"},
	TypePowerOfAttorney: {"доверенность", "доверяю", "уполномочивает", "представлять интересы"},
	TypeStatute:         {"устав", "учредительный документ", "уставный капитал", "общее собрание"},
	TypeLegalStatement:  {"ходатайство", "прошу суд", "заявитель", "заявление"},
	TypeNotaryDocument:  {"нотариус", "нотариально", "удостоверено", "реестровый номер"},
	TypeOfficialLetter:  {"официальное письмо", "уведомление", "исх.", "направляем"},
}

var readable = map[Type]string{
	TypeContract:        "Договор",
	TypeLawsuit:         "Исковое заявление",
	TypeCourtDecision:   "Судебное решение",
	TypeAppeal:          "Апелляционная жалоба",
	TypePowerOfAttorney: "Доверенность",
	TypeStatute:         "Устав",
	TypeLegalStatement:  "Ходатайство",
	TypeNotaryDocument:  "Нотариальный документ",
	TypeOfficialLetter:  "Официальное письмо",
	TypeOther:           "Иной юридический документ",
	TypeUnknown:         "Неопределенный тип документа",
}

// Readable returns the Russian label for a document type.
func (t Type) Readable() string {
	if r, ok := readable[t]; ok {
		return r
	}
	return readable[TypeUnknown]
}

// Complex reports whether the type usually warrants deeper analysis.
func (t Type) Complex() bool {
	return t == TypeContract || t == TypeCourtDecision || t == TypeStatute
}

// DetermineType classifies the analysis text by counting keyword
// occurrences per type. The strictly highest score wins; a tie resolves
// to whichever type comes first in the fixed enumeration order. A text
// matching nothing maps to TypeOther; empty text maps to TypeUnknown.
func DetermineType(text string) Type {
	if text == "" {
		return TypeUnknown
	}
	lower := strings.ToLower(text)

	best := TypeOther
	bestScore := 0
	for _, t := range types {
		score := 0
		for _, kw := range keywords[t] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best
}

// FollowUpTips returns fixed next-step suggestions for the given type.
func FollowUpTips(t Type) []string {
	tips := map[Type][]string{
		TypeContract: {
			"Проверьте сроки исполнения обязательств",
			"Обратите внимание на условия расторжения договора",
			"Проверьте ответственность сторон за нарушение обязательств",
		},
		TypeLawsuit: {
			"Проверьте соблюдение процессуальных сроков",
			"Обратите внимание на обоснованность исковых требований",
			"Рассмотрите возможность мирового соглашения",
		},
		TypeCourtDecision: {
			"Проверьте сроки обжалования решения",
			"Изучите мотивировочную часть решения",
			"Определите порядок исполнения решения",
		},
		TypeAppeal: {
			"Проверьте соблюдение сроков подачи жалобы",
			"Изучите обоснованность доводов жалобы",
			"Рассмотрите необходимость предоставления дополнительных доказательств",
		},
		TypePowerOfAttorney: {
			"Проверьте срок действия доверенности",
			"Уточните объем полномочий представителя",
			"Проверьте наличие права передоверия",
		},
	}
	if t, ok := tips[t]; ok {
		return t
	}
	return []string{
		"Проверьте правильность оформления документа",
		"Обратите внимание на сроки и даты в документе",
		"Изучите права и обязанности сторон",
	}
}

// HasTables heuristically detects tabular content in the analysis text.
func HasTables(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.Count(line, "  ") > 3 || strings.Count(line, "\t") > 1 {
			return true
		}
	}
	lower := strings.ToLower(text)
	for _, marker := range []string{"таблица", "табл.", "столбец", "строка", "графа", "ячейка"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// StructuredData holds fields extracted from the analysis narrative.
// Only fields found in the text are populated.
type StructuredData struct {
	Dates        []string `json:"dates,omitempty"`
	MoneyAmounts []string `json:"money_amounts,omitempty"`
	Names        []string `json:"names,omitempty"`
	Parties      []string `json:"parties,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Court        string   `json:"court,omitempty"`
	CaseNumber   string   `json:"case_number,omitempty"`
	Plaintiff    string   `json:"plaintiff,omitempty"`
	Defendant    string   `json:"defendant,omitempty"`
	Addressee    string   `json:"addressee,omitempty"`
	From         string   `json:"from,omitempty"`
}

// Empty reports whether nothing was extracted.
func (s *StructuredData) Empty() bool {
	return len(s.Dates) == 0 && len(s.MoneyAmounts) == 0 && len(s.Names) == 0 &&
		len(s.Parties) == 0 && s.Subject == "" && s.Court == "" && s.CaseNumber == "" &&
		s.Plaintiff == "" && s.Defendant == "" && s.Addressee == "" && s.From == ""
}

var (
	reDate  = regexp.MustCompile(`\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`)
	reMoney = regexp.MustCompile(`\d+(?:[\s,.]\d+)*\s?(?:руб(?:лей)?|₽|RUB|USD|\$|EUR|€)`)
	reName  = regexp.MustCompile(`[А-Я][а-я]+\s+[А-Я][а-я]+(?:\s+[А-Я][а-я]+)?`)

	reParty     = regexp.MustCompile(`Сторона\s+\d+[:\s]+`)
	reSubject   = regexp.MustCompile(`(?s)Предмет(?:\s+договора)?[:\s]+(.*?)(?:\n\n|\n[А-Я]|$)`)
	reCourt     = regexp.MustCompile(`(?s)(?i:суд)[:\s]+(.*?)(?:\n\n|\n[А-Я]|$)`)
	reCaseNum   = regexp.MustCompile(`(?i:дело|номер дела|№)[:\s]+([A-Za-zА-Яа-я0-9№/-]+)`)
	rePlaintiff = regexp.MustCompile(`(?s)(?i:истец)[:\s]+(.*?)(?:\n\n|\n[А-Я]|(?i:ответчик)|$)`)
	reDefendant = regexp.MustCompile(`(?s)(?i:ответчик)[:\s]+(.*?)(?:\n\n|\n[А-Я]|$)`)
	reAddressee = regexp.MustCompile(`(?s)(?:Кому|Директору|Руководителю)[:\s]+(.*?)(?:\n\n|\nот\s|$)`)
	reFrom      = regexp.MustCompile(`(?s)(?:от|заявитель)[:\s]+(.*?)(?:\n\n|\n[А-Я]|$)`)
)

// ExtractStructuredData pulls dates, monetary amounts, personal names and
// type-specific fields out of the analysis text. Returns nil when nothing
// was found.
func ExtractStructuredData(text string, t Type) *StructuredData {
	s := &StructuredData{
		Dates:        reDate.FindAllString(text, -1),
		MoneyAmounts: reMoney.FindAllString(text, -1),
		Names:        reName.FindAllString(text, -1),
	}

	switch t {
	case TypeContract:
		s.Parties = extractParties(text)
		s.Subject = firstGroup(reSubject, text)
	case TypeCourtDecision:
		s.Court = firstGroup(reCourt, text)
		s.CaseNumber = firstGroup(reCaseNum, text)
		s.Plaintiff = firstGroup(rePlaintiff, text)
		s.Defendant = firstGroup(reDefendant, text)
	case TypeLegalStatement:
		s.Addressee = firstGroup(reAddressee, text)
		s.From = firstGroup(reFrom, text)
	}

	if s.Empty() {
		return nil
	}
	return s
}

// extractParties slices the text between "Сторона N" markers.
func extractParties(text string) []string {
	locs := reParty.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var parties []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if p := strings.TrimSpace(text[loc[1]:end]); p != "" {
			parties = append(parties, p)
		}
	}
	return parties
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Analysis is the full outcome of analyzing one document image.
type Analysis struct {
	Text         string          `json:"document_analysis"`
	Type         Type            `json:"document_type"`
	TypeReadable string          `json:"document_type_readable"`
	Tips         []string        `json:"follow_up_tips"`
	HasTables    bool            `json:"has_tables"`
	IsComplex    bool            `json:"is_complex"`
	Structured   *StructuredData `json:"structured_data,omitempty"`
}

// Analyze runs the full local post-processing pipeline over the LLM's
// narrative text.
func Analyze(text string) *Analysis {
	t := DetermineType(text)
	return &Analysis{
		Text:         text,
		Type:         t,
		TypeReadable: t.Readable(),
		Tips:         FollowUpTips(t),
		HasTables:    HasTables(text),
		IsComplex:    t.Complex(),
		Structured:   ExtractStructuredData(text, t),
	}
}
