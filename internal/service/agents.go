package service

import (
	"context"
	"log/slog"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/search"
)

// minIndexResults is the threshold below which the analytics agent
// supplements the index with web search.
const minIndexResults = 3

const legalNormsSystem = `Вы - специализированный юридический агент по правовым нормам Российской Федерации. Ваша задача - проанализировать запрос пользователя и предоставить информацию о релевантных правовых нормах.

Ваш ответ должен:
1. Определить ключевые законы, кодексы и нормативные акты, относящиеся к запросу
2. Процитировать и объяснить релевантные статьи и положения
3. Предоставить структурированный анализ нормативной базы

Ваш ответ должен быть профессиональным, точным и основанным на актуальном российском законодательстве.`

const judicialSystem = `Вы - специалист по анализу судебной практики. Ваша задача - проанализировать предоставленные судебные решения и выявить ключевые моменты, тенденции и закономерности.

Анализ должен включать:
1. Основные правовые позиции судов
2. Ключевые аргументы
3. Применяемые нормы права
4. Выводы и рекомендации`

const analyticsSystem = `Вы - специализированный юридический агент по аналитике и комментариям к российскому законодательству. Ваша задача - проанализировать запрос пользователя и предоставить информацию на основе юридических комментариев, статей, книг и других аналитических материалов.

Ваш ответ должен:
1. Определить ключевые точки зрения и мнения экспертов по рассматриваемому вопросу
2. Представить различные подходы к решению вопроса
3. Обобщить аналитические выводы и рекомендации экспертов
4. Указать на тенденции в развитии юридической мысли по данному вопросу

Ваш ответ должен быть профессиональным, взвешенным и основанным на экспертных мнениях.`

const documentPrepSystem = `Вы - специализированный юридический агент по подготовке процессуальных документов и договоров. Ваша задача - подготовить документ на основе запроса пользователя и предоставленных правовых норм.

Документ должен:
1. Соответствовать всем требованиям российского законодательства
2. Содержать все необходимые реквизиты и разделы
3. Использовать корректную юридическую терминологию
4. Быть хорошо структурированным и готовым к использованию

Создайте полностью оформленный документ.`

// NewLegalNormsAgent retrieves statutes and codes and explains how they
// apply to the query.
func NewLegalNormsAgent(searcher search.Searcher, completer llm.Completer, log *slog.Logger) Specialist {
	return &searchSpecialist{
		kind:      agent.KindLegalNorms,
		category:  retrieval.CategoryLaws,
		topN:      7,
		system:    legalNormsSystem,
		errPrefix: "Произошла ошибка при анализе правовых норм",
		maxTokens: 2000,
		searcher:  searcher,
		llm:       completer,
		log:       log,
	}
}

// NewJudicialPracticeAgent retrieves court decisions and summarizes the
// courts' positions.
func NewJudicialPracticeAgent(searcher search.Searcher, completer llm.Completer, log *slog.Logger) Specialist {
	return &searchSpecialist{
		kind:      agent.KindJudicialPractice,
		category:  retrieval.CategoryCourtDecisions,
		topN:      7,
		system:    judicialSystem,
		errPrefix: "Произошла ошибка при анализе судебной практики",
		maxTokens: 4000,
		searcher:  searcher,
		llm:       completer,
		log:       log,
	}
}

// NewAnalyticsAgent retrieves commentaries and articles; when the index
// returns fewer than three snippets it supplements them with web search
// results.
func NewAnalyticsAgent(searcher search.Searcher, completer llm.Completer, web *WebSearchService, log *slog.Logger) Specialist {
	s := &searchSpecialist{
		kind:      agent.KindAnalytics,
		category:  retrieval.CategoryAnalytics,
		topN:      5,
		system:    analyticsSystem,
		errPrefix: "Произошла ошибка при анализе аналитических материалов",
		maxTokens: 2000,
		searcher:  searcher,
		llm:       completer,
		log:       log,
	}
	if web != nil {
		s.enrich = func(ctx context.Context, q string, have []retrieval.Snippet) []retrieval.Snippet {
			if len(have) >= minIndexResults {
				return have
			}
			return append(have, web.Search(ctx, q+" правовой анализ", 5)...)
		}
	}
	return s
}

// NewDocumentPrepAgent drafts procedural documents and contracts backed
// by retrieved statutes.
func NewDocumentPrepAgent(searcher search.Searcher, completer llm.Completer, log *slog.Logger) Specialist {
	return &searchSpecialist{
		kind:      agent.KindDocumentPrep,
		category:  retrieval.CategoryLaws,
		topN:      5,
		system:    documentPrepSystem,
		errPrefix: "Произошла ошибка при генерации документа",
		maxTokens: 4000,
		searcher:  searcher,
		llm:       completer,
		log:       log,
	}
}
