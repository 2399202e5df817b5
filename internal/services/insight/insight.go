// Package insight содержит бизнес-логику ответов на вопросы о финансах:
// разбор намерения вопроса, агрегацию данных за период и обращение
// к языковой модели.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// SummaryRepository агрегирует транзакции пользователя за период.
type SummaryRepository interface {
	SummarizeRange(ctx context.Context, userID string, filter models.SummaryFilter) (*models.TransactionSummary, error)
}

// AIClient определяет методы клиента языковой модели.
type AIClient interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// Answer — ответ модели вместе с контекстом данных, по которым он построен.
type Answer struct {
	Question  string     `json:"question"`
	Text      string     `json:"answer"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Count     int        `json:"transaction_count"`
}

// Service реализует ответы на вопросы о финансах пользователя.
type Service struct {
	repo SummaryRepository
	ai   AIClient
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo SummaryRepository, ai AIClient, log *slog.Logger) *Service {
	return &Service{repo: repo, ai: ai, log: log}
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ParseIntent извлекает из текста вопроса тип транзакций и границы периода.
// Явное имя месяца трактуется как месяц текущего года и имеет приоритет
// над относительными периодами.
func ParseIntent(question string, now time.Time) models.SummaryFilter {
	lower := strings.ToLower(question)
	var result models.SummaryFilter

	switch {
	case strings.Contains(lower, "expense") || strings.Contains(lower, "spent") || strings.Contains(lower, "spending"):
		result.Type = models.TransactionTypeExpense
	case strings.Contains(lower, "income") || strings.Contains(lower, "earned") || strings.Contains(lower, "earning"):
		result.Type = models.TransactionTypeIncome
	}

	for i, month := range monthNames {
		if strings.Contains(lower, month) {
			start := time.Date(now.Year(), time.Month(i+1), 1, 0, 0, 0, 0, now.Location())
			end := start.AddDate(0, 1, 0).Add(-time.Second)
			result.StartDate = &start
			result.EndDate = &end
			return result
		}
	}

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	switch {
	case strings.Contains(lower, "last month"):
		start := startOfMonth.AddDate(0, -1, 0)
		end := startOfMonth.Add(-time.Second)
		result.StartDate = &start
		result.EndDate = &end
	case strings.Contains(lower, "this month"):
		end := startOfMonth.AddDate(0, 1, 0).Add(-time.Second)
		result.StartDate = &startOfMonth
		result.EndDate = &end
	case strings.Contains(lower, "this year") || strings.Contains(lower, "this annual"):
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), 12, 31, 23, 59, 59, 0, now.Location())
		result.StartDate = &start
		result.EndDate = &end
	case strings.Contains(lower, "last year"):
		start := time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year()-1, 12, 31, 23, 59, 59, 0, now.Location())
		result.StartDate = &start
		result.EndDate = &end
	case strings.Contains(lower, "today"):
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 1).Add(-time.Second)
		result.StartDate = &start
		result.EndDate = &end
	case strings.Contains(lower, "this week"):
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -int(now.Weekday()))
		end := now
		result.StartDate = &start
		result.EndDate = &end
	case strings.Contains(lower, "last 3 months") || strings.Contains(lower, "last three months"):
		start := startOfMonth.AddDate(0, -3, 0)
		end := now
		result.StartDate = &start
		result.EndDate = &end
	case strings.Contains(lower, "last 6 months") || strings.Contains(lower, "last six months"):
		start := startOfMonth.AddDate(0, -6, 0)
		end := now
		result.StartDate = &start
		result.EndDate = &end
	}

	return result
}

// Ask разбирает вопрос, агрегирует данные за найденный период и
// запрашивает ответ у языковой модели.
func (s *Service) Ask(ctx context.Context, userID, question string) (*Answer, error) {
	const op = "services.insight.Ask"

	filter := ParseIntent(question, time.Now().UTC())
	summary, err := s.repo.SummarizeRange(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prompt, err := buildPrompt(question, filter, summary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	text, err := s.ai.GenerateAnswer(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Answer{
		Question:  question,
		Text:      text,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		Count:     summary.Count,
	}, nil
}

func buildPrompt(question string, filter models.SummaryFilter, summary *models.TransactionSummary) (string, error) {
	data := map[string]any{
		"summary": summary,
		"date_range": map[string]string{
			"from": formatBound(filter.StartDate, "all time"),
			"to":   formatBound(filter.EndDate, "now"),
		},
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"You are a personal finance assistant. Answer the user's question using only the financial data below. Be concise and specific with amounts.\n\nFinancial data:\n%s\n\nQuestion: %s",
		payload, question), nil
}

func formatBound(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format(time.RFC3339)
}
