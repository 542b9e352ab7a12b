package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/internal/utils"
)

const (
	chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

	extractPrompt = "Extract the following information from this receipt: " +
		"store name, purchase date, total amount, total items, and for each " +
		"item: name, code, size, price, and purchase date. Return ONLY a JSON " +
		"object with keys store_name, purchase_date, total_amount, total_items " +
		"and items, without any markdown formatting or additional text."

	insightsPrompt = "You are a shopping insights expert. Analyze the " +
		"following receipt data and provide meaningful insights about shopping " +
		"patterns, spending habits, and recommendations. Focus on: most " +
		"frequent stores, average spending per trip, common items purchased, " +
		"spending trends over time and potential savings opportunities. Format " +
		"the response in a clear, structured way with sections and bullet points."
)

type (
	// Extractor is the AI collaborator boundary: receipt bytes in,
	// structured fields or free-form insight text out. Both calls are
	// fallible and neither is deterministic.
	Extractor interface {
		ExtractReceipt(ctx context.Context, data []byte, mimeType string) (domain.ExtractedReceipt, error)
		GenerateInsights(ctx context.Context, receiptsJSON []byte) (string, error)
	}

	openAIExtractor struct {
		apiKey     string
		model      string
		httpClient *http.Client
		log        *zap.Logger
	}
)

func NewOpenAIExtractor(cfg *utils.Config, log *zap.Logger) Extractor {
	return &openAIExtractor{
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
	}
}

func (e *openAIExtractor) ExtractReceipt(ctx context.Context, data []byte, mimeType string) (domain.ExtractedReceipt, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	body := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "image_url", "image_url": map[string]string{"url": dataURI}},
					{"type": "text", "text": extractPrompt},
				},
			},
		},
		"temperature": 0.1,
	}

	content, err := e.complete(ctx, body)
	if err != nil {
		return domain.ExtractedReceipt{}, err
	}

	result, err := parseExtraction(content)
	if err != nil {
		e.log.Warn("unusable extraction response", zap.Error(err), zap.String("content", content))
		return domain.ExtractedReceipt{}, err
	}
	return result, nil
}

func (e *openAIExtractor) GenerateInsights(ctx context.Context, receiptsJSON []byte) (string, error) {
	body := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": insightsPrompt},
			{"role": "user", "content": string(receiptsJSON)},
		},
		"temperature": 1,
		"max_tokens":  1000,
	}

	content, err := e.complete(ctx, body)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("no insights generated")
	}
	return content, nil
}

func (e *openAIExtractor) complete(ctx context.Context, body map[string]interface{}) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatCompletionsURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai API error: %s - %s", resp.Status, string(raw))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", domain.ErrExtractionFailed
	}
	return out.Choices[0].Message.Content, nil
}

// looseString tolerates the model quoting numbers or not.
type looseString string

func (l *looseString) UnmarshalJSON(b []byte) error {
	*l = looseString(strings.Trim(strings.TrimSpace(string(b)), `"`))
	return nil
}

type rawItem struct {
	Name         string      `json:"name"`
	Code         string      `json:"code"`
	Size         string      `json:"size"`
	Price        looseString `json:"price"`
	PurchaseDate string      `json:"purchase_date"`
}

type rawExtraction struct {
	StoreName    string      `json:"store_name"`
	PurchaseDate string      `json:"purchase_date"`
	TotalAmount  looseString `json:"total_amount"`
	TotalItems   looseString `json:"total_items"`
	Items        []rawItem   `json:"items"`
}

// parseExtraction validates the model output and parses every amount as a
// decimal. Any unparseable amount fails the whole receipt; nothing is
// coerced to zero.
func parseExtraction(content string) (domain.ExtractedReceipt, error) {
	cleaned := stripFences(content)

	var raw rawExtraction
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return domain.ExtractedReceipt{}, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	if raw.StoreName == "" || raw.PurchaseDate == "" || raw.TotalAmount == "" || len(raw.Items) == 0 {
		return domain.ExtractedReceipt{}, domain.ErrMissingFields
	}

	total, err := decimal.NewFromString(string(raw.TotalAmount))
	if err != nil {
		return domain.ExtractedReceipt{}, fmt.Errorf("%w: total %q", domain.ErrInvalidAmount, raw.TotalAmount)
	}

	date, err := parseDate(raw.PurchaseDate)
	if err != nil {
		return domain.ExtractedReceipt{}, fmt.Errorf("%w: date %q", domain.ErrMissingFields, raw.PurchaseDate)
	}

	totalItems := len(raw.Items)
	if raw.TotalItems != "" {
		if n, err := decimal.NewFromString(string(raw.TotalItems)); err == nil {
			totalItems = int(n.IntPart())
		}
	}

	items := make([]domain.ExtractedItem, 0, len(raw.Items))
	for _, it := range raw.Items {
		if it.Name == "" {
			return domain.ExtractedReceipt{}, domain.ErrMissingFields
		}
		price, err := decimal.NewFromString(string(it.Price))
		if err != nil {
			return domain.ExtractedReceipt{}, fmt.Errorf("%w: item %q price %q", domain.ErrInvalidAmount, it.Name, it.Price)
		}
		itemDate := date
		if it.PurchaseDate != "" {
			if d, err := parseDate(it.PurchaseDate); err == nil {
				itemDate = d
			}
		}
		items = append(items, domain.ExtractedItem{
			Name:         it.Name,
			Code:         it.Code,
			Size:         it.Size,
			Price:        price,
			PurchaseDate: itemDate,
		})
	}

	return domain.ExtractedReceipt{
		StoreName:   raw.StoreName,
		Date:        date,
		TotalAmount: total,
		TotalItems:  totalItems,
		Items:       items,
	}, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

func parseDate(s string) (time.Time, error) {
	layouts := []string{"2006-01-02", time.RFC3339, "01/02/2006", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
