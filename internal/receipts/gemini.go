package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/angelmondragon/homestead-backend/pkg/config"
)

const receiptPrompt = "You are a grocery receipt parser.\n\n" +
	"Task:\n" +
	"- Read the attached receipt image.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"store\": {\"name\": string, \"address\": string or null, \"city\": string or null, " +
	"\"state\": string or null, \"postal_code\": string or null, \"phone\": string or null, " +
	"\"store_code\": string or null, \"tax_rate\": number or null (percent, e.g. 8.25)}\n" +
	"- \"transaction\": {\"date\": \"YYYY-MM-DD\" or null, \"time\": \"HH:MM\" or null}\n" +
	"- \"items\": array of {\"raw_text\": string (the line exactly as printed), \"brand\": string, " +
	"\"item_name\": string, \"unit\": string or null, \"count\": number or null, " +
	"\"price_per_count\": number or null, \"units\": number or null, \"price_per_unit\": number or null, " +
	"\"total_price\": number (pre-tax line amount), \"taxable\": boolean, " +
	"\"receipt_store_code\": string or null}\n" +
	"- \"subtotal\", \"tax\", \"total\": number or null\n\n" +
	"Rules:\n" +
	"- Use either count/price_per_count or units/price_per_unit for an item, never both.\n" +
	"- Weighed items (lb, kg, oz) use units/price_per_unit.\n" +
	"- Expand abbreviations in item_name but keep raw_text untouched.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

// GeminiParser reads receipts with a Gemini multimodal model.
type GeminiParser struct {
	client *genai.Client
	model  string
}

func NewGeminiParser(ctx context.Context, cfg config.GeminiConfig) (*GeminiParser, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiParser{client: client, model: model}, nil
}

func (p *GeminiParser) Parse(ctx context.Context, image []byte, mimeType string) (*ParsedReceipt, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: receiptPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return decodeReceipt(resp.Text())
}

func decodeReceipt(raw string) (*ParsedReceipt, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	var parsed ParsedReceipt
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal model output: %w", err)
	}
	if parsed.Items == nil {
		parsed.Items = []ParsedItem{}
	}
	return &parsed, nil
}

// cleanModelJSON strips markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
