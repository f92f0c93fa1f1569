// Package capture turns a brokerage trade-confirmation screenshot into a
// confirmed transaction: vision-model extraction, human correction, then an
// authoritative database write with a best-effort spreadsheet mirror.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/stocknote/stocknote/internal/store"
)

// Mode selects the extraction flavor.
type Mode string

const (
	ModeTrade    Mode = "trade"
	ModeDividend Mode = "dividend"
)

// DefaultModelName is the vision model used for screenshot extraction.
const DefaultModelName = "gemini-2.5-flash"

const extractionPrompt = "You are a parser for Korean and US brokerage trade-confirmation screenshots.\n\n" +
	"Task:\n" +
	"- Read the attached screenshot of a single trade confirmation.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\", or null if not visible\n" +
	"- \"ticker\": string (stock code such as \"005930\" or symbol such as \"AAPL\")\n" +
	"- \"name\": string or null (display name of the security)\n" +
	"- \"price\": number (unit price; strip currency symbols and separators)\n" +
	"- \"quantity\": number\n" +
	"- \"type\": string, \"BUY\" or \"SELL\"\n\n" +
	"Rules:\n" +
	"- If a field cannot be determined, use null.\n" +
	"- Amounts formatted like \"1,234,567원\" or \"$1,234.56\" must become plain numbers.\n" +
	"- Return ONLY valid raw JSON.\n" +
	"- Do NOT wrap the response in code fences.\n" +
	"- Do NOT use ```json or any Markdown.\n" +
	"- Output must begin with \"{\" and end with \"}\".\n"

// Extraction is the model's candidate reading of a screenshot. Nothing in it
// is trusted: every field is human-editable before it becomes a transaction.
type Extraction struct {
	Date     string          `json:"date"`
	Ticker   string          `json:"ticker"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Type     store.TxType    `json:"type"`
}

// Analyzer extracts trade fields from screenshots with a vision model.
type Analyzer struct {
	client *genai.Client
	model  string
	now    func() time.Time
}

// NewAnalyzer creates an analyzer. Credentials come from the environment the
// way the genai client resolves them (GEMINI_API_KEY or Vertex env vars).
func NewAnalyzer(ctx context.Context) (*Analyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("capture: creating genai client: %w", err)
	}
	return &Analyzer{client: client, model: DefaultModelName, now: time.Now}, nil
}

// Analyze sends the screenshot to the model and returns the parsed candidate
// fields. Model or transport failures return an error; the HTTP handler maps
// any error to a retryable "no result" response, never a thrown failure.
// Field-level uncertainty fails open instead: unreadable numbers become 0, a
// missing date becomes today, a missing type becomes BUY, so the user always
// gets something editable.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string, mode Mode) (*Extraction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("capture: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("capture: empty response from model")
	}

	extraction, err := parseExtraction(rawText, a.now())
	if err != nil {
		return nil, err
	}

	if mode == ModeDividend {
		coerceDividend(extraction)
	}

	return extraction, nil
}

// coerceDividend overrides the model's type and quantity guesses. In dividend
// mode they are not trusted at all: a dividend credit is always recorded as a
// single DIVIDEND unit priced at the credited amount.
func coerceDividend(e *Extraction) {
	e.Type = store.TxDividend
	e.Quantity = decimal.NewFromInt(1)
}
