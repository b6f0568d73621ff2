package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// itemsPrompt asks for the structured line items of one receipt frame.
const itemsPrompt = `Analyze this receipt image and extract every purchased line item, ignoring supermarket discounts.

For each item provide:
1. "item_name": the description of the item, as specific as the receipt text allows.
2. "item_size": the quantity purchased for that line item. If not explicitly stated, assume 1. If it is a weight (e.g. 0.5 kg), use that value. Interpret fractional quantities like "1/2 DOZEN" as numbers (6).
3. "price_per_unit": the price of a single unit. If only a total for multiple units is printed (e.g. "2 for $5.00"), calculate the per-unit price (2.50). If it is a price per kg/lb, use that. Ensure this is a numerical value.

Return the data as a valid JSON list of objects with the keys "item_name", "item_size", and "price_per_unit".
Example: [{"item_name": "Fuji Apples", "item_size": 3, "price_per_unit": 1.50}, {"item_name": "Organic Milk 1L", "item_size": 1, "price_per_unit": 2.79}]
If no items are found, or the image is not a receipt, return an empty JSON list [].
Focus ONLY on the individual purchased line items. IGNORE headers, footers, store name, date, loyalty card information, subtotals, taxes, total amount, payment details, and any promotional text.
Ensure the output is ONLY the JSON list and nothing else.`

// datePrompt asks for the receipt date of one frame.
const datePrompt = `Analyze this image and extract a single date written in the format MM/DD/YY.
Focus ONLY on the date.
Ensure the output is ONLY the date string and nothing else.
If no date exists, return an empty string.`

// Gemini implements the Service interface using Google Gemini.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	horizon time.Duration
	now     func() time.Time
}

// NewGemini creates a new Gemini Service instance.
func NewGemini(apiKey, modelName string, dateHorizon time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// Low temperature keeps the output close to the receipt text.
	model.SetTemperature(0.2)

	return &Gemini{
		client:  client,
		model:   model,
		horizon: dateHorizon,
		now:     time.Now,
	}, nil
}

// generate sends one frame image plus a prompt and returns the model's
// text response.
func (g *Gemini) generate(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Frames are always PNG by the time they reach the model.
	parts := []genai.Part{
		genai.ImageData("png", image),
		genai.Text(prompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// ExtractItems returns the raw line items visible in one frame.
func (g *Gemini) ExtractItems(ctx context.Context, image []byte) ([]Item, error) {
	text, err := g.generate(ctx, image, itemsPrompt)
	if err != nil {
		return nil, err
	}
	return parseItems(text), nil
}

// ExtractDate returns the receipt date visible in one frame.
func (g *Gemini) ExtractDate(ctx context.Context, image []byte) (string, error) {
	text, err := g.generate(ctx, image, datePrompt)
	if err != nil {
		return "", err
	}
	return parseDate(text, g.now(), g.horizon), nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
