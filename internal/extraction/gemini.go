package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// invoiceSchema constrains the Gemini response to the invoice shape so the
// model emits JSON only
var invoiceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"date": {
			Type:        genai.TypeString,
			Nullable:    true,
			Description: "Invoice issue date only (DD-MM-YYYY)",
		},
		"products": {
			Type:        genai.TypeArray,
			Description: "List of products in the invoice",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"Item_ID": {
						Type:        genai.TypeString,
						Description: "The part number or unique identifier for the item listed on the invoice.",
					},
					"Item_Description": {
						Type:        genai.TypeString,
						Description: "A textual description of the item, usually including product type and compatibility.",
					},
					"Unit_Price": {
						Type:        genai.TypeNumber,
						Description: "The price for a single unit of the item, excluding any tax.",
					},
					"Quantity": {
						Type:        genai.TypeInteger,
						Description: "The number of units of the item purchased.",
					},
					"Tax": {
						Type:        genai.TypeNumber,
						Description: "The total amount of tax applied to the item.",
					},
					"Total_Amount": {
						Type:        genai.TypeNumber,
						Description: "The total cost of the item, including tax.",
					},
				},
				Required: []string{"Item_ID", "Item_Description", "Unit_Price", "Quantity", "Tax", "Total_Amount"},
			},
		},
	},
	Required: []string{"products"},
}

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	// Low temperature keeps the extraction near-deterministic. The
	// response is pinned to JSON matching the invoice schema.
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = invoiceSchema
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(invoiceExtractionPrompt)},
	}

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Extract analyzes invoice images and returns the structured invoice data
func (g *Gemini) Extract(images [][]byte, contentType string) (*Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Normalize every page to PNG before the model call
	parts := make([]genai.Part, 0, len(images))
	for _, img := range images {
		pngData, err := normalizeImage(img, contentType)
		if err != nil {
			return nil, err
		}
		// genai.ImageData expects just the format suffix (e.g. "png"),
		// not the full MIME type
		parts = append(parts, genai.ImageData("png", pngData))
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	invoice, err := parseInvoiceJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing invoice data: %w", err)
	}

	return invoice, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
