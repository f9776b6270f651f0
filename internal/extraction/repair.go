package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"
)

var validate = validator.New()

// parseInvoiceJSON turns raw model output into a validated Invoice. Models
// emit near-valid JSON often enough (markdown fences, stray prose, trailing
// commas) that the text goes through a lenient repair pass before the strict
// unmarshal and schema validation.
func parseInvoiceJSON(text string) (*Invoice, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	// Lenient repair pass for trailing commas and minor syntax slips
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("repairing json: %w", err)
	}

	// The model may wrap the invoice in a "data" envelope; accept both
	var envelope struct {
		Data *Invoice `json:"data"`
	}
	if err := json.Unmarshal([]byte(repaired), &envelope); err == nil && envelope.Data != nil {
		return validateInvoice(envelope.Data)
	}

	var invoice Invoice
	if err := json.Unmarshal([]byte(repaired), &invoice); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	return validateInvoice(&invoice)
}

// validateInvoice checks the structural bounds on the extracted fields:
// date length 8-10 when present, item IDs 5-12 characters, descriptions
// at least 5 characters
func validateInvoice(invoice *Invoice) (*Invoice, error) {
	// Treat an empty date string as absent
	if invoice.Date != nil && strings.TrimSpace(*invoice.Date) == "" {
		invoice.Date = nil
	}

	if invoice.Products == nil {
		invoice.Products = []Product{}
	}

	if err := validate.Struct(invoice); err != nil {
		return nil, fmt.Errorf("validating invoice: %w", err)
	}

	return invoice, nil
}
