package extraction

// Product is one line item on an invoice.
type Product struct {
	ItemID          string  `json:"Item_ID" validate:"min=5,max=12"`
	ItemDescription string  `json:"Item_Description" validate:"min=5"`
	UnitPrice       float64 `json:"Unit_Price"`
	Quantity        int     `json:"Quantity"`
	Tax             float64 `json:"Tax"`
	TotalAmount     float64 `json:"Total_Amount"`
}

// Invoice contains the structured data extracted from one invoice image.
// Date is the issue date as printed on the invoice (DD-MM-YYYY expected)
// and may be absent when the model cannot find one.
type Invoice struct {
	Date     *string   `json:"date" validate:"omitempty,min=8,max=10"`
	Products []Product `json:"products" validate:"dive"`
}

// Extractor defines the interface for invoice extraction operations
type Extractor interface {
	// Extract analyzes one or more invoice images and returns the
	// structured invoice data
	Extract(images [][]byte, contentType string) (*Invoice, error)
	// Close closes the extractor and releases resources
	Close() error
}

// invoiceExtractionPrompt is the shared instruction used by all LLM providers
// for extracting invoice data
const invoiceExtractionPrompt = `You are a helpful assistant specialized in extracting structured data from images of VAT invoices.
The user will provide an image of an invoice. Extract all data and combine into one JSON.

Extract for each product: Item_ID, Item_Description, Unit_Price, Quantity, Tax, and Total_Amount.

1. **Item_ID**: The part number or unique identifier for the item listed on the invoice (5 to 12 characters).
2. **Item_Description**: A textual description of the item, usually including product type and compatibility.
3. **Unit_Price**: The price for a single unit of the item, excluding any tax. Must be a number, not a string.
4. **Quantity**: The number of units of the item purchased. Must be an integer.
5. **Tax**: The total amount of tax applied to the item. Must be a number.
6. **Total_Amount**: The total cost of the item, including tax. Must be a number.

Also extract the invoice issue date only (DD-MM-YYYY).

Return ONLY valid JSON in this exact format:
{
  "date": "DD-MM-YYYY",
  "products": [
    {
      "Item_ID": "...",
      "Item_Description": "...",
      "Unit_Price": 0.00,
      "Quantity": 0,
      "Tax": 0.00,
      "Total_Amount": 0.00
    }
  ]
}

Important:
- Output JSON only, no extra text or explanation
- Do not use markdown code blocks
- If you cannot find the date, use null for that field
- If the invoice is in Arabic, keep all Arabic text and digits as-is`
