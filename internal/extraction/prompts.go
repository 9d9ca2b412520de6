package extraction

const systemPrompt = `You are an expert in reading shipping and freight forwarding invoices. ` +
	`You extract invoice numbers, tax ids, Bill of Lading references, charge lines and amounts ` +
	`with perfect accuracy. Always respond with valid JSON.`

// extractionPrompt describes the exact JSON contract the confirmation
// flow expects. Keep field names in sync with port.ExtractionResult.
const extractionPrompt = `Examine these invoice page images and extract ALL information.

DOCUMENT CLASSIFICATION:
- document_type: "CLIENT_INVOICE" if the company issued it, "PROVIDER_INVOICE" if the company received it, "OTHER" if it is not an invoice at all.

INVOICE HEADER:
- invoice_number: the invoice identifier exactly as printed
- invoice_date: date in YYYY-MM-DD format
- issuer_name, issuer_nif: the party that issued the invoice and its tax id
- recipient_name, recipient_nif: the party being billed and its tax id
- provider_type: for provider invoices, one of SHIPPING, CARRIER, INSPECTION, OTHER

SHIPMENT REFERENCES:
- bl_references: every Bill of Lading reference on the invoice, as an array of strings
- vessel: vessel name if present
- containers: container numbers if present

CHARGE LINES - extract every line item as an array:
- bl_reference: the BL the line belongs to, empty if not stated per line
- description: the charge description as printed
- category: one of FREIGHT, HANDLING, DOCUMENTATION, TRANSPORT, INSPECTION, INSURANCE, OTHER
- amount: decimal string without currency symbols
- container: container number for the line if stated

TOTALS:
- tax_amount: total tax as a decimal string, "0" if none
- total_amount: grand total including tax as a decimal string

CONFIDENCE:
- overall_confidence: HIGH, MEDIUM or LOW for the extraction as a whole
- extraction_notes: anything ambiguous or unreadable

Return a JSON object with this exact structure:
{
  "document_type": "string",
  "invoice_number": "string",
  "invoice_date": "YYYY-MM-DD",
  "issuer_name": "string",
  "issuer_nif": "string",
  "recipient_name": "string",
  "recipient_nif": "string",
  "provider_type": "string",
  "bl_references": ["string"],
  "charges": [{"bl_reference": "string", "description": "string", "category": "string", "amount": "string", "container": "string"}],
  "tax_amount": "string",
  "total_amount": "string",
  "vessel": "string",
  "containers": ["string"],
  "overall_confidence": "string",
  "extraction_notes": "string"
}

IMPORTANT:
- Extract EXACTLY what you see. Do not guess or make up values.
- Amounts are decimal strings, no currency symbols, dot as decimal separator.
- If a field is not visible, use empty string "" or an empty array.`
