package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Extraction Tools
	PDFExtractDescription = `Extract the full text of a PDF with its tables rebuilt and image text recognized.

**When to use:** Need the document content as one flat text for reading, summarizing or retrieval, including the tables that plain text extraction scrambles.

**What you get:** Normalized text of the first 30 pages. Tabular blocks are rebuilt with column spacing and inlined as "--- TABLE FROM PAGE n ---" sections. When OCR is enabled, text found in images of the first 10 pages is appended.

**Examples:**
• Annual report: "Get the text of annual-report-2023.pdf including the shareholding tables"
• Financial statement: "Extract balance-sheet.pdf so the figures keep their columns"

**Common workflows:**
1. Reading: pdf_validate_file → pdf_extract → summarize
2. Table review: pdf_extract_tables → compare figures across years

**Best practices:** Very long documents are capped at 150000 characters; check the truncated flag in the response.`

	PDFExtractTablesDescription = `List the tables detected in a PDF, one artifact per table.

**When to use:** Only the tabular content matters, e.g. shareholding patterns, employee distributions, financial summaries.

**What you get:** Every accepted table as "--- TABLE FROM PAGE n ---" followed by the rebuilt rows, plus tables recognized in images as "--- TABLE FROM IMAGE (PAGE n) ---".

**Examples:**
• "List the tables in annual-report.pdf"
• "Get the gender distribution table from sustainability-report.pdf"

**Best practices:** Table detection is heuristic. Rows are rebuilt from text positions and are not split into cells.`

	PDFAskDescription = `Answer a question about a PDF using retrieval over its extracted content.

**When to use:** Need a specific fact from a long document, like revenue, number of employees or board composition.

**How it works:** The document is extracted, split into overlapping chunks, the chunks closest to the question are selected and a language model answers from them only. Answers end with [Sources: ...] and [Confidence: n/5] tags.

**Examples:**
• "What was the net profit in annual-report-2023.pdf?"
• "How many women are on the board according to governance.pdf?"

**Follow-up questions:** Pass earlier turns as history, a JSON array of {"question": "...", "answer": "..."} objects. The last 3 turns are used.

**Best practices:** Requires an OpenAI API key in the server configuration; without it every answer is an apology.`

	PDFExtractDirectoryDescription = `Extract every PDF of a directory concurrently.

**When to use:** Need an overview of a collection of reports, or want to find which documents contain tables.

**What you get:** One entry per file with page and table counts, text length and any error. Files are processed in parallel and reported in directory order.

**Examples:**
• "Extract all reports in /reports/2023"
• "Extract the PDFs whose name matches 'annual' in the default directory"

**Best practices:** Use limit to bound the batch; failures on single files do not stop the batch.`

	// Search and Discovery Tools
	PDFSearchDirectoryDescription = `Discover and filter PDF files across directories with fuzzy filename search.

**When to use:** Looking for specific PDF files, need to inventory documents in a directory, or want to find files by name patterns.

**Examples:**
• Find specific documents: "Search for 'invoice' PDFs in /accounting/2024/"
• Inventory check: "List all PDFs in /reports/ directory"

**Best practices:** Use specific search terms for faster results; leave directory empty to search the default directory.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before attempting to extract or ask about any PDF file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Prevents processing errors, identifies corrupted files early and reports the page count.

**Examples:**
• Batch processing safety: "Validate all PDFs in /invoices/ before bulk extraction"
• Upload verification: "Check user-uploaded contract.pdf is valid before processing"

**Best practices:** Always run this first in automated workflows.`

	// Utility Tools
	PDFServerInfoDescription = `Get server status, available tools, extraction limits and directory contents.

**When to use:** Starting work with the PDF server, troubleshooting issues, or checking whether OCR and question answering are enabled.

**Common workflows:**
1. Session Startup: Check server info → Verify capabilities → Plan processing approach
2. Debugging: Review server status → Check directory paths → Verify tool availability

**Best practices:** Run at start of sessions.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"pdf_extract":           PDFExtractDescription,
	"pdf_extract_tables":    PDFExtractTablesDescription,
	"pdf_ask":               PDFAskDescription,
	"pdf_extract_directory": PDFExtractDirectoryDescription,
	"pdf_search_directory":  PDFSearchDirectoryDescription,
	"pdf_validate_file":     PDFValidateFileDescription,
	"pdf_server_info":       PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all available tools, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
