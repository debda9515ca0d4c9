package descriptions

// Tool descriptions with practical examples and use cases

const (
	PDFUnlockDescription = `Remove password protection from a PDF document.

**When to use:** A PDF opens only with a password and the document needs to be read, indexed, or forwarded without it.

**Why it's useful:** Produces a decrypted copy of the document with its content untouched, so downstream tools that cannot handle encryption can process it.

**Examples:**
• Bank statement: "Unlock statement-2024-03.pdf with the password from the email"
• Payroll slips: "Remove the password from payslip.pdf before archiving it"
• Forwarding: "Decrypt contract.pdf so it can be attached to a ticket"

**Common workflows:**
1. Intake: Receive protected PDF → Unlock → Store decrypted copy
2. Batch statements: pdf_extract_from_zip → pdf_unlock each file → Process text

**Best practices:** Pass the file as base64. A wrong password fails with the decryption tool's diagnostics; the call is never retried.`

	PDFExtractFromZipDescription = `Extract every PDF document from a zip archive.

**When to use:** PDFs arrive bundled in a zip file, for example an export from a mail client or a document portal.

**Why it's useful:** Returns only the PDF entries, in the order the archive lists them, with their directory prefixes stripped.

**Examples:**
• Portal export: "Pull all PDFs out of documents.zip"
• Mixed archive: "Get the invoices from archive.zip and ignore the spreadsheets"

**Common workflows:**
1. Bulk intake: Extract PDFs → pdf_unlock the protected ones → Process
2. Triage: Extract PDFs → Check file names → Route per document type

**Best practices:** Entries are matched by a case-insensitive ".pdf" name suffix; directories and other files are skipped. An archive without PDFs is reported as an error.`

	PDFServerInfoDescription = `Get server status, limits, and the available tools.

**When to use:** Starting work with the PDF unlocker or troubleshooting failed calls.

**Why it's useful:** Reports the decryption backend in use, the maximum accepted file size, the decryption timeout and how many decryptions may run at once.

**Examples:**
• System check: "Which decryption backend is this server using?"
• Troubleshooting: "Why was my 80MB file rejected?"

**Common workflows:**
1. Session Startup: Check server info → Verify limits → Plan uploads

**Best practices:** Run at start of sessions.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"pdf_unlock":           PDFUnlockDescription,
	"pdf_extract_from_zip": PDFExtractFromZipDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

