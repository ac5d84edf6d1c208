package processor

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/hashing"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/pkoukk/tiktoken-go"
	"github.com/russross/blackfriday/v2"
	"github.com/tidwall/gjson"
)

// tokenEncoding is the tiktoken encoding used for token statistics.
const tokenEncoding = "cl100k_base"

// Extractor pulls text and structured fields out of stored content and
// upserts the index row the near-duplicate pass and search read.
type Extractor struct {
	store   storage.Gateway
	indexes repository.IndexRepository
}

// NewExtractor creates the text extraction processor.
func NewExtractor(store storage.Gateway, indexes repository.IndexRepository) *Extractor {
	return &Extractor{store: store, indexes: indexes}
}

// Run extracts text for one version and stores the index row.
func (p *Extractor) Run(ctx context.Context, doc *models.Document, version *models.DocumentVersion) error {
	body, err := p.store.Get(ctx, version.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read canonical object: %w", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("failed to read canonical object: %w", err)
	}

	text, fields, pageCount, err := extract(doctypes.DocType(doc.DocType), data)
	if err != nil {
		return err
	}

	idx := &models.DocumentIndex{
		VersionID:  version.ID,
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Text:       text,
		Fields:     fields,
		TextHash:   textHash(text),
		TokenCount: countTokens(text),
		PageCount:  pageCount,
	}

	if err := p.indexes.Upsert(ctx, idx); err != nil {
		return fmt.Errorf("failed to store index: %w", err)
	}

	return nil
}

// extract dispatches on document type. Types with no extractable text
// produce an empty index row so downstream consumers can tell
// "extracted nothing" from "never extracted".
func extract(docType doctypes.DocType, data []byte) (string, map[string]interface{}, int, error) {
	switch docType {
	case doctypes.DocTypePDF:
		return extractPDF(data)
	case doctypes.DocTypeMarkdown:
		return markdownToText(data), nil, 0, nil
	case doctypes.DocTypeJSON:
		text, fields := extractJSON(data)
		return text, fields, 0, nil
	case doctypes.DocTypeText:
		return string(data), nil, 0, nil
	default:
		return "", nil, 0, nil
	}
}

func extractPDF(data []byte) (string, map[string]interface{}, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", nil, 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	pages := doc.NumPage()
	for i := 0; i < pages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			// Unreadable pages are skipped, not fatal.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	return b.String(), nil, pages, nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)
var htmlBreakRe = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</h[1-6]>|</li>`)

// markdownToText renders markdown to HTML and strips the tags, which
// drops link targets and formatting syntax from the comparison text.
func markdownToText(data []byte) string {
	html := string(blackfriday.Run(data))
	html = htmlBreakRe.ReplaceAllString(html, "\n")
	text := htmlTagRe.ReplaceAllString(html, "")
	return strings.TrimSpace(text)
}

// extractJSON flattens the document into a field bag and joins the
// leaf values into comparison text.
func extractJSON(data []byte) (string, map[string]interface{}) {
	parsed := gjson.ParseBytes(data)
	if !parsed.Exists() {
		return string(data), nil
	}

	fields := make(map[string]interface{})
	flattenJSON("", parsed, fields)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, fields[k])
	}
	return b.String(), fields
}

func flattenJSON(prefix string, value gjson.Result, out map[string]interface{}) {
	if value.IsObject() || value.IsArray() {
		value.ForEach(func(key, child gjson.Result) bool {
			name := key.String()
			if prefix != "" {
				name = prefix + "." + name
			}
			flattenJSON(name, child, out)
			return true
		})
		return
	}
	if prefix == "" {
		prefix = "value"
	}
	out[prefix] = value.Value()
}

func textHash(text string) string {
	if text == "" {
		return ""
	}
	return hashing.SumBytes([]byte(strings.Join(strings.Fields(text), " ")))
}

func countTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		// Token statistics are advisory; fall back to a word count.
		return len(strings.Fields(text))
	}
	return len(enc.Encode(text, nil, nil))
}
