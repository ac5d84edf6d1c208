package types

// DocType is the coarse classification of a document's content
type DocType string

const (
	DocTypePDF      DocType = "pdf"
	DocTypeWord     DocType = "word"
	DocTypeText     DocType = "text"
	DocTypeMarkdown DocType = "markdown"
	DocTypeJSON     DocType = "json"
	DocTypeImage    DocType = "image"
	DocTypeOther    DocType = "other"
)

// Valid checks whether the doc type is recognized
func (t DocType) Valid() bool {
	switch t {
	case DocTypePDF, DocTypeWord, DocTypeText, DocTypeMarkdown, DocTypeJSON, DocTypeImage, DocTypeOther:
		return true
	}
	return false
}

// String returns the string representation
func (t DocType) String() string {
	return string(t)
}
