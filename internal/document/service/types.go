package service

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
)

// Identity headers. Authorization is pre-established upstream; these
// carry the already-authenticated caller.
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"
)

// identity extracts the tenant and caller ids from the request headers.
func identity(c *gin.Context) (uuid.UUID, uuid.UUID, error) {
	tenantID, err := uuid.Parse(c.GetHeader(HeaderTenantID))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("missing or malformed %s header", HeaderTenantID)
	}
	userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("missing or malformed %s header", HeaderUserID)
	}
	return tenantID, userID, nil
}

// RequestUploadRequest is the body of POST /uploads.
type RequestUploadRequest struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
	SHA256     string `json:"sha256,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

// Validate checks structural constraints; business limits (size cap,
// mime allow-list) live in the use case.
func (r RequestUploadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required, validation.Length(1, 512)),
		validation.Field(&r.MimeType, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.SizeBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.SHA256, validation.Length(64, 64)),
		validation.Field(&r.DocumentID, validation.By(optionalUUID)),
	)
}

// UpdateStatusRequest is the body of PUT /documents/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
	)
}

// BulkActionRequest is the body of POST /documents/bulk.
type BulkActionRequest struct {
	DocumentIDs []string `json:"document_ids"`
	Action      string   `json:"action"`
	TagID       string   `json:"tag_id,omitempty"`
}

func (r BulkActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocumentIDs, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Action, validation.Required),
		validation.Field(&r.TagID, validation.By(optionalUUID)),
	)
}

// SetKeepBestRequest is the body of POST /duplicate-groups/:id/keep.
type SetKeepBestRequest struct {
	VersionID string `json:"version_id"`
}

func (r SetKeepBestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VersionID, validation.Required, validation.By(requiredUUID)),
	)
}

// ResolveGroupRequest is the body of POST /duplicate-groups/:id/resolve.
type ResolveGroupRequest struct {
	KeepVersionID string `json:"keep_version_id"`
	Action        string `json:"action"`
}

func (r ResolveGroupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.KeepVersionID, validation.Required, validation.By(requiredUUID)),
		validation.Field(&r.Action, validation.Required),
	)
}

// RunAuditRequest is the body of POST /admin/hash-audit.
type RunAuditRequest struct {
	SampleSize int `json:"sample_size,omitempty"`
}

func (r RunAuditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SampleSize, validation.Min(0), validation.Max(10000)),
	)
}

func optionalUUID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return requiredUUID(s)
}

func requiredUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("must be a uuid")
	}
	return nil
}

// DocumentResponse is the API shape of a document.
type DocumentResponse struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	CurrentVersionID *string    `json:"current_version_id,omitempty"`
	Title            string     `json:"title"`
	DocType          string     `json:"doc_type"`
	Status           string     `json:"status"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toDocumentResponse(doc *models.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:           doc.ID.String(),
		OwnerID:      doc.OwnerID.String(),
		Title:        doc.Title,
		DocType:      doc.DocType,
		Status:       doc.Status,
		ErrorMessage: doc.ErrorMessage,
		ArchivedAt:   doc.ArchivedAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if doc.CurrentVersionID != nil {
		s := doc.CurrentVersionID.String()
		resp.CurrentVersionID = &s
	}
	return resp
}

// PageResponse wraps a paged list.
type PageResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}
