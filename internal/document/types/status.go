package types

// DocumentStatus is the lifecycle status of a document
type DocumentStatus string

const (
	// DocumentStatusInbox is the state of a freshly ingested document
	DocumentStatusInbox DocumentStatus = "inbox"
	// DocumentStatusProcessing means enrichment is underway
	DocumentStatusProcessing DocumentStatus = "processing"
	// DocumentStatusActive means the document is enriched and ready
	DocumentStatusActive DocumentStatus = "active"
	// DocumentStatusArchived means the document is retained but hidden from default views
	DocumentStatusArchived DocumentStatus = "archived"
	// DocumentStatusDeleted is the terminal soft-delete state
	DocumentStatusDeleted DocumentStatus = "deleted"
	// DocumentStatusError marks a document whose enrichment failed
	DocumentStatusError DocumentStatus = "error"
)

// Valid checks whether the status is recognized
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusInbox, DocumentStatusProcessing, DocumentStatusActive,
		DocumentStatusArchived, DocumentStatusDeleted, DocumentStatusError:
		return true
	}
	return false
}

// String returns the string representation
func (s DocumentStatus) String() string {
	return string(s)
}

// statusTransitions is the allowed transition table. Any non-deleted
// state may move to deleted; deleted is terminal.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusInbox:      {DocumentStatusProcessing, DocumentStatusActive, DocumentStatusArchived, DocumentStatusError, DocumentStatusDeleted},
	DocumentStatusProcessing: {DocumentStatusActive, DocumentStatusError, DocumentStatusArchived, DocumentStatusDeleted},
	DocumentStatusActive:     {DocumentStatusProcessing, DocumentStatusArchived, DocumentStatusDeleted},
	DocumentStatusArchived:   {DocumentStatusActive, DocumentStatusDeleted},
	DocumentStatusError:      {DocumentStatusProcessing, DocumentStatusArchived, DocumentStatusDeleted},
	DocumentStatusDeleted:    {},
}

// CanTransitionTo checks whether the transition is legal
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// UploadStatus is the forward-only status of an upload session
type UploadStatus string

const (
	// UploadStatusPresigned means a presigned target was issued
	UploadStatusPresigned UploadStatus = "presigned"
	// UploadStatusUploaded means the client reported the PUT complete
	UploadStatusUploaded UploadStatus = "uploaded"
	// UploadStatusIngested is terminal: content was promoted to canonical storage
	UploadStatusIngested UploadStatus = "ingested"
	// UploadStatusFailed is terminal
	UploadStatusFailed UploadStatus = "failed"
)

// Valid checks whether the status is recognized
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusPresigned, UploadStatusUploaded, UploadStatusIngested, UploadStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusIngested || s == UploadStatusFailed
}

// String returns the string representation
func (s UploadStatus) String() string {
	return string(s)
}

// JobType identifies an enrichment job
type JobType string

const (
	JobTypeOCR       JobType = "ocr"
	JobTypeThumbnail JobType = "thumbnail"
	JobTypePreview   JobType = "preview"
)

// Valid checks whether the job type is recognized
func (t JobType) Valid() bool {
	switch t {
	case JobTypeOCR, JobTypeThumbnail, JobTypePreview:
		return true
	}
	return false
}

// String returns the string representation
func (t JobType) String() string {
	return string(t)
}

// AllJobTypes lists every enrichment job enqueued after ingest
func AllJobTypes() []JobType {
	return []JobType{JobTypeOCR, JobTypeThumbnail, JobTypePreview}
}

// JobStatus is the execution status of an enrichment job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Valid checks whether the job status is recognized
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation
func (s JobStatus) String() string {
	return string(s)
}

// GroupReason records why versions were grouped as duplicates
type GroupReason string

const (
	// GroupReasonExact means byte-identical content (same SHA-256)
	GroupReasonExact GroupReason = "exact"
	// GroupReasonNear means similar extracted text
	GroupReasonNear GroupReason = "near"
)

// Valid checks whether the reason is recognized
func (r GroupReason) Valid() bool {
	return r == GroupReasonExact || r == GroupReasonNear
}

// String returns the string representation
func (r GroupReason) String() string {
	return string(r)
}

// BulkAction is an operation applied uniformly across a batch of documents
type BulkAction string

const (
	BulkActionArchive  BulkAction = "archive"
	BulkActionDelete   BulkAction = "delete"
	BulkActionActivate BulkAction = "activate"
	BulkActionAddTag   BulkAction = "add_tag"
)

// Valid checks whether the action is recognized
func (a BulkAction) Valid() bool {
	switch a {
	case BulkActionArchive, BulkActionDelete, BulkActionActivate, BulkActionAddTag:
		return true
	}
	return false
}

// String returns the string representation
func (a BulkAction) String() string {
	return string(a)
}

// ResolveAction is what happens to non-kept members of a duplicate group
type ResolveAction string

const (
	ResolveActionArchive ResolveAction = "archive"
	ResolveActionDelete  ResolveAction = "delete"
)

// Valid checks whether the action is recognized
func (a ResolveAction) Valid() bool {
	return a == ResolveActionArchive || a == ResolveActionDelete
}

// String returns the string representation
func (a ResolveAction) String() string {
	return string(a)
}
