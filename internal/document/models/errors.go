package models

import "errors"

// Document errors
var (
	ErrInvalidTenantID       = errors.New("invalid tenant id")
	ErrInvalidOwnerID        = errors.New("invalid owner id")
	ErrInvalidTitle          = errors.New("invalid title")
	ErrInvalidDocType        = errors.New("invalid doc type")
	ErrInvalidDocumentStatus = errors.New("invalid document status")
)

// Version errors
var (
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrInvalidVersionID  = errors.New("invalid version id")
	ErrInvalidVersionNo  = errors.New("invalid version number")
	ErrInvalidStorageKey = errors.New("invalid storage key")
	ErrInvalidSizeBytes  = errors.New("invalid size in bytes")
	ErrInvalidSHA256     = errors.New("invalid sha256 digest")
)

// Upload errors
var (
	ErrInvalidFilename     = errors.New("invalid filename")
	ErrInvalidMimeType     = errors.New("invalid mime type")
	ErrInvalidUploadStatus = errors.New("invalid upload status")
)

// Duplicate group errors
var (
	ErrInvalidGroupReason = errors.New("invalid group reason")
)

// Tag errors
var (
	ErrInvalidTagName = errors.New("invalid tag name")
)

// Job errors
var (
	ErrInvalidJobType   = errors.New("invalid job type")
	ErrInvalidJobStatus = errors.New("invalid job status")
)
