package errors

import (
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrValidation     = 1001
	ErrNotFound       = 1002
	ErrForbidden      = 1003
	ErrInvalidState   = 1004
	ErrConfiguration  = 1005
	ErrBadRequest     = 1006

	// Upload errors (2000-2999)
	ErrUploadNotFound     = 2000
	ErrUploadInvalidSize  = 2001
	ErrUploadInvalidMime  = 2002
	ErrUploadNotCancelable = 2003
	ErrUploadAlreadyDone  = 2004

	// Ingest errors (3000-3999)
	ErrStorage   = 3000
	ErrIntegrity = 3001

	// Document errors (4000-4999)
	ErrDocumentNotFound      = 4000
	ErrDocumentInvalidStatus = 4001
	ErrVersionNotFound       = 4002

	// Duplicate group errors (5000-5999)
	ErrGroupNotFound  = 5000
	ErrGroupNotMember = 5001

	// Job errors (6000-6999)
	ErrJobNotFound    = 6000
	ErrJobUnknownType = 6001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrValidation:     {ErrValidation, http.StatusBadRequest, "Validation failed"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrForbidden:      {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrInvalidState:   {ErrInvalidState, http.StatusConflict, "Operation invalid for current state"},
	ErrConfiguration:  {ErrConfiguration, http.StatusInternalServerError, "Service misconfigured"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request"},

	// Upload errors
	ErrUploadNotFound:      {ErrUploadNotFound, http.StatusNotFound, "Upload session not found"},
	ErrUploadInvalidSize:   {ErrUploadInvalidSize, http.StatusBadRequest, "Declared size out of range"},
	ErrUploadInvalidMime:   {ErrUploadInvalidMime, http.StatusBadRequest, "Unsupported mime type"},
	ErrUploadNotCancelable: {ErrUploadNotCancelable, http.StatusConflict, "Upload can no longer be cancelled"},
	ErrUploadAlreadyDone:   {ErrUploadAlreadyDone, http.StatusConflict, "Upload already finalized"},

	// Ingest errors
	ErrStorage:   {ErrStorage, http.StatusBadGateway, "Storage operation failed"},
	ErrIntegrity: {ErrIntegrity, http.StatusUnprocessableEntity, "Declared and observed content do not match"},

	// Document errors
	ErrDocumentNotFound:      {ErrDocumentNotFound, http.StatusNotFound, "Document not found"},
	ErrDocumentInvalidStatus: {ErrDocumentInvalidStatus, http.StatusBadRequest, "Unrecognized document status"},
	ErrVersionNotFound:       {ErrVersionNotFound, http.StatusNotFound, "Document version not found"},

	// Duplicate group errors
	ErrGroupNotFound:  {ErrGroupNotFound, http.StatusNotFound, "Duplicate group not found"},
	ErrGroupNotMember: {ErrGroupNotMember, http.StatusBadRequest, "Version is not a member of the group"},

	// Job errors
	ErrJobNotFound:    {ErrJobNotFound, http.StatusNotFound, "Job not found"},
	ErrJobUnknownType: {ErrJobUnknownType, http.StatusBadRequest, "Unknown job type"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}
