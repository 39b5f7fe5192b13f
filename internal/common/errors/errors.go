// Package errors provides standardized error handling for the ticket resolver.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeReasoningServiceFailed ErrorCode = "REASONING_SERVICE_FAILED"
	ErrCodeReasoningTimeout       ErrorCode = "REASONING_TIMEOUT"
	ErrCodeInvalidToolCall        ErrorCode = "INVALID_TOOL_CALL"

	ErrCodeTicketUpdateFailed ErrorCode = "TICKET_UPDATE_FAILED"
	ErrCodeTicketQueryFailed  ErrorCode = "TICKET_QUERY_FAILED"

	ErrCodeInvoiceQueryFailed ErrorCode = "INVOICE_QUERY_FAILED"

	ErrCodeEmailSendFailed          ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeDocumentGenerationFailed ErrorCode = "DOCUMENT_GENERATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsRetryable reports whether err is a StandardError marked retryable.
// Unknown error types are treated as non-retryable.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// CodeOf extracts the error code, or "INTERNAL_ERROR" for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// NewReasoningServiceFailedError creates a retryable reasoning-service error.
func NewReasoningServiceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningServiceFailed,
		Message:   "Reasoning service call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningTimeoutError creates a retryable timeout error.
func NewReasoningTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningTimeout,
		Message:   "Reasoning service call timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidToolCallError creates a non-retryable error for unknown tool
// names or malformed tool arguments coming back from the reasoning service.
func NewInvalidToolCallError(tool, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidToolCall,
		Message:   "Rejected tool invocation from reasoning service",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"tool": tool},
		Timestamp: time.Now().UTC(),
	}
}

// NewTicketUpdateFailedError creates a retryable record-store write error.
// The ticket is left in its prior state for a later sweep.
func NewTicketUpdateFailedError(ticketID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTicketUpdateFailed,
		Message:   "Ticket record update failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"ticketId": ticketID},
		Timestamp: time.Now().UTC(),
	}
}

// NewTicketQueryFailedError creates a retryable record-store read error.
func NewTicketQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTicketQueryFailed,
		Message:   "Ticket record query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvoiceQueryFailedError creates a retryable invoice-store read error.
func NewInvoiceQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvoiceQueryFailed,
		Message:   "Invoice record query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a non-retryable notification error.
// Notification is best-effort: record state is the source of truth.
func NewEmailSendFailedError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Outbound email send failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"recipient": recipient},
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentGenerationFailedError creates a non-retryable attachment error.
func NewDocumentGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentGenerationFailed,
		Message:   "Document generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
