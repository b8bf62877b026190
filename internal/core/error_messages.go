// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - Nothing extracted: No rows could be extracted from the document
//	          Action: Check that the right backend was selected for this file
//	          Patterns: "nothing extracted"
//
//	CONV002 - Too many conversions: The converter is busy
//	          Action: Please wait a moment and try again
//	          Patterns: "too many conversions"
//
//	CONV003 - Conversion not found: The conversion does not exist or has expired
//	          Action: Run the conversion again
//	          Patterns: "conversion not found"
//
//	CONV004 - Request cancelled: Request was cancelled
//	          Action: Please try again
//	          Patterns: "context canceled"
//
//	CONV005 - Request timeout: Request timed out
//	          Action: Try a smaller document or try again later
//	          Patterns: "context deadline exceeded"
//
//	CONV006 - Invalid id: The conversion id is not a UUID
//	          Action: Use the id returned by the convert request
//	          Patterns: "invalid conversion id"
//
// # Detection Errors (DET001-DET099)
//
//	DET001 - No header: No table header could be recognized
//	         Action: Make sure the column titles are present in the document
//	         Patterns: "no header row found"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	          Action: Split the document into smaller files
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported format: The file type is not handled by this backend
//	          Action: Upload an xlsx, csv or extracted-tables JSON file
//	          Patterns: "unsupported file format"
//
//	FILE003 - Unreadable workbook: The spreadsheet could not be opened
//	          Action: Re-save the file as .xlsx and try again
//	          Patterns: "invalid workbook"
//
//	FILE004 - Invalid tables: The extracted tables payload is malformed
//	          Action: Send a JSON array of tables with a rows grid
//	          Patterns: "invalid tables"
//
//	FILE005 - No file: No file was selected
//	          Action: Please select a file to convert
//	          Patterns: "no file provided"
//
//	FILE006 - Empty file: The uploaded file is empty
//	          Action: Please upload a document with data
//	          Patterns: "empty file"
//
//	FILE007 - Unknown output format: The requested format is not available
//	          Action: Use format=xlsx, csv or json
//	          Patterns: "unknown output format"
//
// # Backend Errors (BE001-BE099)
//
//	BE001 - Unknown backend: The selected backend does not exist
//	        Action: List the available backends and pick one of them
//	        Patterns: "unknown backend"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - History disabled: Conversion history is not configured
//	        Action: Configure DATABASE_URL to keep conversion history
//	        Patterns: "history disabled"
//
//	DB002 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB003 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB004 - Timeout: Operation timed out
//	        Action: Please try again later
//	        Patterns: "timeout"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first match wins.
var errorPatterns = []errorPattern{
	// Conversion
	{
		pattern: "nothing extracted",
		msg: UserMessage{
			Message: "No rows could be extracted from the document",
			Action:  "Check that the right backend was selected for this file",
			Code:    "CONV001",
		},
	},
	{
		pattern: "too many conversions",
		msg: UserMessage{
			Message: "The converter is busy with other documents",
			Action:  "Please wait a moment and try again",
			Code:    "CONV002",
		},
	},
	{
		pattern: "conversion not found",
		msg: UserMessage{
			Message: "Conversion not found",
			Action:  "The conversion may have expired. Run it again",
			Code:    "CONV003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "CONV004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller document or try again later",
			Code:    "CONV005",
		},
	},
	{
		pattern: "invalid conversion id",
		msg: UserMessage{
			Message: "The conversion id is not valid",
			Action:  "Use the id returned by the convert request",
			Code:    "CONV006",
		},
	},

	// Detection
	{
		pattern: "no header row found",
		msg: UserMessage{
			Message: "No table header could be recognized",
			Action:  "Make sure the column titles are present in the document",
			Code:    "DET001",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the document into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type is not handled by the selected backend",
			Action:  "Upload an xlsx, csv or extracted-tables JSON file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The spreadsheet could not be opened",
			Action:  "Re-save the file as .xlsx and try again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid tables",
		msg: UserMessage{
			Message: "The extracted tables payload is malformed",
			Action:  "Send a JSON array of tables, each with a rows grid",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to convert",
			Code:    "FILE005",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a document with data",
			Code:    "FILE006",
		},
	},
	{
		pattern: "unknown output format",
		msg: UserMessage{
			Message: "The requested output format is not available",
			Action:  "Use format=xlsx, csv or json",
			Code:    "FILE007",
		},
	},

	// Backend
	{
		pattern: "unknown backend",
		msg: UserMessage{
			Message: "The selected backend does not exist",
			Action:  "List the available backends and pick one of them",
			Code:    "BE001",
		},
	},

	// Database
	{
		pattern: "history disabled",
		msg: UserMessage{
			Message: "Conversion history is not configured",
			Action:  "Configure DATABASE_URL to keep conversion history",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB004",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
