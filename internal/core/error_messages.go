package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Users can quote the code when reporting a problem.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: The data file could not be opened
//	         Action: Check that the file exists at the configured location
//	         Matches: ErrSourceUnavailable
//
//	SRC002 - Source malformed: The data file could not be read as a table
//	         Action: Ensure the file is delimited text with one header row
//	         Matches: ErrSourceMalformed
//
//	SRC003 - Missing columns: Required columns are missing from the data file
//	         Action: Export the file again with every required column
//	         Matches: *MissingColumnsError
//
//	SRC004 - Source too large: The data file exceeds the configured size limit
//	         Action: Raise SOURCE_MAX_FILE_SIZE or trim the export
//	         Matches: ErrSourceTooLarge
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Invalid filter: A filter value could not be understood
//	         Action: Use dates in YYYY-MM-DD format
//	         Matches: *FilterError
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - System busy: Too many exports in progress
//	         Action: Please wait a moment and try again
//	         Matches: ErrTooManyExports
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// Unmatched errors map to ERR000.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is an error rendered for display.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Detail  string // Location or cause, when the user can act on it
}

type errorRule struct {
	match func(err error) (detail string, ok bool)
	msg   UserMessage
}

func is(target error) func(error) (string, bool) {
	return func(err error) (string, bool) {
		if !errors.Is(err, target) {
			return "", false
		}
		var se *SourceError
		if errors.As(err, &se) {
			return sourceDetail(se), true
		}
		return "", true
	}
}

func sourceDetail(se *SourceError) string {
	switch {
	case se.Path != "" && se.Err != nil:
		return fmt.Sprintf("%s: %v", se.Path, se.Err)
	case se.Path != "":
		return se.Path
	case se.Err != nil:
		return se.Err.Error()
	}
	return ""
}

// Rules are checked in order; more specific rules come first.
var errorRules = []errorRule{
	{
		match: func(err error) (string, bool) {
			var mc *MissingColumnsError
			if errors.As(err, &mc) {
				return strings.Join(mc.Columns, ", "), true
			}
			return "", false
		},
		msg: UserMessage{
			Message: "Required columns are missing from the data file",
			Action:  "Export the file again with every required column",
			Code:    "SRC003",
		},
	},
	{
		match: is(ErrSourceUnavailable),
		msg: UserMessage{
			Message: "The data file could not be opened",
			Action:  "Check that the file exists at the configured location",
			Code:    "SRC001",
		},
	},
	{
		match: is(ErrSourceMalformed),
		msg: UserMessage{
			Message: "The data file could not be read as a table",
			Action:  "Ensure the file is delimited text with one header row",
			Code:    "SRC002",
		},
	},
	{
		match: is(ErrSourceTooLarge),
		msg: UserMessage{
			Message: "The data file exceeds the configured size limit",
			Action:  "Raise SOURCE_MAX_FILE_SIZE or trim the export",
			Code:    "SRC004",
		},
	},
	{
		match: func(err error) (string, bool) {
			var fe *FilterError
			if errors.As(err, &fe) {
				return fmt.Sprintf("%s=%q", fe.Field, fe.Value), true
			}
			return "", false
		},
		msg: UserMessage{
			Message: "A filter value could not be understood",
			Action:  "Use dates in YYYY-MM-DD format",
			Code:    "FLT001",
		},
	},
	{
		match: is(ErrTooManyExports),
		msg: UserMessage{
			Message: "Too many exports are in progress",
			Action:  "Please wait a moment and try again",
			Code:    "EXP001",
		},
	},
	{
		match: is(context.Canceled),
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		match: is(context.DeadlineExceeded),
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a narrower date range or try again later",
			Code:    "REQ002",
		},
	},
	{
		match: func(err error) (string, bool) {
			return "", strings.Contains(strings.ToLower(err.Error()), "rate limit")
		},
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, r := range errorRules {
		if detail, ok := r.match(err); ok {
			msg := r.msg
			msg.Detail = detail
			return msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as a single line for logs and terminals.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Detail != "" {
		return fmt.Sprintf("%s: %s (Code: %s). %s", msg.Message, msg.Detail, msg.Code, msg.Action)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
