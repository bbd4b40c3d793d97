package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is the user-facing form of an error. Code is quoted by users
// when they report a problem.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

// String renders the message as "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// messageRule matches an error by sentinel first and by lower-case message
// fragment second. Fragments cover errors that arrive as plain text, such as
// multipart parse failures and remote responses.
type messageRule struct {
	msg       UserMessage
	sentinels []error
	fragments []string
}

// messageRules is ordered: every sentinel is tried before any fragment, and
// within each pass the first rule wins.
var messageRules = []messageRule{
	{
		msg:       UserMessage{"Search query is empty", "Enter a name, phone, email or any other value to search for", "VAL001"},
		sentinels: []error{ErrEmptyQuery},
	},
	{
		msg:       UserMessage{"No databases are loaded", "Upload a JSON, CSV or TXT database first", "VAL002"},
		sentinels: []error{ErrNoDatabases},
	},
	{
		msg:       UserMessage{"Required field is empty", "Fill in every field of the form and try again", "VAL003"},
		sentinels: []error{ErrMissingInput},
	},
	{
		msg:       UserMessage{"Request could not be read", "Send a JSON object with the documented fields", "VAL004"},
		sentinels: []error{ErrInvalidRequest},
	},
	{
		msg:       UserMessage{"File exceeds the maximum size limit", "Split the file into smaller parts", "FILE001"},
		sentinels: []error{ErrFileTooLarge},
		fragments: []string{"request body too large", "file too large"},
	},
	{
		msg:       UserMessage{"Unsupported file format", "Upload .json, .csv or .txt files", "FILE002"},
		sentinels: []error{ErrUnsupportedFormat},
		fragments: []string{"unsupported"},
	},
	{
		msg:       UserMessage{"File is not valid JSON", "Check the file for syntax errors", "FILE003"},
		sentinels: []error{ErrInvalidJSON},
		fragments: []string{"invalid character"},
	},
	{
		msg:       UserMessage{"No file was selected", "Select one or more database files to upload", "FILE004"},
		sentinels: []error{ErrNoFiles},
		fragments: []string{"no such file"},
	},
	{
		msg:       UserMessage{"File could not be read", "Save the file as UTF-8 text and upload it again", "FILE005"},
		fragments: []string{"read file"},
	},
	{
		msg:       UserMessage{"Database search failed", "The online source is unavailable and nothing was found locally. Try again later", "SRCH001"},
		sentinels: []error{ErrSearchFailed},
	},
	{
		msg:       UserMessage{"Too many uploads in progress", "Please wait a moment and try again", "UPL002"},
		sentinels: []error{ErrTooManyUploads},
	},
	{
		msg:       UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"},
		sentinels: []error{context.DeadlineExceeded},
		fragments: []string{"deadline exceeded", "timeout"},
	},
	{
		msg:       UserMessage{"Request was cancelled", "Please try again", "UPL004"},
		sentinels: []error{context.Canceled},
		fragments: []string{"context canceled"},
	},
	{
		msg:       UserMessage{"Session expired", "Reload the page and upload your databases again", "SES001"},
		sentinels: []error{ErrSessionNotFound},
	},
	{
		msg:       UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"},
		fragments: []string{"rate limit"},
	},
}

var unknownMessage = UserMessage{"An unexpected error occurred", "Please try again", "ERR000"}

// MapError converts err to its user message. A nil err maps to the zero
// UserMessage and anything unrecognised to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, rule := range messageRules {
		for _, target := range rule.sentinels {
			if errors.Is(err, target) {
				return rule.msg
			}
		}
	}

	text := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, frag := range rule.fragments {
			if strings.Contains(text, frag) {
				return rule.msg
			}
		}
	}

	return unknownMessage
}

// FormatUserError is MapError(err).String().
func FormatUserError(err error) string {
	return MapError(err).String()
}
