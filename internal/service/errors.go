package service

import (
	"errors"

	"ragchat-be/pkg/rag/session"
	"ragchat-be/pkg/ragapi"
)

const GenericBackendFailure = "Failed to get a response from the server. Please try again."

var (
	ErrEmptyQuery      = errors.New("please enter a question")
	ErrNoDocuments     = errors.New("please upload a document before asking questions")
	ErrQueryInFlight   = errors.New("a query is already in progress for this conversation")
	ErrEmptyDocument   = errors.New("document content is empty")
	ErrSessionNotFound = session.ErrSessionNotFound
)

// BackendError is a failed round-trip to the RAG backend. Error() is the
// message shown to the user.
type BackendError struct {
	Detail string
	Err    error
}

func (e *BackendError) Error() string {
	return e.Detail
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// newQueryError keeps the server's detail when there is one and hides
// transport errors behind the generic message.
func newQueryError(err error) *BackendError {
	var apiErr *ragapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return &BackendError{Detail: apiErr.Detail, Err: err}
	}
	return &BackendError{Detail: GenericBackendFailure, Err: err}
}

// newIngestError surfaces the failure verbatim.
func newIngestError(err error) *BackendError {
	var apiErr *ragapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return &BackendError{Detail: apiErr.Detail, Err: err}
	}
	return &BackendError{Detail: err.Error(), Err: err}
}
