// Package llm defines the boundary to the external text-generation service.
//
// The service is a black box: it accepts a prompt plus an optional document
// and returns free text with no schema guarantee. Structure is enforced by the
// callers (internal/generate, internal/extract); this package only moves bytes,
// classifies failures, and digs JSON out of noisy responses.
package llm

import "context"

// Document is a binary attachment to a generation request.
// Data is sent inline; when Data is empty, URI references a file previously
// uploaded with FileStore.UploadFile.
type Document struct {
	MIMEType string
	Data     []byte
	URI      string
}

// Request is one text-generation call.
type Request struct {
	Prompt   string
	Document *Document
}

// Generator produces raw text for a prompt.
type Generator interface {
	GenerateText(ctx context.Context, req Request) (string, error)
}

// File is a handle into the service's transient file store.
type File struct {
	Name     string // handle used for deletion, e.g. "files/abc123"
	URI      string // reference passed back into Request.Document
	MIMEType string
}

// FileStore uploads documents for later reference and deletes them.
type FileStore interface {
	UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (File, error)
	DeleteFile(ctx context.Context, name string) error
}
