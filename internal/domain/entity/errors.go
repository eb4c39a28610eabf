package entity

import "errors"

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrEmptyDocument      = errors.New("document is empty")
	ErrUnsupportedBackend = errors.New("unsupported model backend")
	ErrUnsupportedFormat  = errors.New("unsupported output format")
	ErrMaxIterations      = errors.New("max iterations exceeded")
	ErrEmptyAnswer        = errors.New("agent returned an empty answer")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrHandoffLimit       = errors.New("handoff limit reached")
	ErrAllReviewsFailed   = errors.New("all specialist reviews failed")
)
