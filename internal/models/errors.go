package models

import "errors"

// Parsing errors shared by the CLI, API and services
var (
	// ErrInvalidStatus indicates a status outside the fixed workflow
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidMoSCoW indicates an unknown MoSCoW bucket
	ErrInvalidMoSCoW = errors.New("invalid MoSCoW priority")

	// ErrUnknownTag indicates a tag outside the fixed vocabulary
	ErrUnknownTag = errors.New("unknown tag")
)
