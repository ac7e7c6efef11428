package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

var (
	ErrEmptyPrompt    = errors.New("empty prompt")
	ErrPromptTooLong  = errors.New("prompt too long")
	ErrUnknownAgent   = errors.New("unknown agent key")
	ErrNoAgentReplies = errors.New("no agent replies received")
	ErrLLMFailed      = errors.New("llm request failed")
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrBadTransition   = errors.New("invalid task status transition")
	ErrEmptyTitle      = errors.New("task title cannot be empty")
	ErrDuplicateTask   = errors.New("task already queued")
	ErrTaskIndexRange  = errors.New("task index out of range")
	ErrUnknownPriority = errors.New("unknown task priority")
)

var (
	ErrUnknownChannel = errors.New("unknown revenue channel")
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("invalid webhook signature")
	ErrDuplicateEvent   = errors.New("duplicate webhook event")
)

var (
	ErrNotTinkoffCSV = errors.New("not a tinkoff csv statement")
)
