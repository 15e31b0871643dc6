package service

import "errors"

// Service layer errors for better error handling
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("too many requests")

	// Invitation/chat lifecycle
	ErrSelfInvite          = errors.New("cannot invite yourself")
	ErrRecipientNotFound   = errors.New("recipient profile not found")
	ErrInvitationExists    = errors.New("invitation already sent")
	ErrChatExists          = errors.New("chat already exists")
	ErrInvitationProcessed = errors.New("invitation already processed")

	// Project board
	ErrOwnProject       = errors.New("cannot respond to your own project")
	ErrAlreadyResponded = errors.New("already responded")
	ErrNotImage         = errors.New("file is not an image")
)
