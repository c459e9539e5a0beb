package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound     = errors.New("resource not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")

	// Room errors
	ErrRoomNotFound   = errors.New("chat room not found")
	ErrNotGroupChat   = errors.New("operation only valid for group chats")
	ErrSelfDirectChat = errors.New("cannot create direct chat with yourself")

	// Participant errors
	ErrNotParticipant       = errors.New("caller is not a participant of this chat room")
	ErrParticipantNotFound  = errors.New("participant not found in chat room")
	ErrAlreadyParticipant   = errors.New("user is already an active participant")
	ErrCannotTargetSelf     = errors.New("operation cannot target the caller")
	ErrNotRoomAdmin         = errors.New("caller is not an admin of this chat room")
	ErrCannotRemoveAdmin    = errors.New("cannot remove an admin from the chat room")
	ErrParticipantsNotFound = errors.New("one or more target users do not exist")

	// Message errors
	ErrMessageNotFound    = errors.New("message not found")
	ErrNotMessageSender   = errors.New("caller is not the sender of this message")
	ErrBlankTextContent   = errors.New("text messages require non-blank content")
	ErrMissingMetadata    = errors.New("attachment messages require metadata")
	ErrInvalidParent      = errors.New("parent message does not belong to this room")
	ErrNotEditable        = errors.New("only text messages can be edited")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrStorageDisabled    = errors.New("attachment storage is not configured")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)
