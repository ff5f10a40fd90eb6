package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	ErrValidationNoUserID         = errors.New("no user ID for conversation was given")
	ErrValidationNoConversationID = errors.New("no conversation ID was given")
)

// Chat session errors.
var (
	// ErrConversationNotFound is returned for an id the replica does not hold.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationBusy is returned when a send is already in flight for
	// the conversation.
	ErrConversationBusy = errors.New("conversation is busy")

	// ErrMessageNotFound is returned by Edit and Branch for an unknown
	// message id.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotUserMessage is returned by Edit for a non-user message.
	ErrNotUserMessage = errors.New("only user messages can be edited")

	// ErrNothingToRetry is returned by Retry when no user turn exists.
	ErrNothingToRetry = errors.New("conversation has no user message to retry")

	// ErrEmptyMessage is returned by Send for blank content without
	// attachments.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendFailed wraps the transport error of a failed send.
	ErrSendFailed = errors.New("send failed")

	// ErrSendAborted is returned when the caller cancelled a send.
	ErrSendAborted = errors.New("send aborted")

	// ErrRemoteDisabled is returned by Reconcile when no remote store is
	// configured.
	ErrRemoteDisabled = errors.New("remote store is not configured")

	// ErrRemoteUnavailable wraps a failure to fetch the remote snapshot.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)
