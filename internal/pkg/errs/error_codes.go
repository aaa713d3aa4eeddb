/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005

	// ErrFormParseFailed indicates that a multipart form body could not be parsed.
	ErrFormParseFailed = 1006

	// ErrRequestEntityTooLarge indicates that the request body exceeds the configured size limit.
	ErrRequestEntityTooLarge = 1007
)

// 2xxx: Realtime Subsystem Errors
const (
	// ErrAuthenticationFailed indicates that the WebSocket handshake carried a
	// missing, malformed, or expired credential. The connection is rejected and
	// never registered.
	ErrAuthenticationFailed = 2001

	// ErrInvalidArgument indicates a malformed inbound realtime event payload.
	// The offending event is dropped; the connection stays open.
	ErrInvalidArgument = 2002

	// ErrResourceExhausted indicates the connection registry is at capacity.
	// The new registration is rejected; existing connections are unaffected.
	ErrResourceExhausted = 2003

	// ErrDeliveryFailed indicates a transport write to a single connection failed.
	// The connection is treated as disconnected; the error never reaches the publisher.
	ErrDeliveryFailed = 2004

	// ErrDirectoryUnavailable indicates a friend/member lookup timed out or failed.
	// The announcement audience degrades to empty; the failure is logged, not retried.
	ErrDirectoryUnavailable = 2005
)

// 3xxx: User, Session, and Friendship Errors
const (
	// ErrUnauthorized indicates the request lacks a valid identity token.
	ErrUnauthorized = 3001

	// ErrInvalidUsername indicates the username failed format validation.
	ErrInvalidUsername = 3002

	// ErrInvalidPassword indicates the password failed length validation.
	ErrInvalidPassword = 3003

	// ErrUserAlreadyExists indicates the chosen username is already taken.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates a failed username/password login attempt.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates the referenced user account does not exist.
	ErrUserNotFound = 3006

	// ErrAlreadyLoggedIn indicates an authenticated user attempted to register or log in again.
	ErrAlreadyLoggedIn = 3007

	// ErrCannotFriendSelf indicates a user attempted to friend themselves.
	ErrCannotFriendSelf = 3008

	// ErrAlreadyFriends indicates a friend request targets an existing friend.
	ErrAlreadyFriends = 3009

	// ErrFriendRequestNotFound indicates the referenced friend request does not exist.
	ErrFriendRequestNotFound = 3010
)

// 4xxx: Hub, Channel, Message, and File Errors
const (
	// ErrHubNotFound indicates the referenced hub does not exist.
	ErrHubNotFound = 4001

	// ErrHubNameInvalid indicates the hub name failed validation.
	ErrHubNameInvalid = 4002

	// ErrAlreadyHubMember indicates the user already belongs to the hub.
	ErrAlreadyHubMember = 4003

	// ErrNotHubMember indicates the user is not a member of the hub.
	ErrNotHubMember = 4004

	// ErrChannelNotFound indicates the referenced channel does not exist.
	ErrChannelNotFound = 4005

	// ErrChannelNameInvalid indicates the channel name failed validation.
	ErrChannelNameInvalid = 4006

	// ErrMessageNotFound indicates the referenced message does not exist.
	ErrMessageNotFound = 4007

	// ErrNotMessageOwner indicates the user attempted to edit or delete another user's message.
	ErrNotMessageOwner = 4008

	// ErrMessageContentTooLong indicates the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 4009

	// ErrFileSizeTooLarge indicates an attachment exceeded the maximum file size.
	ErrFileSizeTooLarge = 4101

	// ErrFileTypeInvalid indicates an attachment has a disallowed type or mismatched extension.
	ErrFileTypeInvalid = 4102

	// ErrFileStorageFailed indicates the object storage operation failed.
	ErrFileStorageFailed = 4103
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
