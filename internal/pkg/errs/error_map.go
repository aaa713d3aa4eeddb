/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Unable to parse uploaded form data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request body is too large.", Status: http.StatusRequestEntityTooLarge},

	// 2xxx: Realtime Subsystem Errors
	ErrAuthenticationFailed: {Code: ErrAuthenticationFailed, Message: "Connection rejected: invalid or expired credential.", Status: http.StatusUnauthorized},
	ErrInvalidArgument:      {Code: ErrInvalidArgument, Message: "Malformed event payload."},
	ErrResourceExhausted:    {Code: ErrResourceExhausted, Message: "Server is at capacity. Please try again later.", Status: http.StatusServiceUnavailable},
	ErrDeliveryFailed:       {Code: ErrDeliveryFailed, Message: "Event delivery failed."},
	ErrDirectoryUnavailable: {Code: ErrDirectoryUnavailable, Message: "Contact lookup temporarily unavailable."},

	// 3xxx: User, Session, and Friendship Errors
	ErrUnauthorized:          {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidUsername:       {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:       {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:     {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrInvalidCredentials:    {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrUserNotFound:          {Code: ErrUserNotFound, Message: "Account not found."},
	ErrAlreadyLoggedIn:       {Code: ErrAlreadyLoggedIn, Message: "You are already signed in."},
	ErrCannotFriendSelf:      {Code: ErrCannotFriendSelf, Message: "You cannot add yourself as a friend."},
	ErrAlreadyFriends:        {Code: ErrAlreadyFriends, Message: "You are already friends with this user."},
	ErrFriendRequestNotFound: {Code: ErrFriendRequestNotFound, Message: "Friend request not found."},

	// 4xxx: Hub, Channel, Message, and File Errors
	ErrHubNotFound:           {Code: ErrHubNotFound, Message: "Hub not found."},
	ErrHubNameInvalid:        {Code: ErrHubNameInvalid, Message: "Invalid hub name."},
	ErrAlreadyHubMember:      {Code: ErrAlreadyHubMember, Message: "You are already a member of this hub."},
	ErrNotHubMember:          {Code: ErrNotHubMember, Message: "You are not a member of this hub.", Status: http.StatusForbidden},
	ErrChannelNotFound:       {Code: ErrChannelNotFound, Message: "Channel not found."},
	ErrChannelNameInvalid:    {Code: ErrChannelNameInvalid, Message: "Invalid channel name."},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found."},
	ErrNotMessageOwner:       {Code: ErrNotMessageOwner, Message: "You can only modify your own messages.", Status: http.StatusForbidden},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "File type is not allowed."},
	ErrFileStorageFailed:     {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
