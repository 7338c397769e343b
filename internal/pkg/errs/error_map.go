/*
Package errs provides the custom error type and the application error
code catalog.

This file maps every error code to its CustomError template, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error
// code. A zero Status defaults to HTTP 200 with a non-zero business code.
var errorMap = map[int]CustomError{
	// 1xxx: General request handling errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},

	// 2xxx: Chat, message, and social-graph business errors
	ErrChatNotFound:           {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrNotChatMember:          {Code: ErrNotChatMember, Message: "You are not a member of this chat.", Status: http.StatusForbidden},
	ErrNotGroupChat:           {Code: ErrNotGroupChat, Message: "This is not a group chat.", Status: http.StatusBadRequest},
	ErrNotChatCreator:         {Code: ErrNotChatCreator, Message: "Only the group creator can do that.", Status: http.StatusForbidden},
	ErrGroupTooSmall:          {Code: ErrGroupTooSmall, Message: "A group needs at least two other members.", Status: http.StatusBadRequest},
	ErrGroupTooLarge:          {Code: ErrGroupTooLarge, Message: "A group chat can have at most %d members.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong:  {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrAttachmentCountInvalid: {Code: ErrAttachmentCountInvalid, Message: "A message can carry between 1 and %d attachments.", Status: http.StatusBadRequest},
	ErrAttachmentKeyInvalid:   {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment.", Status: http.StatusBadRequest},
	ErrFileSizeTooLarge:       {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrFileStorageFailed:      {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusBadGateway},
	ErrRequestToSelf:          {Code: ErrRequestToSelf, Message: "You cannot send a friend request to yourself.", Status: http.StatusBadRequest},
	ErrRequestAlreadyExists:   {Code: ErrRequestAlreadyExists, Message: "Request already sent.", Status: http.StatusBadRequest},
	ErrRequestNotFound:        {Code: ErrRequestNotFound, Message: "Friend request not found.", Status: http.StatusNotFound},
	ErrNotRequestReceiver:     {Code: ErrNotRequestReceiver, Message: "You are not authorized to answer this request.", Status: http.StatusForbidden},

	// 3xxx: User, session, and security errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken.", Status: http.StatusConflict},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password.", Status: http.StatusBadRequest},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrAlreadyLoggedIn:    {Code: ErrAlreadyLoggedIn, Message: "You are already signed in.", Status: http.StatusBadRequest},
	ErrAdminSecretInvalid: {Code: ErrAdminSecretInvalid, Message: "Invalid admin secret key.", Status: http.StatusUnauthorized},

	// 5xxx: Internal system errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
