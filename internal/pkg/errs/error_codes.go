/*
Package errs provides the custom error type and the application error
code catalog.

Codes identify specific business or system failures in responses and in
server logs.
*/
package errs

// 1xxx: General request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates an unsupported Content-Type header.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON request body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON body.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates the client exceeded a request rate limit.
	ErrRateLimitExceeded = 1005

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1006

	// ErrRequestEntityTooLarge indicates a request body over the size limit.
	ErrRequestEntityTooLarge = 1007
)

// 2xxx: Chat, message, and social-graph business errors
const (
	// ErrChatNotFound indicates the referenced chat does not exist.
	ErrChatNotFound = 2101

	// ErrNotChatMember indicates the caller is not a member of the chat.
	ErrNotChatMember = 2102

	// ErrNotGroupChat indicates a group-only operation on a private chat.
	ErrNotGroupChat = 2103

	// ErrNotChatCreator indicates the caller does not administer the group.
	ErrNotChatCreator = 2104

	// ErrGroupTooSmall indicates a group was created with fewer than two other members.
	ErrGroupTooSmall = 2105

	// ErrGroupTooLarge indicates the group would exceed %d members.
	ErrGroupTooLarge = 2106

	// ErrMessageContentTooLong indicates message content over the length limit.
	ErrMessageContentTooLong = 2201

	// ErrAttachmentCountInvalid indicates zero or more than %d attachments.
	ErrAttachmentCountInvalid = 2202

	// ErrAttachmentKeyInvalid indicates an attachment key outside the chat's prefix.
	ErrAttachmentKeyInvalid = 2203

	// ErrFileSizeTooLarge indicates an attachment over the size limit.
	ErrFileSizeTooLarge = 2204

	// ErrFileStorageFailed indicates the storage backend rejected the operation.
	ErrFileStorageFailed = 2205

	// ErrRequestToSelf indicates a friend request targeting the sender.
	ErrRequestToSelf = 2301

	// ErrRequestAlreadyExists indicates a pending request between the pair.
	ErrRequestAlreadyExists = 2302

	// ErrRequestNotFound indicates the referenced friend request does not exist.
	ErrRequestNotFound = 2303

	// ErrNotRequestReceiver indicates the caller may not answer this request.
	ErrNotRequestReceiver = 2304
)

// 3xxx: User, session, and security errors
const (
	// ErrUnauthorized indicates a missing, malformed, or expired credential.
	ErrUnauthorized = 3001

	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = 3002

	// ErrUserAlreadyExists indicates the username is taken.
	ErrUserAlreadyExists = 3003

	// ErrInvalidUsername indicates the username fails format validation.
	ErrInvalidUsername = 3004

	// ErrInvalidPassword indicates the password fails length validation.
	ErrInvalidPassword = 3005

	// ErrInvalidCredentials indicates a failed username/password login.
	ErrInvalidCredentials = 3006

	// ErrAlreadyLoggedIn indicates an authenticated caller hitting a guest-only route.
	ErrAlreadyLoggedIn = 3007

	// ErrAdminSecretInvalid indicates a wrong admin secret key.
	ErrAdminSecretInvalid = 3008
)

// 5xxx: Internal system errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
