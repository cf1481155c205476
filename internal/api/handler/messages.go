package handler

// Client-facing messages. Several outcomes deliberately share
// MsgInvalidCredentials so callers cannot probe which accounts exist.
const (
	MsgInvalidCredentials = "Invalid credentials!"
	MsgSomethingWentWrong = "Something went wrong! Please, try again later."
	MsgAlreadyVerified    = "You are a verified user already!"
	MsgNotVerified        = "You are not a verified user!"
	MsgCreateAccountFirst = "Create an account first. Then ask for Verification Code!"
	MsgNoActiveCode       = "Something wrong with the code!"
	MsgCodeExpired        = "The code has been expired!"
	MsgCodeIncorrect      = "This code is incorrect!"
	MsgUnauthorized       = "Unauthorized!"
	MsgForbidden          = "You do not have the authority to do this!"
	MsgPostNotFound       = "It seems the post doesn't exist!"
	MsgCommentNotFound    = "Oops! That comment seems unavailable!"
	MsgCatalogNotFound    = "That item seems unavailable!"
	MsgEmptyComment       = "Write something or select picture to post!"
	MsgAlreadyUpvoted     = "You cannot upvote a comment twice!"
	MsgNotUpvoted         = "You have not upvoted this comment!"
	MsgInvalidPicture     = "Only .png, .jpg, .jpeg and .gif pictures up to 2MB are allowed!"
	MsgUploadsUnavailable = "Picture uploads are unavailable right now!"
	MsgDuplicateRequest   = "Duplicate request!"
	MsgInvalidPayload     = "Invalid data!"
	MsgAccountCreated     = "Your account has been created successfully"
	MsgLoggedIn           = "You are logged in!"
	MsgLoggedOut          = "Successfully logged out!"
	MsgVerificationSent   = "A verification code has been sent to your email address!"
	MsgAccountVerified    = "Your account has been verified!"
	MsgPasswordChanged    = "Your password has been updated!"
	MsgResetCodeSent      = "A password reset code has been sent to your email address!"
	MsgCommentCreated     = "Comment created successfully!"
	MsgCommentUpdated     = "Comment updated successfully!"
	MsgCommentDeleted     = "Comment deleted successfully!"
	MsgUpvoteAdded        = "Upvote added!"
	MsgUpvoteRemoved      = "Upvote removed!"
	MsgCommentsListed     = "Comments"
	MsgUserNotFound       = "That user seems unavailable!"
	MsgSelfFollow         = "You cannot follow yourself!"
	MsgAlreadyFollowing   = "You are following this user already!"
	MsgNotFollowing       = "You are not following this user!"
	MsgFollowed           = "You are now following this user!"
	MsgUnfollowed         = "You have unfollowed this user!"
	MsgUsersListed        = "Users"
	MsgTeachersListed     = "Teachers"
)

// messageResponse is the envelope every endpoint answers with.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// dataResponse adds a payload to the envelope.
type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(message string) messageResponse {
	return messageResponse{Success: true, Message: message}
}

func okData(message string, data any) dataResponse {
	return dataResponse{Success: true, Message: message, Data: data}
}
