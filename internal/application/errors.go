package application

import "errors"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrBlogNotFound      = errors.New("blog not found")
	ErrNotOwner          = errors.New("not authorized")
	ErrTitleRequired     = errors.New("title is required")
	ErrContentRequired   = errors.New("content is required")
	ErrImageRequired     = errors.New("image or image url is required")
	ErrInvalidImage      = errors.New("image must be a jpeg, png or gif")
	ErrImageDimensions   = errors.New("image dimensions too large")
	ErrImageStoreMissing = errors.New("image storage not configured")
	ErrEmptyQuery        = errors.New("search query is required")

	ErrPredictionUnavailable = errors.New("prediction service unavailable")
	ErrPredictionRejected    = errors.New("prediction request rejected")
)
