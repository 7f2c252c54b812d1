package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrTokenNotFound      = errors.New("token not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
)
