package errors

import (
	"errors"
)

var (
	ErrInvalidCredentials   = errors.New("incorrect username or password")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrInactiveUser         = errors.New("inactive user")
	ErrNotEnoughPermissions = errors.New("not enough permissions")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrRoleAlreadyExists    = errors.New("role already exists")
	ErrUserDoesNotExist     = errors.New("user does not exist")
	ErrRoleDoesNotExist     = errors.New("role does not exist")
	ErrUsernameLength       = errors.New("username length is out of bounds")
	ErrPasswordLength       = errors.New("password length is out of bounds")
)
