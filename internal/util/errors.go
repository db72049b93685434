package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTestNotFound         = errors.New("test not found")
	ErrTestNotPublished     = errors.New("test not published or not accessible")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExists        = errors.New("an active session for this test already exists")
	ErrSessionNotOwned      = errors.New("session belongs to another user")
	ErrTestAlreadySubmitted = errors.New("test already submitted")
)
