package service

import "errors"

var (
	ErrInvalidGTIN        = errors.New("invalid GTIN")
	ErrInvalidWeek        = errors.New("launch week must be between 1 and 53")
	ErrNoRetailers        = errors.New("a launch product needs at least one retailer")
	ErrInvalidProductType = errors.New("invalid product type")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrInvalidTemplate    = errors.New("invalid template")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyComment       = errors.New("comment text is empty")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrProtectedRole      = errors.New("system roles cannot be deleted")
	ErrStorageDisabled    = errors.New("object storage is not configured")
	ErrGS1Disabled        = errors.New("GS1 integration is not configured")
	ErrTradeItemNotFound  = errors.New("trade item not found in GS1")
	ErrInvalidUserInput   = errors.New("username, name and password are required")
	ErrSubscriptionGone   = errors.New("GS1 subscription not found")
	ErrUnknownAuthMethod  = errors.New("unknown login method")
	ErrAuthMethodDisabled = errors.New("login method is not configured")
	ErrMissingAuthCode    = errors.New("authorization code and redirect URI are required")
)
