package domain

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrCancelWindowExpired = errors.New("cancellation window has expired")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrIdentifierRequired  = errors.New("identifier required")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInvalidID           = errors.New("invalid id")
)
