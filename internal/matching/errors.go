package matching

import "errors"

var (
	// ErrBookNotFound is returned for a symbol the engine does not trade
	ErrBookNotFound = errors.New("no order book for symbol")

	// ErrRateLimited is returned when an account submits orders faster than allowed
	ErrRateLimited = errors.New("order rate limit exceeded")

	ErrInvalidClientOrderID = errors.New("invalid client order id")
)
