package order

import "errors"

var (
	// ErrInvalidSide is returned when a side code is neither buy nor sell
	ErrInvalidSide = errors.New("invalid order side")

	// ErrMixedSides is returned when comparing orders of different sides
	ErrMixedSides = errors.New("cannot compare orders of different sides")

	// ErrOrderNotFound is returned when an order does not exist or is not owned by the requester
	ErrOrderNotFound = errors.New("order not found")

	// ErrOverfill is returned when execute or cancel exceeds the leaves quantity
	ErrOverfill = errors.New("quantity exceeds leaves quantity")

	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrUnknownSymbol   = errors.New("unknown symbol")

	// ErrInvariant is returned when a rehydrated order has inconsistent quantities
	ErrInvariant = errors.New("order invariant violated")
)
