package order

import "fmt"

// Side represents the side of an order
// ⭐ SSOT: 주문 방향 코드는 여기서만 변환
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// ParseSide converts the stored side code ('1' buy, '2' sell)
func ParseSide(code string) (Side, error) {
	switch code {
	case "1":
		return SideBuy, nil
	case "2":
		return SideSell, nil
	}
	return SideUnknown, fmt.Errorf("%w: %q", ErrInvalidSide, code)
}

// ParseSideName accepts the human form used by the CLI
func ParseSideName(name string) (Side, error) {
	switch name {
	case "buy", "BUY", "1":
		return SideBuy, nil
	case "sell", "SELL", "2":
		return SideSell, nil
	}
	return SideUnknown, fmt.Errorf("%w: %q", ErrInvalidSide, name)
}

// Code returns the wire/storage code
func (s Side) Code() string {
	switch s {
	case SideBuy:
		return "1"
	case SideSell:
		return "2"
	}
	return ""
}

// Valid reports whether s is buy or sell
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the other side of the book
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	}
	return SideUnknown
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	}
	return "UNKNOWN"
}

// Status represents the lifecycle state of an order.
// It is always derived from the quantities, never assigned directly.
type Status uint8

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCanceled
)

// ParseStatus converts the stored status code.
// '3' is reserved and rejected.
func ParseStatus(code string) (Status, error) {
	switch code {
	case "0":
		return StatusNew, nil
	case "1":
		return StatusPartiallyFilled, nil
	case "2":
		return StatusFilled, nil
	case "4":
		return StatusCanceled, nil
	}
	return StatusNew, fmt.Errorf("unknown order status code %q", code)
}

// Code returns the wire/storage code
func (s Status) Code() string {
	switch s {
	case StatusPartiallyFilled:
		return "1"
	case StatusFilled:
		return "2"
	case StatusCanceled:
		return "4"
	}
	return "0"
}

// IsTerminal reports whether no further execution or cancel can happen
func (s Status) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCanceled:
		return "CANCELED"
	}
	return "UNKNOWN"
}

// Type represents market or limit order
type Type uint8

const (
	TypeUnknown Type = iota
	TypeMarket
	TypeLimit
)

// ParseType converts the stored order type code ('1' market, '2' limit)
func ParseType(code string) (Type, error) {
	switch code {
	case "1":
		return TypeMarket, nil
	case "2":
		return TypeLimit, nil
	}
	return TypeUnknown, fmt.Errorf("unknown order type code %q", code)
}

// ParseTypeName accepts the human form used by the CLI
func ParseTypeName(name string) (Type, error) {
	switch name {
	case "market", "MARKET", "1":
		return TypeMarket, nil
	case "limit", "LIMIT", "2":
		return TypeLimit, nil
	}
	return TypeUnknown, fmt.Errorf("unknown order type %q", name)
}

// Code returns the wire/storage code
func (t Type) Code() string {
	switch t {
	case TypeMarket:
		return "1"
	case TypeLimit:
		return "2"
	}
	return ""
}

func (t Type) String() string {
	switch t {
	case TypeMarket:
		return "MARKET"
	case TypeLimit:
		return "LIMIT"
	}
	return "UNKNOWN"
}
