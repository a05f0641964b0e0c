package marketconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/bitex/backend/internal/order"
)

// Config is the market rules file
// ⭐ SSOT: 심볼별 호가단위/수량 규칙은 이 파일에서만 정의
type Config struct {
	Version int      `yaml:"version" json:"version"`
	Markets []Market `yaml:"markets" json:"markets"`
}

// Market is the raw YAML rule set of one symbol. Amounts are decimal strings.
type Market struct {
	Symbol       string `yaml:"symbol" json:"symbol"`
	TickSize     string `yaml:"tick_size" json:"tick_size"`
	LotSize      string `yaml:"lot_size" json:"lot_size"`
	MinQty       string `yaml:"min_qty" json:"min_qty"`
	MaxQty       string `yaml:"max_qty,omitempty" json:"max_qty,omitempty"` // empty = unlimited
	MarketOrders bool   `yaml:"market_orders" json:"market_orders"`
	Halted       bool   `yaml:"halted,omitempty" json:"halted,omitempty"`
}

// Rules is a validated Market in fixed-point units
type Rules struct {
	Symbol       string
	TickSize     int64
	LotSize      int64
	MinQty       int64
	MaxQty       int64 // 0 = unlimited
	MarketOrders bool
	Halted       bool
}

var (
	// ErrRuleViolation is returned for an order that breaks its market's rules
	ErrRuleViolation = errors.New("market rule violation")

	ErrMarketHalted = errors.New("market halted")
)

// Check validates the entry fields of an order against the rules
func (r Rules) Check(typ order.Type, price, qty int64) error {
	if r.Halted {
		return fmt.Errorf("%w: %s", ErrMarketHalted, r.Symbol)
	}
	if typ == order.TypeMarket && !r.MarketOrders {
		return fmt.Errorf("%w: market orders disabled on %s", ErrRuleViolation, r.Symbol)
	}
	if typ == order.TypeLimit && price%r.TickSize != 0 {
		return fmt.Errorf("%w: price %s is not a multiple of tick %s",
			ErrRuleViolation, order.FormatFixed(price), order.FormatFixed(r.TickSize))
	}
	if qty%r.LotSize != 0 {
		return fmt.Errorf("%w: qty %s is not a multiple of lot %s",
			ErrRuleViolation, order.FormatFixed(qty), order.FormatFixed(r.LotSize))
	}
	if qty < r.MinQty {
		return fmt.Errorf("%w: qty %s below minimum %s",
			ErrRuleViolation, order.FormatFixed(qty), order.FormatFixed(r.MinQty))
	}
	if r.MaxQty > 0 && qty > r.MaxQty {
		return fmt.Errorf("%w: qty %s above maximum %s",
			ErrRuleViolation, order.FormatFixed(qty), order.FormatFixed(r.MaxQty))
	}
	return nil
}

// Snapshot records which rules were active, for audit logs
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	Symbols    []string  `json:"symbols"`
	LoadedAt   time.Time `json:"loaded_at"`
}
