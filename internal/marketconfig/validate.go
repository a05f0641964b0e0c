package marketconfig

import (
	"fmt"

	"github.com/wonny/bitex/backend/internal/order"
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile validates cfg and converts it to fixed-point rules keyed by canonical symbol
func Compile(cfg *Config) (map[string]Rules, error) {
	if cfg.Version != 1 {
		return nil, ValidationError{"version", fmt.Sprintf("unsupported version %d", cfg.Version)}
	}
	if len(cfg.Markets) == 0 {
		return nil, ValidationError{"markets", "at least one market required"}
	}

	rules := make(map[string]Rules, len(cfg.Markets))
	for i, m := range cfg.Markets {
		r, err := compileMarket(m, fmt.Sprintf("markets[%d]", i))
		if err != nil {
			return nil, err
		}
		if _, dup := rules[r.Symbol]; dup {
			return nil, ValidationError{fmt.Sprintf("markets[%d].symbol", i), "duplicate symbol " + r.Symbol}
		}
		rules[r.Symbol] = r
	}
	return rules, nil
}

func compileMarket(m Market, field string) (Rules, error) {
	pair, err := order.ParseSymbol(m.Symbol)
	if err != nil {
		return Rules{}, ValidationError{field + ".symbol", err.Error()}
	}

	r := Rules{
		Symbol:       pair.Symbol(),
		MarketOrders: m.MarketOrders,
		Halted:       m.Halted,
	}

	amounts := []struct {
		name     string
		raw      string
		dst      *int64
		optional bool
	}{
		{"tick_size", m.TickSize, &r.TickSize, false},
		{"lot_size", m.LotSize, &r.LotSize, false},
		{"min_qty", m.MinQty, &r.MinQty, false},
		{"max_qty", m.MaxQty, &r.MaxQty, true},
	}
	for _, a := range amounts {
		if a.raw == "" {
			if a.optional {
				continue
			}
			return Rules{}, ValidationError{field + "." + a.name, "required"}
		}
		v, err := order.ParseFixed(a.raw)
		if err != nil {
			return Rules{}, ValidationError{field + "." + a.name, err.Error()}
		}
		if v <= 0 {
			return Rules{}, ValidationError{field + "." + a.name, "must be > 0"}
		}
		*a.dst = v
	}

	if r.MinQty%r.LotSize != 0 {
		return Rules{}, ValidationError{field + ".min_qty", "must be a multiple of lot_size"}
	}
	if r.MaxQty > 0 {
		if r.MaxQty < r.MinQty {
			return Rules{}, ValidationError{field + ".max_qty", "must be >= min_qty"}
		}
		if r.MaxQty%r.LotSize != 0 {
			return Rules{}, ValidationError{field + ".max_qty", "must be a multiple of lot_size"}
		}
	}

	return r, nil
}
