package order

import (
	"fmt"
	"strings"
)

// Currency identifies a balance currency
type Currency string

const (
	CurrencyBTC Currency = "BTC"
	CurrencyLTC Currency = "LTC"
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
)

var knownCurrencies = map[Currency]bool{
	CurrencyBTC: true,
	CurrencyLTC: true,
	CurrencyBRL: true,
	CurrencyUSD: true,
}

// ParseCurrency validates a currency code, case insensitive
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !knownCurrencies[c] {
		return "", fmt.Errorf("unknown currency %q", code)
	}
	return c, nil
}

// Pair is a traded symbol split into base and quote currency.
// Order quantities are in Base, prices are Quote per one unit of Base.
type Pair struct {
	Base  Currency
	Quote Currency
}

// ParseSymbol splits "BTCBRL" or "BTC/BRL" into its currencies
func ParseSymbol(symbol string) (Pair, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	var base, quote string
	if i := strings.IndexByte(s, '/'); i >= 0 {
		base, quote = s[:i], s[i+1:]
	} else if len(s) == 6 {
		base, quote = s[:3], s[3:]
	} else {
		return Pair{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}

	p := Pair{Base: Currency(base), Quote: Currency(quote)}
	if !knownCurrencies[p.Base] || !knownCurrencies[p.Quote] || p.Base == p.Quote {
		return Pair{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return p, nil
}

// Symbol returns the canonical symbol ("BTCBRL")
func (p Pair) Symbol() string {
	return string(p.Base) + string(p.Quote)
}
