package models

import (
	"fmt"
	"strings"
)

// Market is the exchange a symbol is listed on.
type Market int

const (
	MarketSH Market = iota
	MarketSZ
	MarketBJ
	MarketHK
	MarketUS
)

var marketNames = [...]string{"SH", "SZ", "BJ", "HK", "US"}

func (m Market) String() string {
	if m < 0 || int(m) >= len(marketNames) {
		return marketNames[MarketSH]
	}
	return marketNames[m]
}

// ParseMarket maps a market token to a Market. Unknown tokens report false.
func ParseMarket(s string) (Market, bool) {
	for i, name := range marketNames {
		if name == s {
			return Market(i), true
		}
	}
	return MarketSH, false
}

// SecurityType is the instrument class of a symbol.
type SecurityType int

const (
	SecurityStock SecurityType = iota
	SecurityIndex
	SecurityETF
	SecurityConvertible
	SecurityBond
	SecurityFuture
	SecurityOption
)

var securityTypeNames = [...]string{"STOCK", "INDEX", "ETF", "CONVERTIBLE", "BOND", "FUTURE", "OPTION"}

func (t SecurityType) String() string {
	if t < 0 || int(t) >= len(securityTypeNames) {
		return securityTypeNames[SecurityStock]
	}
	return securityTypeNames[t]
}

// ParseSecurityType maps a type token to a SecurityType. Unknown tokens report false.
func ParseSecurityType(s string) (SecurityType, bool) {
	for i, name := range securityTypeNames {
		if name == s {
			return SecurityType(i), true
		}
	}
	return SecurityStock, false
}

// Symbol identifies a tradable instrument. It is comparable and safe to use as a map key.
type Symbol struct {
	Code   string
	Market Market
	Type   SecurityType
}

// NewSymbol builds a symbol from its parts.
func NewSymbol(code string, market Market, typ SecurityType) Symbol {
	return Symbol{Code: code, Market: market, Type: typ}
}

// ParseSymbol reads the canonical "CODE.MARKET.TYPE" form.
// Unknown market or type tokens fall back to SH and STOCK. Input without
// three parts becomes the code of an SH stock.
func ParseSymbol(s string) Symbol {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) < 3 || parts[2] == "" {
		return Symbol{Code: s, Market: MarketSH, Type: SecurityStock}
	}
	market, _ := ParseMarket(parts[1])
	typ, _ := ParseSecurityType(parts[2])
	return Symbol{Code: parts[0], Market: market, Type: typ}
}

// String returns the canonical "CODE.MARKET.TYPE" form.
func (s Symbol) String() string {
	return fmt.Sprintf("%s.%s.%s", s.Code, s.Market, s.Type)
}

func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Symbol) UnmarshalText(b []byte) error {
	*s = ParseSymbol(string(b))
	return nil
}

// SinaCode returns the symbol as used by Sina, e.g. "sh600000".
func (s Symbol) SinaCode() string {
	return strings.ToLower(s.Market.String()) + s.Code
}

// TencentCode returns the symbol as used by Tencent, e.g. "sz000001".
func (s Symbol) TencentCode() string {
	return strings.ToLower(s.Market.String()) + s.Code
}

// NeteaseCode returns the symbol as used by Netease, e.g. "0600000".
func (s Symbol) NeteaseCode() string {
	return fmt.Sprintf("%d%s", int(s.Market), s.Code)
}

// EastMoneySecID returns the EastMoney secid, e.g. "1.600000".
func (s Symbol) EastMoneySecID() string {
	if s.Market == MarketSZ {
		return "0." + s.Code
	}
	return "1." + s.Code
}
