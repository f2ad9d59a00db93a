package provider

// SymbolsV1Key is the key for decimal formatting symbols.
var SymbolsV1Key = DataKey{Category: "decimal", Name: "symbols", Version: 1}

// SymbolsV1 holds the symbols used to format decimal numbers.
type SymbolsV1 struct {
	ZeroDigit         rune   `json:"zero_digit"`
	DecimalSeparator  string `json:"decimal_separator"`
	GroupingSeparator string `json:"grouping_separator"`
}

// DefaultSymbolsV1 returns the locale-invariant symbols.
func DefaultSymbolsV1() SymbolsV1 {
	return SymbolsV1{
		ZeroDigit:         '0',
		DecimalSeparator:  ".",
		GroupingSeparator: ",",
	}
}

func init() {
	register(SymbolsV1Key, DefaultSymbolsV1())
}
