package utils

import (
	"fmt"
	"math"
	"strings"
)

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var SupportedCurrencies = map[string]Currency{
	"usd": {Code: "usd", Symbol: "$", Name: "US Dollar"},
	"eur": {Code: "eur", Symbol: "€", Name: "Euro"},
	"gbp": {Code: "gbp", Symbol: "£", Name: "British Pound"},
	"cad": {Code: "cad", Symbol: "C$", Name: "Canadian Dollar"},
	"aud": {Code: "aud", Symbol: "A$", Name: "Australian Dollar"},
}

func FormatCurrency(amount float64, currencyCode string) string {
	currency, exists := SupportedCurrencies[strings.ToLower(currencyCode)]
	if !exists {
		currency = SupportedCurrencies["usd"]
	}

	return fmt.Sprintf("%s%.2f", currency.Symbol, RoundCurrency(amount))
}

// RoundCurrency rounds to 2 decimal places. Summations stay unrounded until
// the final step so rounding error does not compound.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func ValidateCurrencyCode(code string) bool {
	_, exists := SupportedCurrencies[strings.ToLower(code)]
	return exists
}
