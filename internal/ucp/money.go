package ucp

import "fmt"

// money is this protocol's monetary shape: a decimal string in major
// units plus a currency code.
type money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// toMoney renders cents as an exact two-decimal string, so totals mapped
// back to minor units always match the other protocol to the cent.
func toMoney(cents int64, currency string) money {
	return money{
		Value:    fmt.Sprintf("%d.%02d", cents/100, cents%100),
		Currency: currency,
	}
}
