package instrument

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// Contract is one tradable option from an exchange instrument dump.
type Contract struct {
	Key        string
	Underlying string
	Type       OptionType
	Strike     decimal.Decimal
	Expiry     time.Time
}

// LoadChain reads an instrument dump from disk. See ParseChain for the format.
func LoadChain(path string) ([]Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read option chain %s: %w", path, err)
	}
	return ParseChain(data)
}

// ParseChain decodes a JSON array of instruments in the exchange dump layout:
//
//	[{"instrument_key":"NSE_FO|43921","underlying_symbol":"NIFTY",
//	  "instrument_type":"CE","strike_price":24500,"expiry":1756425600000}]
//
// Expiry is epoch milliseconds. Entries that are not CE/PE options or have no
// key are skipped.
func ParseChain(data []byte) ([]Contract, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("option chain is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("option chain must be a JSON array")
	}

	var contracts []Contract
	root.ForEach(func(_, item gjson.Result) bool {
		typ := OptionType(item.Get("instrument_type").String())
		key := item.Get("instrument_key").String()
		if key == "" || (typ != Call && typ != Put) {
			return true
		}

		strike, err := decimal.NewFromString(item.Get("strike_price").String())
		if err != nil {
			return true
		}

		c := Contract{
			Key:        key,
			Underlying: item.Get("underlying_symbol").String(),
			Type:       typ,
			Strike:     strike,
		}
		if exp := item.Get("expiry"); exp.Exists() && exp.Int() > 0 {
			c.Expiry = time.UnixMilli(exp.Int()).UTC()
		}
		contracts = append(contracts, c)
		return true
	})

	return contracts, nil
}
