// market/instruments.go
package market

import (
	"sort"
	"strings"
)

// ContractSpec carries the tick economics of a futures contract.
type ContractSpec struct {
	Symbol     string  `json:"symbol" yaml:"symbol"`
	PointValue float64 `json:"point_value" yaml:"point_value"` // USD per full point
	TickSize   float64 `json:"tick_size" yaml:"tick_size"`     // smallest price increment
	TickValue  float64 `json:"tick_value" yaml:"tick_value"`   // USD per tick
}

// defaultContract is returned for any symbol missing from the catalog.
var defaultContract = ContractSpec{
	Symbol:     "",
	PointValue: 5.0,
	TickSize:   0.25,
	TickValue:  1.25,
}

// contracts is the static catalog of supported CME index futures.
var contracts = map[string]ContractSpec{
	"MES": {Symbol: "MES", PointValue: 5, TickSize: 0.25, TickValue: 1.25},
	"MNQ": {Symbol: "MNQ", PointValue: 2, TickSize: 0.25, TickValue: 0.50},
	"MYM": {Symbol: "MYM", PointValue: 0.5, TickSize: 1, TickValue: 0.50},
	"M2K": {Symbol: "M2K", PointValue: 5, TickSize: 0.1, TickValue: 0.50},
	"ES":  {Symbol: "ES", PointValue: 50, TickSize: 0.25, TickValue: 12.50},
	"NQ":  {Symbol: "NQ", PointValue: 20, TickSize: 0.25, TickValue: 5.00},
	"YM":  {Symbol: "YM", PointValue: 5, TickSize: 1, TickValue: 5.00},
	"RTY": {Symbol: "RTY", PointValue: 50, TickSize: 0.1, TickValue: 5.00},
}

// Symbol returns the token before the first whitespace, "ES 12-24" -> "ES".
func Symbol(instrument string) string {
	parts := strings.Fields(instrument)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Lookup resolves the contract for an instrument description such as
// "MNQ 03-25". Unknown symbols get the default contract, never an error.
func Lookup(instrument string) ContractSpec {
	if spec, ok := contracts[Symbol(instrument)]; ok {
		return spec
	}
	return defaultContract
}

// Default returns the contract used for unlisted symbols.
func Default() ContractSpec { return defaultContract }

// Catalog returns a copy of the supported contracts sorted by symbol.
func Catalog() []ContractSpec {
	out := make([]ContractSpec, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
