// Package positions computes derived position metrics from the raw,
// string-typed records the broker returns.
package positions

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"neo-trader/internal/models"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// ParseDecimal parses a numeric-ish wire value. Thousands separators are
// stripped; a missing, empty, or unparseable value yields def. Broker
// fields are not trusted to be well-formed, so nothing here ever errors.
func ParseDecimal(value string, def decimal.Decimal) decimal.Decimal {
	s := strings.TrimSpace(value)
	if s == "" {
		return def
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	return d
}

// Metrics is the computed snapshot for one position record. Every
// numeric field is rendered as an exact decimal string; the raw record
// rides along for traceability. Metrics are never persisted, they are
// regenerated on every query.
type Metrics struct {
	Symbol string             `json:"symbol"`
	Raw    models.RawPosition `json:"raw"`

	CFBuyQty  string `json:"cfBuyQty"`
	FLBuyQty  string `json:"flBuyQty"`
	CFSellQty string `json:"cfSellQty"`
	FLSellQty string `json:"flSellQty"`
	LotSize   string `json:"lotSz"`

	TotalBuyQty  string `json:"total_buy_qty"`
	TotalSellQty string `json:"total_sell_qty"`
	CarryFwdQty  string `json:"carry_fwd_qty"`
	NetQty       string `json:"net_qty"`

	TotalBuyAmt  string `json:"total_buy_amt"`
	TotalSellAmt string `json:"total_sell_amt"`

	BuyAvgPrice  string `json:"buy_avg_price"`
	SellAvgPrice string `json:"sell_avg_price"`
	AvgPrice     string `json:"avg_price"`
	PnL          string `json:"pnl"`
}

// Compute derives the metrics for one raw position record. It is a pure
// function: same record in, bit-identical strings out.
func Compute(raw models.RawPosition) Metrics {
	cfBuyQty := ParseDecimal(raw.CFBuyQty, zero)
	flBuyQty := ParseDecimal(raw.FLBuyQty, zero)
	cfSellQty := ParseDecimal(raw.CFSellQty, zero)
	flSellQty := ParseDecimal(raw.FLSellQty, zero)

	lotSize := ParseDecimal(raw.LotSize, one)
	if lotSize.IsZero() {
		lotSize = one
	}

	buyAmt := ParseDecimal(raw.BuyAmt, zero)
	cfBuyAmt := ParseDecimal(raw.CFBuyAmt, zero)
	sellAmt := ParseDecimal(raw.SellAmt, zero)
	cfSellAmt := ParseDecimal(raw.CFSellAmt, zero)

	multiplier := ParseDecimal(raw.Multiplier, one)
	genNum := ParseDecimal(raw.GenNum, one)
	genDen := ParseDecimal(raw.GenDen, one)
	prcNum := ParseDecimal(raw.PrcNum, one)
	prcDen := ParseDecimal(raw.PrcDen, one)

	// Last traded price: strike price field when present, plain LTP otherwise.
	ltp := ParseDecimal(raw.StrikePrice, zero)
	if strings.TrimSpace(raw.StrikePrice) == "" {
		ltp = ParseDecimal(raw.LTP, zero)
	}

	precision := displayPrecision(raw.Precision)

	// Derivative quantities come in contract units; convert to lots.
	if lotSize.GreaterThan(one) {
		cfBuyQty = cfBuyQty.Div(lotSize)
		flBuyQty = flBuyQty.Div(lotSize)
		cfSellQty = cfSellQty.Div(lotSize)
		flSellQty = flSellQty.Div(lotSize)
	}

	totalBuyQty := cfBuyQty.Add(flBuyQty)
	totalSellQty := cfSellQty.Add(flSellQty)
	carryFwdQty := cfBuyQty.Sub(cfSellQty)
	netQty := totalBuyQty.Sub(totalSellQty)

	totalBuyAmt := cfBuyAmt.Add(buyAmt)
	totalSellAmt := cfSellAmt.Add(sellAmt)

	// Composite scaling coefficient converting amount/quantity into
	// price-per-unit terms. Undefined divisions collapse the whole
	// factor to 1.
	denomFactor := one
	if !genDen.IsZero() && !prcDen.IsZero() {
		denomFactor = multiplier.Mul(genNum.Div(genDen)).Mul(prcNum.Div(prcDen))
	}

	buyAvg := safeAvgPrice(totalBuyAmt, totalBuyQty, denomFactor)
	sellAvg := safeAvgPrice(totalSellAmt, totalSellQty, denomFactor)

	var avg decimal.Decimal
	switch {
	case totalBuyQty.GreaterThan(totalSellQty):
		avg = buyAvg
	case totalBuyQty.LessThan(totalSellQty):
		avg = sellAvg
	default:
		avg = zero
	}

	pnl := totalSellAmt.Sub(totalBuyAmt).Add(netQty.Mul(ltp).Mul(denomFactor))

	return Metrics{
		Symbol:       raw.DisplaySymbol(),
		Raw:          raw,
		CFBuyQty:     cfBuyQty.String(),
		FLBuyQty:     flBuyQty.String(),
		CFSellQty:    cfSellQty.String(),
		FLSellQty:    flSellQty.String(),
		LotSize:      lotSize.String(),
		TotalBuyQty:  totalBuyQty.String(),
		TotalSellQty: totalSellQty.String(),
		CarryFwdQty:  carryFwdQty.String(),
		NetQty:       netQty.String(),
		TotalBuyAmt:  totalBuyAmt.String(),
		TotalSellAmt: totalSellAmt.String(),
		BuyAvgPrice:  buyAvg.StringFixed(precision),
		SellAvgPrice: sellAvg.StringFixed(precision),
		AvgPrice:     avg.StringFixed(precision),
		PnL:          pnl.StringFixed(precision),
	}
}

// ComputeAll derives metrics for every record in a positions response.
func ComputeAll(records []models.RawPosition) []Metrics {
	out := make([]Metrics, len(records))
	for i, rec := range records {
		out[i] = Compute(rec)
	}
	return out
}

// safeAvgPrice is amt / (qty * denomFactor), or zero whenever that
// division is undefined.
func safeAvgPrice(totalAmt, totalQty, denomFactor decimal.Decimal) decimal.Decimal {
	if totalQty.IsZero() || denomFactor.IsZero() {
		return zero
	}
	return totalAmt.Div(totalQty.Mul(denomFactor))
}

// displayPrecision parses the record-supplied display precision,
// defaulting to 2 and clamping negatives to 0.
func displayPrecision(raw string) int32 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 2
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 2
	}
	if n < 0 {
		return 0
	}
	return int32(n)
}
