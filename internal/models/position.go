package models

// RawPosition is a position record exactly as the broker returns it.
// Every numeric field is a string and may be missing, empty, or
// comma-formatted; parsing happens in one place (positions.ParseDecimal),
// never inline.
type RawPosition struct {
	Symbol        string `json:"sym"`
	TradingSymbol string `json:"trdSym"`
	ExchangeSeg   string `json:"exSeg"`
	Product       string `json:"prod"`

	CFBuyQty  string `json:"cfBuyQty"`
	FLBuyQty  string `json:"flBuyQty"`
	CFSellQty string `json:"cfSellQty"`
	FLSellQty string `json:"flSellQty"`

	BuyAmt    string `json:"buyAmt"`
	CFBuyAmt  string `json:"cfBuyAmt"`
	SellAmt   string `json:"sellAmt"`
	CFSellAmt string `json:"cfSellAmt"`

	LotSize    string `json:"lotSz"`
	Multiplier string `json:"multiplier"`
	GenNum     string `json:"genNum"`
	GenDen     string `json:"genDen"`
	PrcNum     string `json:"prcNum"`
	PrcDen     string `json:"prcDen"`

	StrikePrice string `json:"stkPrc"`
	LTP         string `json:"ltp"`
	Precision   string `json:"precision"`
}

// DisplaySymbol returns the best available symbol for display.
func (p RawPosition) DisplaySymbol() string {
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.TradingSymbol
}
