package models

// OrderSide represents the transaction side of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "B"
	SideSell OrderSide = "S"
)

// Opposite returns the other transaction side.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType represents the order type.
type OrderType string

const (
	OrderTypeLimit    OrderType = "L"
	OrderTypeMarket   OrderType = "MKT"
	OrderTypeStopLoss OrderType = "SL"
)

// OrderState models the order lifecycle on our side of the wire.
// NEW and SUBMITTED exist between the placement call and the broker's
// acknowledgment; the broker only ever reports the later states.
type OrderState string

const (
	OrderNew       OrderState = "NEW"
	OrderSubmitted OrderState = "SUBMITTED"
	OrderOpen      OrderState = "OPEN"
	OrderRejected  OrderState = "REJECTED"
	OrderComplete  OrderState = "COMPLETE"
)

// Terminal reports whether no further fills or rejections can occur.
func (s OrderState) Terminal() bool {
	return s == OrderComplete || s == OrderRejected
}

// Order describes an order to be placed. The broker-assigned order number
// is absent until acknowledgment. All numeric fields are strings because
// that is how the broker wants them on the wire.
type Order struct {
	Symbol          string
	ExchangeSegment string
	Product         string
	Side            OrderSide
	Type            OrderType
	Quantity        string
	Price           string
	TriggerPrice    string
	Validity        string
	DisclosedQty    string
}

// OrderReportEntry is one row of the broker's order report, string-typed
// as it comes off the wire.
type OrderReportEntry struct {
	OrderNo      string `json:"nOrdNo"`
	Status       string `json:"ordSt"`
	RejectReason string `json:"rejRsn"`
	AvgPrice     string `json:"avgPrc"`
	Price        string `json:"prc"`
	Symbol       string `json:"trdSym"`
	Side         string `json:"trnsTp"`
	Quantity     string `json:"qty"`
}

// StatusComplete is the broker's terminal fill status in order reports.
const StatusComplete = "complete"
