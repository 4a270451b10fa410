package models

import (
	"encoding/json"
	"strings"
	"time"
)

// TransactionType is the order direction.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// ParseTransactionType matches BUY/SELL case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(s)) {
	case TransactionBuy:
		return TransactionBuy, nil
	case TransactionSell:
		return TransactionSell, nil
	}
	return "", Errorf(ErrInvalidRequest, "invalid transaction type: %s", s)
}

// OrderKind is the pricing behavior of an order. Wire values follow the
// brokerage's vocabulary (SL = stop loss, SL-M = stop loss market).
type OrderKind string

const (
	OrderMarket    OrderKind = "MARKET"
	OrderLimit     OrderKind = "LIMIT"
	OrderStopLimit OrderKind = "SL"
	OrderStop      OrderKind = "SL-M"
)

// ParseOrderKind matches an order kind case-insensitively.
func ParseOrderKind(s string) (OrderKind, error) {
	if s == "" {
		return OrderMarket, nil
	}
	switch OrderKind(strings.ToUpper(s)) {
	case OrderMarket:
		return OrderMarket, nil
	case OrderLimit:
		return OrderLimit, nil
	case OrderStopLimit:
		return OrderStopLimit, nil
	case OrderStop:
		return OrderStop, nil
	}
	return "", Errorf(ErrInvalidRequest, "invalid order type: %s", s)
}

// NeedsPrice reports whether the kind requires a caller-supplied limit price.
func (k OrderKind) NeedsPrice() bool {
	return k == OrderLimit || k == OrderStopLimit
}

// NeedsTrigger reports whether the kind requires a trigger price.
func (k OrderKind) NeedsTrigger() bool {
	return k == OrderStop || k == OrderStopLimit
}

// OrderRequest is a normalized order ready for dispatch. InstrumentToken is
// the resolved venue identifier, not the human symbol.
type OrderRequest struct {
	InstrumentToken string          `json:"instrument_token"`
	Quantity        int64           `json:"quantity"`
	TransactionType TransactionType `json:"transaction_type"`
	OrderType       OrderKind       `json:"order_type"`
	Price           float64         `json:"price"`
	TriggerPrice    float64         `json:"trigger_price"`
	Product         string          `json:"product"`
	Validity        string          `json:"validity"`
	IsAMO           bool            `json:"is_amo"`
	Tag             string          `json:"tag"`
}

// OrderStatus tags the outcome of a dispatch.
type OrderStatus string

const (
	OrderAccepted OrderStatus = "success"
	OrderFailed   OrderStatus = "failure"
)

// OrderResult is the tagged outcome of an order dispatch. The dispatcher
// always returns a result for a sent order; it never raises past its
// boundary.
type OrderResult struct {
	Status      OrderStatus     `json:"status"`
	OrderID     string          `json:"order_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Accepted reports whether the order was accepted upstream.
func (r OrderResult) Accepted() bool {
	return r.Status == OrderAccepted
}
