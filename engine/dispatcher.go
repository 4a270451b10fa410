package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
	"github.com/Adityaa-Sharma/Trading-mcp-server/services"
)

const (
	defaultProduct  = "D"
	defaultValidity = "DAY"
	orderTagPrefix  = "mcp_order"
	amoTagPrefix    = "AMO_order"
)

// OrderIntent is a validated order before instrument resolution.
type OrderIntent struct {
	Symbol          string
	Quantity        int64
	TransactionType models.TransactionType
	OrderType       models.OrderKind
	Price           float64
	TriggerPrice    float64
	Product         string
	Validity        string
	AMO             bool
}

// Dispatcher resolves an order intent to an instrument token and sends it to
// the brokerage exactly once.
type Dispatcher struct {
	broker   BrokerService
	resolver *Resolver
}

// NewDispatcher creates a new order Dispatcher
func NewDispatcher(broker BrokerService, resolver *Resolver) *Dispatcher {
	return &Dispatcher{broker: broker, resolver: resolver}
}

// Dispatch validates, resolves and sends an order. Validation and resolution
// failures return an error before anything reaches the wire. Once the order
// is sent the dispatcher always returns a result: a provider rejection or a
// transport failure after send becomes a failure result, never an error, so
// callers cannot mistake an ambiguous outcome for a safe retry.
func (d *Dispatcher) Dispatch(ctx context.Context, intent OrderIntent) (*models.OrderResult, error) {
	if intent.Quantity <= 0 {
		return nil, models.Errorf(models.ErrInvalidRequest, "quantity must be positive, got %d", intent.Quantity)
	}

	// Market orders execute at whatever the venue gives; a caller-supplied
	// price would be silently misleading, so it is forced to zero.
	if intent.OrderType == models.OrderMarket {
		intent.Price = 0
	}
	if intent.OrderType.NeedsPrice() && intent.Price <= 0 {
		return nil, models.Errorf(models.ErrInvalidRequest, "%s orders require a positive price", intent.OrderType)
	}
	if intent.OrderType.NeedsTrigger() && intent.TriggerPrice <= 0 {
		return nil, models.Errorf(models.ErrInvalidRequest, "%s orders require a positive trigger price", intent.OrderType)
	}

	if intent.Product == "" {
		intent.Product = defaultProduct
	}
	// After-market orders are queued for the next session and only accept
	// DAY validity.
	if intent.Validity == "" || intent.AMO {
		intent.Validity = defaultValidity
	}

	token, err := d.resolver.ResolveTradable(ctx, intent.Symbol)
	if err != nil {
		return nil, err
	}

	// Short per-order tag so fills can be traced back through the order book.
	prefix := orderTagPrefix
	if intent.AMO {
		prefix = amoTagPrefix
	}
	tag := prefix + "-" + uuid.NewString()[:8]

	req := models.OrderRequest{
		InstrumentToken: token,
		Quantity:        intent.Quantity,
		TransactionType: intent.TransactionType,
		OrderType:       intent.OrderType,
		Price:           intent.Price,
		TriggerPrice:    intent.TriggerPrice,
		Product:         intent.Product,
		Validity:        intent.Validity,
		IsAMO:           intent.AMO,
		Tag:             tag,
	}

	observability.Info("dispatching order",
		"symbol", intent.Symbol,
		"instrument_token", token,
		"transaction_type", intent.TransactionType,
		"order_type", intent.OrderType,
		"quantity", intent.Quantity,
		"amo", intent.AMO)

	resp, err := d.broker.SubmitOrder(ctx, req)
	if err != nil {
		// The request may or may not have reached the venue. Report a
		// failure and leave reconciliation to the order book.
		observability.Error("order transport failed",
			"symbol", intent.Symbol,
			"error", err)
		return d.record(intent, &models.OrderResult{
			Status:    models.OrderFailed,
			Reason:    err.Error(),
			Timestamp: time.Now(),
		}), nil
	}

	result := normalizeOrderResponse(resp)
	if result.Accepted() {
		observability.Info("order accepted",
			"symbol", intent.Symbol,
			"order_id", result.OrderID)
	} else {
		observability.Warn("order rejected",
			"symbol", intent.Symbol,
			"reason", result.Reason)
	}
	return d.record(intent, result), nil
}

func (d *Dispatcher) record(intent OrderIntent, result *models.OrderResult) *models.OrderResult {
	observability.GetMetrics().RecordOrder(string(intent.TransactionType), string(result.Status))
	return result
}

// normalizeOrderResponse maps the provider's HTTP outcome to a tagged result.
// Acceptance requires both a 2xx status and an order id in the body.
func normalizeOrderResponse(resp *services.ProviderResponse) *models.OrderResult {
	var parsed struct {
		Status string `json:"status"`
		Data   struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body, &parsed)

	if resp.OK() && parsed.Data.OrderID != "" {
		return &models.OrderResult{
			Status:      models.OrderAccepted,
			OrderID:     parsed.Data.OrderID,
			RawResponse: resp.Body,
			Timestamp:   time.Now(),
		}
	}

	return &models.OrderResult{
		Status:      models.OrderFailed,
		Reason:      services.ProviderMessage(resp.Body),
		RawResponse: resp.Body,
		Timestamp:   time.Now(),
	}
}
