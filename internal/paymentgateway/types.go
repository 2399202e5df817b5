package paymentgateway

// Запрос на создание чекаут-ордера в платежном шлюзе.
type CreateOrderRequest struct {
	OrderID       string        `json:"order_id"`
	OrderAmount   float64       `json:"order_amount"`
	OrderCurrency string        `json:"order_currency"`
	CustomerInfo  CustomerInfo  `json:"customer_details"`
	OrderMeta     OrderMetaInfo `json:"order_meta"`
}

// Данные плательщика, требуемые шлюзом при создании ордера.
type CustomerInfo struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
}

// Служебные URL ордера.
type OrderMetaInfo struct {
	NotifyURL string `json:"notify_url,omitempty"`
}

// Ответ шлюза на создание ордера.
type CreateOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

// Одна запись о попытке оплаты ордера.
type PaymentInfo struct {
	PaymentID     int64  `json:"cf_payment_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentAmount struct {
		Value float64 `json:"value"`
	} `json:"payment_amount,omitempty"`
}
