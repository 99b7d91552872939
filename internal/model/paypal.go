package model

type Payer struct {
	PayerID string `json:"payer_id"`
	Email   string `json:"email_address"`
}

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type Amount struct {
	Currency string `json:"currency_code"`
	Value    string `json:"value"`
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

type Payments struct {
	Captures []Capture `json:"captures"`
}

type PurchaseUnit struct {
	ReferenceID string   `json:"reference_id"`
	Payments    Payments `json:"payments"`
}

type PaymentSource struct {
	PayPal Payer `json:"paypal"`
}

type PaypalCustomer struct {
	ID string `json:"id"`
}

type PayPalMetadata struct {
	OrderID    string `json:"order_id"`
	SetupToken string `json:"setup_token"`
}

type PaypalResource struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`

	// Vault-specific
	Customer        PaypalCustomer `json:"customer"`
	Metadata        PayPalMetadata `json:"metadata"`
	PaymentResource PaymentSource  `json:"payment_source"`
}

type PayPalWebhookEvent struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	CreateTime string         `json:"create_time"`
	Resource   PaypalResource `json:"resource"`
}
