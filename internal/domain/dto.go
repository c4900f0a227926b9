package domain

type CreateOrderItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

type CreateOrderRequest struct {
	RestaurantID  string            `json:"restaurant_id"`
	DeliveryAddr  string            `json:"delivery_address"`
	CustomerPhone string            `json:"customer_phone"`
	Items         []CreateOrderItem `json:"items"`
}

type CreateOrderResponse struct {
	OrderNumber string  `json:"order_number"`
	Status      Status  `json:"status"`
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	TotalAmount float64 `json:"total_amount"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}
