package domain

import "time"

type Order struct {
	ID            int         `json:"id"`
	OrderNumber   string      `json:"order_number"`
	UserID        string      `json:"user_id"`
	RestaurantID  string      `json:"restaurant_id"`
	DriverID      string      `json:"driver_id,omitempty"` // set once a courier claims the order
	Status        Status      `json:"status"`
	Subtotal      float64     `json:"subtotal"`
	DeliveryFee   float64     `json:"delivery_fee"`
	TotalAmount   float64     `json:"total_amount"`
	DeliveryAddr  string      `json:"delivery_address"`
	CustomerPhone string      `json:"customer_phone"`
	Version       int         `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID         int     `json:"id"`
	OrderID    int     `json:"order_id"`
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

type StatusLog struct {
	ID        int       `json:"id"`
	OrderID   int       `json:"order_id"`
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
