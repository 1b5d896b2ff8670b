package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// OrderDraft is the checkout form state. The validate tags drive the
// per-delivery-method required fields.
type OrderDraft struct {
	DeliveryMethod DeliveryMethod `json:"deliveryMethod" validate:"required,oneof=pick-up delivery"`
	CompanyName    string         `json:"companyName" validate:"required,max=200"`
	PONumber       string         `json:"poNumber" validate:"required,max=100"`
	ContactNumber  string         `json:"contactNumber" validate:"required,min=7,max=20"`
	Address        string         `json:"address" validate:"required_if=DeliveryMethod delivery,max=500"`
	Region         string         `json:"region,omitempty" validate:"required_if=DeliveryMethod delivery"`
	PickupDate     *time.Time     `json:"pickupDate,omitempty" validate:"required_if=DeliveryMethod pick-up"`
	AttachedPOURL  string         `json:"attachedPOUrl" validate:"required,url"`
	AttachedPOName string         `json:"attachedPOName,omitempty"`
}

type User struct {
	ID    string
	Name  string
	Email string
}

type Document struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type DocumentRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type OrderItemRequest struct {
	ProductID       uuid.UUID
	Quantity        int
	TotalItemAmount Money
}

// OrderRequest is the single order-creation request sent to the order backend.
type OrderRequest struct {
	Items          []OrderItemRequest
	DeliveryMethod DeliveryMethod
	CompanyName    string
	PONumber       string
	ContactNumber  string
	Address        string
	Region         string
	PickupDate     *time.Time
	AttachedPOURL  string
	ClientName     string
	ClientEmail    string
	ShippingFee    Money
	Total          Money
	OrderNumber    string
}

type SubmissionResult struct {
	OrderID     string
	RedirectURL string
	OrderNumber string
	Warnings    []string
}

// OrderSummary is the read-only recap shown while reviewing.
type OrderSummary struct {
	Lines          []CartLine
	Subtotal       Money
	ShippingFee    Money
	GrandTotal     Money
	ItemCount      int
	LineCount      int
	DeliveryMethod DeliveryMethod
	Region         string
}

// OrderPlaced is handed to notifiers once the backend confirmed the order.
type OrderPlaced struct {
	OrderID     string
	OrderNumber string
	Customer    User
	Request     OrderRequest
	Lines       []CartLine
	PlacedAt    time.Time
}

type Order struct {
	ID            string
	StoreID       string
	IsPaid        bool
	CompanyName   string
	PONumber      string
	ContactNumber string
	Address       string
	CreatedAt     time.Time
	Items         []OrderItem
}

type OrderItem struct {
	ID              string
	ProductID       string
	ProductName     string
	UnitPrice       Money
	Quantity        int
	TotalItemAmount Money
}

func (o Order) Total() Money {
	if len(o.Items) == 0 {
		return Money{}
	}

	total := ZeroMoney(o.Items[0].TotalItemAmount.Currency)
	for _, item := range o.Items {
		total.Amount = total.Amount.Add(item.TotalItemAmount.Amount)
	}
	return total
}
