package api

import (
	"encoding/json"
	"time"

	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/domain"
)

type imageView struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type productView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Price       json.Number `json:"price"`
	Currency    string      `json:"currency"`
	Category    string      `json:"category,omitempty"`
	Size        string      `json:"size,omitempty"`
	Color       string      `json:"color,omitempty"`
	IsFeatured  bool        `json:"isFeatured"`
	Stock       *int        `json:"stock,omitempty"`
	Images      []imageView `json:"images"`
}

type lineView struct {
	Product   productView `json:"product"`
	Quantity  int         `json:"quantity"`
	LineTotal json.Number `json:"lineTotal"`
}

type cartView struct {
	Items     []lineView  `json:"items"`
	CartTotal json.Number `json:"cartTotal"`
	Currency  string      `json:"currency"`
	ItemCount int         `json:"itemCount"`
	LineCount int         `json:"lineCount"`
	// true while cart changes cannot be saved
	Degraded bool   `json:"degraded,omitempty"`
	Notice   string `json:"notice,omitempty"`
}

type regionView struct {
	Name     string      `json:"name"`
	Fee      json.Number `json:"fee"`
	Currency string      `json:"currency"`
}

type summaryView struct {
	Items          []lineView  `json:"items"`
	Subtotal       json.Number `json:"subtotal"`
	ShippingFee    json.Number `json:"shippingFee"`
	GrandTotal     json.Number `json:"grandTotal"`
	Currency       string      `json:"currency"`
	ItemCount      int         `json:"itemCount"`
	LineCount      int         `json:"lineCount"`
	DeliveryMethod string      `json:"deliveryMethod,omitempty"`
	Region         string      `json:"region,omitempty"`
}

type draftView struct {
	DeliveryMethod string `json:"deliveryMethod"`
	CompanyName    string `json:"companyName"`
	PONumber       string `json:"poNumber"`
	ContactNumber  string `json:"contactNumber"`
	Address        string `json:"address"`
	Region         string `json:"region,omitempty"`
	PickupDate     string `json:"pickupDate,omitempty"`
	AttachedPOURL  string `json:"attachedPOUrl"`
	AttachedPOName string `json:"attachedPOName,omitempty"`
}

type resultView struct {
	OrderID     string   `json:"orderId"`
	OrderNumber string   `json:"orderNumber"`
	RedirectURL string   `json:"redirectUrl"`
	Warnings    []string `json:"warnings,omitempty"`
}

type checkoutView struct {
	State   string       `json:"state"`
	Draft   draftView    `json:"draft"`
	Summary summaryView  `json:"summary"`
	Result  *resultView  `json:"result,omitempty"`
	Regions []regionView `json:"regions"`
}

type orderItemView struct {
	ID              string      `json:"id"`
	ProductID       string      `json:"productId"`
	ProductName     string      `json:"productName"`
	UnitPrice       json.Number `json:"unitPrice"`
	Quantity        int         `json:"quantity"`
	TotalItemAmount json.Number `json:"totalItemAmount"`
}

type orderView struct {
	ID            string          `json:"id"`
	IsPaid        bool            `json:"isPaid"`
	CompanyName   string          `json:"companyName"`
	PONumber      string          `json:"poNumber"`
	ContactNumber string          `json:"contactNumber"`
	Address       string          `json:"address"`
	CreatedAt     time.Time       `json:"createdAt"`
	Total         json.Number     `json:"total"`
	Items         []orderItemView `json:"items"`
}

func amount(m domain.Money) json.Number {
	return json.Number(m.Amount.StringFixed(2))
}

func mapProduct(p domain.ProductSnapshot) productView {
	images := make([]imageView, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, imageView{ID: img.ID, URL: img.URL})
	}

	return productView{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       amount(p.Price),
		Currency:    p.Price.Currency.String(),
		Category:    p.CategoryName,
		Size:        p.SizeName,
		Color:       p.ColorName,
		IsFeatured:  p.IsFeatured,
		Stock:       p.Stock,
		Images:      images,
	}
}

func mapLines(lines []domain.CartLine) []lineView {
	views := make([]lineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, lineView{
			Product:   mapProduct(line.Product),
			Quantity:  line.Quantity,
			LineTotal: amount(line.LineTotal()),
		})
	}
	return views
}

func mapCart(store *cart.Store, notice cart.Notice) cartView {
	snapshot := store.Snapshot()
	total := snapshot.Total()

	return cartView{
		Items:     mapLines(snapshot.Lines),
		CartTotal: amount(total),
		Currency:  total.Currency.String(),
		ItemCount: snapshot.ItemCount(),
		LineCount: snapshot.LineCount(),
		Degraded:  store.Degraded(),
		Notice:    string(notice),
	}
}

func mapRegions(rates domain.ShippingRates) []regionView {
	regions := rates.Regions()
	views := make([]regionView, 0, len(regions))
	for _, r := range regions {
		views = append(views, regionView{Name: r.Name, Fee: amount(r.Fee), Currency: r.Fee.Currency.String()})
	}
	return views
}

func mapSummary(s domain.OrderSummary) summaryView {
	return summaryView{
		Items:          mapLines(s.Lines),
		Subtotal:       amount(s.Subtotal),
		ShippingFee:    amount(s.ShippingFee),
		GrandTotal:     amount(s.GrandTotal),
		Currency:       s.GrandTotal.Currency.String(),
		ItemCount:      s.ItemCount,
		LineCount:      s.LineCount,
		DeliveryMethod: s.DeliveryMethod.String(),
		Region:         s.Region,
	}
}

func mapDraft(d domain.OrderDraft) draftView {
	view := draftView{
		DeliveryMethod: d.DeliveryMethod.String(),
		CompanyName:    d.CompanyName,
		PONumber:       d.PONumber,
		ContactNumber:  d.ContactNumber,
		Address:        d.Address,
		Region:         d.Region,
		AttachedPOURL:  d.AttachedPOURL,
		AttachedPOName: d.AttachedPOName,
	}
	if d.PickupDate != nil {
		view.PickupDate = d.PickupDate.Format(time.DateOnly)
	}
	return view
}

func mapResult(r domain.SubmissionResult) resultView {
	return resultView{
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
		RedirectURL: r.RedirectURL,
		Warnings:    r.Warnings,
	}
}

func mapOrder(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			UnitPrice:       amount(item.UnitPrice),
			Quantity:        item.Quantity,
			TotalItemAmount: amount(item.TotalItemAmount),
		})
	}

	return orderView{
		ID:            o.ID,
		IsPaid:        o.IsPaid,
		CompanyName:   o.CompanyName,
		PONumber:      o.PONumber,
		ContactNumber: o.ContactNumber,
		Address:       o.Address,
		CreatedAt:     o.CreatedAt,
		Total:         amount(o.Total()),
		Items:         items,
	}
}
