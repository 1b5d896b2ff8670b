package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type productDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ItemDesc   string     `json:"itemDesc"`
	Price      string     `json:"price"`
	IsFeatured bool       `json:"isFeatured"`
	Category   namedDTO   `json:"category"`
	Size       namedDTO   `json:"size"`
	Color      namedDTO   `json:"color"`
	Images     []imageDTO `json:"images"`
	Stock      *int       `json:"stock,omitempty"`
}

type namedDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

type imageDTO struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type orderItemRequestDTO struct {
	ProductID       string      `json:"productId"`
	Quantity        int         `json:"quantity"`
	TotalItemAmount json.Number `json:"totalItemAmount"`
}

type orderRequestDTO struct {
	OrderItems                 []orderItemRequestDTO `json:"orderItems"`
	DeliveryMethod             string                `json:"deliveryMethod"`
	CompanyName                string                `json:"companyName"`
	PONumber                   string                `json:"poNumber"`
	ContactNumber              string                `json:"contactNumber"`
	Address                    string                `json:"address"`
	Region                     string                `json:"region,omitempty"`
	PickupDate                 string                `json:"pickupDate,omitempty"`
	AttachedPOURL              string                `json:"attachedPOUrl"`
	ClientName                 string                `json:"clientName"`
	ClientEmail                string                `json:"clientEmail"`
	ShippingFee                json.Number           `json:"shippingFee"`
	TotalAmountItemAndShipping json.Number           `json:"totalAmountItemAndShipping"`
	OrderNumber                string                `json:"orderNumber"`
}

type orderCreatedDTO struct {
	OrderID     string `json:"orderId"`
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
}

type orderDTO struct {
	ID            string         `json:"id"`
	StoreID       string         `json:"storeId"`
	IsPaid        flexBool       `json:"isPaid"`
	CompanyName   string         `json:"companyName"`
	PONumber      string         `json:"poNumber"`
	ContactNumber string         `json:"contactNumber"`
	Address       string         `json:"address"`
	CreatedAt     time.Time      `json:"createdAt"`
	OrderItems    []orderItemDTO `json:"orderItems"`
}

type orderItemDTO struct {
	ID              string      `json:"id"`
	ProductID       string      `json:"productid"`
	Product         *productDTO `json:"product,omitempty"`
	Quantity        flexInt     `json:"quantity"`
	TotalItemAmount json.Number `json:"totalItemAmount"`
}

// flexInt accepts both 2 and "2".
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("quantity[%s] is not a number: %w", data, err)
	}
	*n = flexInt(v)
	return nil
}

// flexBool accepts both true and "true".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*b = false
		return nil
	}

	v, err := strconv.ParseBool(string(data))
	if err != nil {
		return fmt.Errorf("isPaid[%s] is not a boolean: %w", data, err)
	}
	*b = flexBool(v)
	return nil
}

func mapProduct(dto productDTO, unit currency.Unit) (domain.ProductSnapshot, error) {
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("product id[%s] is not valid: %w", dto.ID, err)
	}

	price, err := decimal.NewFromString(dto.Price)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("product %s price[%s] is not valid: %w", dto.ID, dto.Price, err)
	}

	p := domain.ProductSnapshot{
		ID:           id,
		Name:         dto.Name,
		Description:  dto.ItemDesc,
		Price:        domain.NewMoney(price, unit),
		CategoryID:   dto.Category.ID,
		CategoryName: dto.Category.Name,
		SizeID:       dto.Size.ID,
		SizeName:     dto.Size.Name,
		ColorID:      dto.Color.ID,
		ColorName:    dto.Color.Name,
		IsFeatured:   dto.IsFeatured,
		Stock:        dto.Stock,
	}
	for _, img := range dto.Images {
		p.Images = append(p.Images, domain.Image{ID: img.ID, URL: img.URL})
	}

	return p, nil
}

func mapOrderRequest(req domain.OrderRequest) orderRequestDTO {
	dto := orderRequestDTO{
		OrderItems:                 make([]orderItemRequestDTO, 0, len(req.Items)),
		DeliveryMethod:             req.DeliveryMethod.String(),
		CompanyName:                req.CompanyName,
		PONumber:                   req.PONumber,
		ContactNumber:              req.ContactNumber,
		Address:                    req.Address,
		Region:                     req.Region,
		AttachedPOURL:              req.AttachedPOURL,
		ClientName:                 req.ClientName,
		ClientEmail:                req.ClientEmail,
		ShippingFee:                amount(req.ShippingFee),
		TotalAmountItemAndShipping: amount(req.Total),
		OrderNumber:                req.OrderNumber,
	}

	if req.PickupDate != nil {
		dto.PickupDate = req.PickupDate.Format(time.DateOnly)
	}

	for _, item := range req.Items {
		dto.OrderItems = append(dto.OrderItems, orderItemRequestDTO{
			ProductID:       item.ProductID.String(),
			Quantity:        item.Quantity,
			TotalItemAmount: amount(item.TotalItemAmount),
		})
	}

	return dto
}

// amount renders money as a JSON number without going through float64.
func amount(m domain.Money) json.Number {
	return json.Number(m.Amount.String())
}

func mapOrder(dto orderDTO, unit currency.Unit) (domain.Order, error) {
	order := domain.Order{
		ID:            dto.ID,
		StoreID:       dto.StoreID,
		IsPaid:        bool(dto.IsPaid),
		CompanyName:   dto.CompanyName,
		PONumber:      dto.PONumber,
		ContactNumber: dto.ContactNumber,
		Address:       dto.Address,
		CreatedAt:     dto.CreatedAt,
	}

	for i, item := range dto.OrderItems {
		total, err := decimal.NewFromString(item.TotalItemAmount.String())
		if err != nil {
			return domain.Order{}, fmt.Errorf("orderItems[%d] totalItemAmount[%s] is not valid: %w", i, item.TotalItemAmount, err)
		}

		oi := domain.OrderItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        int(item.Quantity),
			TotalItemAmount: domain.NewMoney(total, unit),
		}

		if item.Product != nil {
			oi.ProductName = item.Product.Name
			if oi.ProductID == "" {
				oi.ProductID = item.Product.ID
			}
			if price, err := decimal.NewFromString(item.Product.Price); err == nil {
				oi.UnitPrice = domain.NewMoney(price, unit)
			}
		}

		order.Items = append(order.Items, oi)
	}

	return order, nil
}
