// Package notify delivers order confirmations: by mail through the mail
// collaborator and as events on Kafka.
package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
)

// Message is a rendered confirmation ready to be mailed.
type Message struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

const confirmationBody = `Hi {{.Name}},

Thank you for your order. Your order number is {{.OrderNumber}}.

{{range .Lines -}}
- {{.Name}} x {{.Quantity}}: {{.Total}}
{{end}}
Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Total:    {{.Total}}

Company:   {{.CompanyName}}
PO number: {{.PONumber}}
{{if .Delivery -}}
Deliver to: {{.Address}} ({{.Region}})
{{- else -}}
Pick-up date: {{.PickupDate}}
{{- end}}
`

var confirmationTemplate = template.Must(template.New("confirmation").Parse(confirmationBody))

type confirmationView struct {
	Name        string
	OrderNumber string
	Lines       []lineView
	Subtotal    string
	Shipping    string
	Total       string
	CompanyName string
	PONumber    string
	Delivery    bool
	Address     string
	Region      string
	PickupDate  string
}

type lineView struct {
	Name     string
	Quantity int
	Total    string
}

// RenderConfirmation builds the confirmation mail for a placed order.
func RenderConfirmation(event domain.OrderPlaced) (Message, error) {
	if event.Customer.Email == "" {
		return Message{}, fmt.Errorf("customer email is empty")
	}

	req := event.Request
	subtotal := req.Total
	subtotal.Amount = req.Total.Amount.Sub(req.ShippingFee.Amount)

	view := confirmationView{
		Name:        event.Customer.Name,
		OrderNumber: event.OrderNumber,
		Subtotal:    subtotal.String(),
		Shipping:    req.ShippingFee.String(),
		Total:       req.Total.String(),
		CompanyName: req.CompanyName,
		PONumber:    req.PONumber,
		Delivery:    req.DeliveryMethod == domain.DeliveryMethodDelivery,
		Address:     req.Address,
		Region:      req.Region,
	}
	if view.Name == "" {
		view.Name = "there"
	}
	if req.PickupDate != nil {
		view.PickupDate = req.PickupDate.Format(time.DateOnly)
	}

	for _, line := range event.Lines {
		view.Lines = append(view.Lines, lineView{
			Name:     line.Product.Name,
			Quantity: line.Quantity,
			Total:    line.LineTotal().String(),
		})
	}

	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, view); err != nil {
		return Message{}, fmt.Errorf("confirmationTemplate.Execute: %w", err)
	}

	return Message{
		To:      event.Customer.Email,
		Name:    event.Customer.Name,
		Subject: "Order confirmation " + event.OrderNumber,
		Body:    body.String(),
	}, nil
}
