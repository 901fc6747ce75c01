package mailer

import (
	"html/template"
	"strings"
)

type ConfirmationLine struct {
	Name      string
	SKU       string
	Quantity  int
	UnitPrice string
	Total     string
}

type ConfirmationData struct {
	StoreName   string
	OrderNumber string
	Lines       []ConfirmationLine
	Subtotal    string
	Shipping    string
	Discount    string
	Total       string
}

var confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`
<h2>Thank you for your order!</h2>
<p>Your payment for order <strong>{{.OrderNumber}}</strong> has been received and we are now preparing it.</p>
<table border="0" cellpadding="6" cellspacing="0">
  <tr><th align="left">Item</th><th align="left">SKU</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
  {{range .Lines}}
  <tr><td>{{.Name}}</td><td>{{.SKU}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.Total}}</td></tr>
  {{end}}
</table>
<p>
Subtotal: {{.Subtotal}}<br/>
Shipping: {{.Shipping}}<br/>
{{if .Discount}}Discount: -{{.Discount}}<br/>{{end}}
<strong>Total: {{.Total}}</strong>
</p>
<p>{{.StoreName}}</p>
`))

// RenderOrderConfirmation builds the HTML body for the payment confirmation
// email.
func RenderOrderConfirmation(data ConfirmationData) (string, error) {
	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
