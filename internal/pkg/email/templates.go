// internal/pkg/email/templates.go
package email

import "html/template"

const layoutTemplate = `{{define "header"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hola {{.CustomerName}},</p>
{{end}}
{{define "footer"}}        <p>Si tenés alguna consulta escribinos a <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>.</p>
        <p>Saludos,<br>El equipo de {{.SiteName}}</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. Todos los derechos reservados.</p>
    </div>
</body>
</html>{{end}}`

const orderConfirmationTemplate = `{{template "header" .}}        <p>Recibimos tu orden <strong>{{.OrderNumber}}</strong> el {{.OrderDate}}.</p>
        <table style="width: 100%; border-collapse: collapse;">
            <tr style="background-color: #f8f8f8;">
                <th style="text-align: left; padding: 8px;">Producto</th>
                <th style="text-align: center; padding: 8px;">Cantidad</th>
                <th style="text-align: right; padding: 8px;">Precio</th>
                <th style="text-align: right; padding: 8px;">Subtotal</th>
            </tr>
            {{range .Items}}<tr>
                <td style="padding: 8px;">{{.Name}}{{if .Variant}} ({{.Variant}}){{end}}<br><small>SKU {{.SKU}}</small></td>
                <td style="text-align: center; padding: 8px;">{{.Quantity}}</td>
                <td style="text-align: right; padding: 8px;">{{.UnitPrice}}</td>
                <td style="text-align: right; padding: 8px;">{{.Subtotal}}</td>
            </tr>
            {{end}}
        </table>
        <p>Subtotal: {{.Subtotal}}<br>
        Envío: {{if .FreeShipping}}Gratis{{else}}{{.Shipping}}{{end}}<br>
        <strong>Total: {{.Total}}</strong></p>
        <p>Medio de pago: {{.PaymentMethod}}<br>
        Dirección de envío: {{.Address}}</p>
        <p><a href="{{.OrderURL}}">Ver mi orden</a></p>
{{template "footer" .}}`

const orderStatusUpdateTemplate = `{{template "header" .}}        <p>Tu orden <strong>{{.OrderNumber}}</strong> pasó de <em>{{.PreviousStatus}}</em> a <strong>{{.Status}}</strong>.</p>
        {{if .Cancelled}}<p>Si no solicitaste la cancelación, respondé este correo y lo revisamos.</p>{{end}}
        <p><a href="{{.OrderURL}}">Ver mi orden</a></p>
{{template "footer" .}}`

func parseTemplates() map[string]*template.Template {
	sources := map[string]string{
		TemplateOrderConfirmation: orderConfirmationTemplate,
		TemplateOrderStatusUpdate: orderStatusUpdateTemplate,
	}

	templates := make(map[string]*template.Template, len(sources))
	for name, body := range sources {
		tmpl := template.Must(template.New(name).Parse(layoutTemplate))
		templates[name] = template.Must(tmpl.Parse(body))
	}
	return templates
}
