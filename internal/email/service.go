package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"deref": func(d *decimal.Decimal) decimal.Decimal {
		if d == nil {
			return decimal.Zero
		}
		return *d
	},
	"lineTotal": func(item domain.OrderItem) string {
		return "$" + item.Price.Mul(decimal.NewFromInt32(item.Quantity)).StringFixed(2)
	},
}

// Service handles email composition and sending
type Service struct {
	sender      Sender
	fromAddress string
	fromName    string
	templates   map[string]*template.Template
	logger      zerolog.Logger
}

// NewService creates a new email service. Templates are parsed once, each
// paired with the shared layout.
func NewService(sender Sender, fromAddress, fromName string, logger zerolog.Logger) (*Service, error) {
	templates := make(map[string]*template.Template, len(orderTemplates))
	for _, t := range orderTemplates {
		tmpl, err := template.New(t.template).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+t.template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", t.template, err)
		}
		templates[t.template] = tmpl
	}

	return &Service{
		sender:      sender,
		fromAddress: fromAddress,
		fromName:    fromName,
		templates:   templates,
		logger:      logger.With().Str("component", "email").Logger(),
	}, nil
}

// SendOrderEmail renders and sends the email for an order lifecycle event.
func (s *Service) SendOrderEmail(ctx context.Context, data OrderEmail) error {
	if data.Order == nil {
		return domain.Errorf(domain.EINVALID, "email.send_order", "order is required")
	}
	if strings.TrimSpace(data.Email) == "" {
		return ErrInvalidToAddress
	}
	if data.StoreName == "" {
		data.StoreName = s.fromName
	}

	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return fmt.Errorf("failed to render %s email: %w", data.Type, err)
	}

	email := &Email{
		To:       []string{data.Email},
		From:     s.from(),
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
		Headers: map[string]string{
			"X-Order-Number": data.Order.OrderNumber,
		},
	}

	id, err := s.sender.Send(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", data.Type, err)
	}

	s.logger.Debug().
		Str("message_id", id).
		Str("event", string(data.Type)).
		Str("order_number", data.Order.OrderNumber).
		Msg("order email sent")
	return nil
}

func (s *Service) from() string {
	if s.fromName == "" {
		return s.fromAddress
	}
	return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
}

// Helper method to render a template
func (s *Service) renderTemplate(templateName string, data interface{}) (string, string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", "", ErrTemplateNotFound(templateName)
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "email_layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText derives the text/plain part from a rendered HTML body.
// Table cells stay on one line so order summaries read "item x qty $price".
func generatePlainText(body string) string {
	text := body

	for _, r := range []struct{ tag, with string }{
		{"<br>", "\n"}, {"<br/>", "\n"}, {"<br />", "\n"},
		{"</p>", "\n\n"}, {"</div>", "\n"},
		{"</tr>", "\n"}, {"</td>", " "},
		{"</h1>", "\n\n"}, {"</h2>", "\n\n"}, {"</h3>", "\n\n"},
	} {
		text = strings.ReplaceAll(text, r.tag, r.with)
	}

	for {
		start := strings.Index(text, "<")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	text = html.UnescapeString(text)

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
