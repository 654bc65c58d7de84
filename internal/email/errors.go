package email

import "github.com/dukerupert/mercato/internal/domain"

var (
	// ErrInvalidFromAddress is returned when the from address is invalid.
	ErrInvalidFromAddress = &domain.Error{Code: domain.EINVALID, Message: "Invalid from email address"}

	// ErrInvalidToAddress is returned when the message has no usable recipient.
	ErrInvalidToAddress = &domain.Error{Code: domain.EINVALID, Message: "Invalid to email address"}
)

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(templateName string) error {
	return domain.Errorf(domain.ENOTFOUND, "email.render", "Email template %s not found", templateName)
}
