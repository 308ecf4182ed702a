package order

import (
	"errors"
	"regexp"
	"strings"

	"storefront/internal/domain/user"
)

var (
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrMissingShippingField = errors.New("shipping name, phone, address and city are required")
	ErrInvalidPhone         = errors.New("invalid phone number")
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9\- ]{7,20}$`)

type ShippingInfo struct {
	name    string
	email   user.Email
	phone   string
	address string
	city    string
}

func NewShippingInfo(name, email, phone, address, city string) (ShippingInfo, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	city = strings.TrimSpace(city)
	phone = strings.TrimSpace(phone)
	if name == "" || address == "" || city == "" || phone == "" {
		return ShippingInfo{}, ErrMissingShippingField
	}
	if !phoneRegex.MatchString(phone) {
		return ShippingInfo{}, ErrInvalidPhone
	}
	e, err := user.NewEmail(email)
	if err != nil {
		return ShippingInfo{}, err
	}
	return ShippingInfo{name: name, email: e, phone: phone, address: address, city: city}, nil
}

func (s ShippingInfo) Name() string    { return s.name }
func (s ShippingInfo) Email() string   { return s.email.Value() }
func (s ShippingInfo) Phone() string   { return s.phone }
func (s ShippingInfo) Address() string { return s.address }
func (s ShippingInfo) City() string    { return s.city }
