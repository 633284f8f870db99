package httpserver

import (
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
	"github.com/go-playground/validator/v10"
)

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	V *validator.Validate
}

func (v *Validator) Validate(i any) error {
	return service.Validate(v.V, i)
}
