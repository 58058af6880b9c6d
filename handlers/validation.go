package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"studioz/services/availability"
)

var registerOnce sync.Once

// RegisterValidators adds the booking field validators to gin's binder.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("bookingdate", func(fl validator.FieldLevel) bool {
			_, ok := availability.NormalizeDate(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("slottime", func(fl validator.FieldLevel) bool {
			_, ok := availability.NormalizeSlot(fl.Field().String())
			return ok
		})
	})
}
