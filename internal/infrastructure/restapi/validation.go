package restapi

import (
	"fmt"
	"sync"

	"fund_tracer/internal/domain/entity"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidationsOnce sync.Once

func evmAddress(fl validator.FieldLevel) bool {
	_, err := entity.ParseAddress(fl.Field().String())
	return err == nil
}

// registerValidations adds the evm_address tag to gin's validator. It panics when the
// tag cannot be registered.
func registerValidations() {
	registerValidationsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("restapi: unexpected validator engine %T", binding.Validator.Engine()))
		}
		if err := v.RegisterValidation("evm_address", evmAddress); err != nil {
			panic(fmt.Sprintf("restapi: register evm_address validation: %v", err))
		}
	})
}
