package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperror "goescrow/internal/errors"
)

// Validator é um wrapper sobre go-playground/validator que devolve
// erros de validação da aplicação com os nomes dos campos em JSON.
type Validator struct {
	validate *validator.Validate
}

// New cria um Validator com as regras customizadas registradas.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal é validado pelo valor: "dgt0" exige valor > 0.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("dgt0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	// "cents" limita o valor a duas casas decimais, a precisão das colunas NUMERIC(12,2).
	_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Equal(d.Truncate(2))
	})

	return &Validator{validate: v}
}

// Struct valida a struct e retorna um *apperror.ValidationError listando os campos inválidos.
func (v *Validator) Struct(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("campo '%s': %s", fe.Field(), describe(fe)))
	}
	sort.Strings(msgs)
	return apperror.NewValidationError(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "é obrigatório"
	case "email":
		return "deve ser um email válido"
	case "uuid", "uuid4":
		return "deve ser um UUID válido"
	case "oneof":
		return fmt.Sprintf("deve ser um de [%s]", fe.Param())
	case "dgt0":
		return "deve ser um valor positivo"
	case "cents":
		return "deve ter no máximo duas casas decimais"
	case "min":
		return fmt.Sprintf("deve ter no mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("deve ter no máximo %s", fe.Param())
	default:
		return fmt.Sprintf("falhou na regra '%s'", fe.Tag())
	}
}
