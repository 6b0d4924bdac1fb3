package validator

import (
	"context"
	"reflect"

	v10validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Validator struct {
	engine Engine
}

type Engine interface {
	StructCtx(ctx context.Context, s any) error
	VarCtx(ctx context.Context, field any, tag string) error
}

func New(e Engine) *Validator {
	return &Validator{engine: e}
}

// NewEngine возвращает движок go-playground/validator с правилами currency и cents.
// Поля decimal.Decimal проверяются как числа, поэтому к ним применимы gt, lte и т.п.
func NewEngine() (*v10validator.Validate, error) {
	v := v10validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	if err := v.RegisterValidation("currency", Currency); err != nil {
		return nil, err
	}

	if err := v.RegisterValidation("cents", Cents); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Validator) Struct(ctx context.Context, s any) error {
	return v.engine.StructCtx(ctx, s)
}

func (v *Validator) Var(ctx context.Context, field any, tag string) error {
	return v.engine.VarCtx(ctx, field, tag)
}

// Currency проверяет, что строка является трёхбуквенным кодом валюты в верхнем регистре.
func Currency(fl v10validator.FieldLevel) bool {
	val := fl.Field()
	if val.Kind() != reflect.String {
		return false
	}

	code := val.String()
	if len(code) != 3 {
		return false
	}

	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}

	return true
}

// Cents проверяет, что у суммы не больше двух знаков после запятой.
func Cents(fl v10validator.FieldLevel) bool {
	val := fl.Field()
	if val.Kind() != reflect.Float64 {
		return false
	}

	d := decimal.NewFromFloat(val.Float())

	return d.Equal(d.Round(2))
}

func decimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}

	f, _ := d.Float64()

	return f
}
