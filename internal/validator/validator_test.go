package validator

import (
	"context"
	"errors"
	"testing"

	v10validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type EngineMock struct {
	mock.Mock
}

func (m *EngineMock) StructCtx(_ context.Context, s any) error {
	args := m.Called(s)

	return args.Error(0)
}

func (m *EngineMock) VarCtx(_ context.Context, field any, tag string) error {
	args := m.Called(field, tag)

	return args.Error(0)
}

func TestValidator_Struct(t *testing.T) {
	type ValidatedStruct struct {
		Name string `validate:"required"`
	}

	var (
		ctx           = context.Background()
		engine        = &EngineMock{}
		validStruct   = &ValidatedStruct{Name: "name"}
		invalidStruct = &ValidatedStruct{}
	)
	engine.On("StructCtx", validStruct).Return(nil).Once()
	engine.On("StructCtx", invalidStruct).Return(errors.New("")).Once()
	v := &Validator{engine: engine}

	assert.NoError(t, v.Struct(ctx, validStruct))
	assert.Error(t, v.Struct(ctx, invalidStruct))
	engine.AssertExpectations(t)
}

func TestValidator_Var(t *testing.T) {
	var (
		ctx        = context.Background()
		engine     = &EngineMock{}
		tag        = "alnum"
		validStr   = "name"
		invalidStr = "name$%/"
	)
	engine.On("VarCtx", validStr, tag).Return(nil).Once()
	engine.On("VarCtx", invalidStr, tag).Return(errors.New("")).Once()
	v := &Validator{engine: engine}

	assert.NoError(t, v.Var(ctx, validStr, tag))
	assert.Error(t, v.Var(ctx, invalidStr, tag))
	engine.AssertExpectations(t)
}

func TestCurrency(t *testing.T) {
	var (
		ctx = context.Background()
		v10 = v10validator.New()
		tag = "currency"
	)
	require.NoError(t, v10.RegisterValidation(tag, Currency))
	v := New(v10)

	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{
			name:  "код валюты",
			code:  "NGN",
			valid: true,
		},
		{
			name:  "нижний регистр",
			code:  "ngn",
			valid: false,
		},
		{
			name:  "слишком длинный код",
			code:  "NGNN",
			valid: false,
		},
		{
			name:  "цифры",
			code:  "N1N",
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, v.Var(ctx, tt.code, tag) == nil)
		})
	}
}

func TestNewEngine(t *testing.T) {
	type AmountRequest struct {
		Amount   decimal.Decimal `validate:"gt=0,cents"`
		Currency string          `validate:"omitempty,currency"`
	}

	engine, err := NewEngine()
	require.NoError(t, err)
	v := New(engine)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   AmountRequest
		valid bool
	}{
		{
			name:  "положительная сумма",
			req:   AmountRequest{Amount: decimal.RequireFromString("150.25"), Currency: "NGN"},
			valid: true,
		},
		{
			name:  "нулевая сумма",
			req:   AmountRequest{Amount: decimal.Zero},
			valid: false,
		},
		{
			name:  "отрицательная сумма",
			req:   AmountRequest{Amount: decimal.NewFromInt(-5)},
			valid: false,
		},
		{
			name:  "дробные копейки",
			req:   AmountRequest{Amount: decimal.RequireFromString("10.005")},
			valid: false,
		},
		{
			name:  "неверная валюта",
			req:   AmountRequest{Amount: decimal.NewFromInt(1), Currency: "naira"},
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, v.Struct(ctx, &tt.req) == nil)
		})
	}
}
