package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies service failures for the HTTP layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindSignature
	KindGateway
	KindNotFound
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindSignature:
		return "signature"
	case KindGateway:
		return "gateway"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	}
	return "internal"
}

// Error is a classified service error. Message is safe to show to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(what string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found", Err: err}
}

func signatureError(msg string) *Error {
	return &Error{Kind: KindSignature, Message: msg}
}

func gatewayError(msg string, err error) *Error {
	return &Error{Kind: KindGateway, Message: msg, Err: err}
}

// conflictFromStock wraps a stock shortage so both *Error and *StockError match errors.As.
func conflictFromStock(err *StockError) *Error {
	return &Error{Kind: KindConflict, Message: err.Error(), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// StockError reports an ingredient whose store inventory cannot cover a deduction.
type StockError struct {
	IngredientID   uint
	IngredientName string
	Required       decimal.Decimal
	Available      decimal.Decimal
	Missing        bool
}

func (e *StockError) Error() string {
	if e.Missing {
		return fmt.Sprintf("ingredient %s is not stocked at this store", e.Ingredient())
	}
	return fmt.Sprintf("insufficient stock for ingredient %s: required %s, available %s",
		e.Ingredient(), e.Required.String(), e.Available.String())
}

// Ingredient names the ingredient by name when known, else by id.
func (e *StockError) Ingredient() string {
	if e.IngredientName != "" {
		return e.IngredientName
	}
	return fmt.Sprintf("#%d", e.IngredientID)
}
