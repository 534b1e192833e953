package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// validate is shared by every request type in this package.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags on a request and wraps failures in ErrValidation
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrValidation, fe.Field())
	case "eth_addr":
		return fmt.Errorf("%w: %s must be a hex wallet address", ErrValidation, fe.Field())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s]", ErrValidation, fe.Field(), fe.Param())
	case "url":
		return fmt.Errorf("%w: %s must be a valid URL", ErrValidation, fe.Field())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrValidation, fe.Field())
	}
}

// NormalizeAddress returns the EIP-55 checksum form of a wallet address.
// The same wallet always maps to the same storage key regardless of the
// casing the client sent.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: userAddress is required", ErrValidation)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: userAddress must be a hex wallet address", ErrValidation)
	}
	return common.HexToAddress(address).Hex(), nil
}
