package pkg

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
	maxAssetIDLen   = 256
)

// accountIDPattern matches named and implicit account ids: lowercase
// alphanumeric parts separated by '.', '-' or '_'
var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

func ValidateAccountID(accountID string) error {
	if len(accountID) < minAccountIDLen || len(accountID) > maxAccountIDLen {
		return fmt.Errorf("account id length must be between %d and %d", minAccountIDLen, maxAccountIDLen)
	}
	if !accountIDPattern.MatchString(accountID) {
		return fmt.Errorf("invalid account id %q", accountID)
	}
	return nil
}

// ValidateAssetID accepts any non-empty printable token id
func ValidateAssetID(assetID string) error {
	if assetID == "" {
		return fmt.Errorf("asset id is required")
	}
	if len(assetID) > maxAssetIDLen {
		return fmt.Errorf("asset id longer than %d bytes", maxAssetIDLen)
	}
	for _, r := range assetID {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("asset id contains non printable characters")
		}
	}
	return nil
}

// RegisterValidators adds the account_id and asset_id tags to v
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("account_id", func(fl validator.FieldLevel) bool {
		return ValidateAccountID(fl.Field().String()) == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("asset_id", func(fl validator.FieldLevel) bool {
		return ValidateAssetID(fl.Field().String()) == nil
	})
}
