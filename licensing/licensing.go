// Package licensing implements the license side of the registry: parsing
// fee strings into wei, rendering wei back for display, and the pre-checked
// set-license and purchase-license flows. Pre-checks run before any
// transaction so predictable refusals never cost gas.
package licensing

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"

	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
)

var log = logrus.WithField("prefix", "licensing")

// Registry is the contract surface the license flows need.
type Registry interface {
	LibraryInfo(ctx context.Context, name string) (registry.LibraryInfo, error)
	HasUserLicense(ctx context.Context, name string, user common.Address) (bool, error)
	SetLibraryLicense(ctx context.Context, name string, fee *big.Int, required bool) (common.Hash, error)
	PurchaseLibraryLicense(ctx context.Context, name string, value *big.Int) (common.Hash, error)
}

// unitDecimals maps accepted fee units to their decimal exponent.
var unitDecimals = map[string]int{
	"eth":   18,
	"ether": 18,
	"gwei":  9,
	"wei":   0,
}

// ParseFee converts a user-supplied fee string to wei. Accepted forms are
// "<amount> <unit>" with unit one of eth, ether, gwei or wei, a bare integer
// (wei), and the zero spellings "0" and "none". Negative and malformed
// amounts are rejected.
func ParseFee(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	if trimmed == "" || trimmed == "none" || trimmed == "0" {
		return new(big.Int), nil
	}
	fields := strings.Fields(trimmed)
	amount := fields[0]
	decimals := 0
	switch len(fields) {
	case 1:
		// Bare numbers are wei.
	case 2:
		d, ok := unitDecimals[fields[1]]
		if !ok {
			return nil, errutil.Newf(errutil.KindValidation,
				"unknown fee unit %q: use eth, ether, gwei or wei", fields[1])
		}
		decimals = d
	default:
		return nil, errutil.Newf(errutil.KindValidation, "invalid fee %q: expected '<amount> <unit>'", s)
	}
	wei, err := decimalToWei(amount, decimals)
	if err != nil {
		return nil, errutil.Wrapf(err, errutil.KindValidation, "invalid fee %q", s)
	}
	return wei, nil
}

// decimalToWei scales a non-negative decimal string by 10^decimals without
// any floating point, so 18-decimal amounts convert exactly.
func decimalToWei(amount string, decimals int) (*big.Int, error) {
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("fee cannot be negative")
	}
	whole, frac := amount, ""
	if dot := strings.IndexByte(amount, '.'); dot >= 0 {
		whole, frac = amount[:dot], amount[dot+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a number", amount)
	}
	return wei, nil
}

// FormatWei renders a wei amount as an ETH string for display.
func FormatWei(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0 ETH"
	}
	quo, rem := new(big.Int).QuoRem(wei, big.NewInt(params.Ether), new(big.Int))
	if rem.Sign() == 0 {
		return fmt.Sprintf("%s ETH", quo)
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")
	return fmt.Sprintf("%s.%s ETH", quo, frac)
}

// SetLicense updates the license terms on name. The caller must own the
// library, and a private library can never require a license.
func SetLicense(ctx context.Context, reg Registry, name string, caller common.Address, fee *big.Int, required bool) (common.Hash, error) {
	info, err := reg.LibraryInfo(ctx, name)
	if err != nil {
		return common.Hash{}, err
	}
	if info.Owner != caller {
		return common.Hash{}, errutil.Newf(errutil.KindPermission,
			"only the library owner (%s) can change license terms for %q", info.Owner.Hex(), name)
	}
	if info.IsPrivate && required {
		return common.Hash{}, errutil.Newf(errutil.KindPolicy,
			"library %q is private: private libraries use authorization, not licenses", name)
	}
	if fee.Sign() > 0 && !required {
		log.Warnf("Setting a non-zero fee on %q while license is not required: nobody will be charged", name)
	}
	return reg.SetLibraryLicense(ctx, name, fee, required)
}

// Purchase buys a license on name for the caller. A nil amount sends exactly
// the on-chain fee; an explicit amount below the fee is refused and an
// overpayment is warned about (any refund is the contract's business).
func Purchase(ctx context.Context, reg Registry, name string, caller common.Address, amount *big.Int) (common.Hash, *big.Int, error) {
	info, err := reg.LibraryInfo(ctx, name)
	if err != nil {
		return common.Hash{}, nil, err
	}
	if info.Owner == caller {
		return common.Hash{}, nil, errutil.Newf(errutil.KindPolicy,
			"you own library %q and do not need a license", name)
	}
	if info.IsPrivate {
		return common.Hash{}, nil, errutil.Newf(errutil.KindPolicy,
			"library %q is private: access is granted by the owner, not purchased", name)
	}
	if !info.LicenseRequired {
		return common.Hash{}, nil, errutil.Newf(errutil.KindPolicy,
			"library %q does not require a license", name)
	}
	owned, err := reg.HasUserLicense(ctx, name, caller)
	if err != nil {
		return common.Hash{}, nil, err
	}
	if owned {
		return common.Hash{}, nil, errutil.Newf(errutil.KindConflict,
			"you already own a license for %q", name)
	}
	fee := info.LicenseFee
	if fee == nil {
		fee = new(big.Int)
	}
	value := amount
	if value == nil {
		value = new(big.Int).Set(fee)
	} else if value.Cmp(fee) < 0 {
		return common.Hash{}, nil, errutil.Newf(errutil.KindFunds,
			"amount %s is below the license fee of %s", FormatWei(value), FormatWei(fee))
	} else if value.Cmp(fee) > 0 {
		log.Warnf("Sending %s for a %s license fee; the overpayment is handled by the contract", FormatWei(value), FormatWei(fee))
	}
	hash, err := reg.PurchaseLibraryLicense(ctx, name, value)
	if err != nil {
		return common.Hash{}, nil, err
	}
	return hash, value, nil
}
