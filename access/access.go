// Package access decides whether a caller may read a library. The same
// evaluation backs the installer's pre-flight check, the info view, and
// the license and authorization command prompts, so all of them agree on
// the reason a read is allowed or denied.
package access

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tacopkm/tpkm/contracts/registry"
)

// Status is the single access state of one (library, caller) pair.
type Status string

const (
	// StatusOwner: the caller registered the library.
	StatusOwner Status = "OWNER"
	// StatusPublicOpen: public library, no license required.
	StatusPublicOpen Status = "PUBLIC_OPEN"
	// StatusPublicLicensedOwned: license required and the caller holds one.
	StatusPublicLicensedOwned Status = "PUBLIC_LICENSED_OWNED"
	// StatusPublicLicensedUnowned: license required and the caller holds none.
	StatusPublicLicensedUnowned Status = "PUBLIC_LICENSED_UNOWNED"
	// StatusPrivateAuthorized: private library, caller on the ACL.
	StatusPrivateAuthorized Status = "PRIVATE_AUTHORIZED"
	// StatusPrivateUnauthorized: private library, caller not on the ACL.
	StatusPrivateUnauthorized Status = "PRIVATE_UNAUTHORIZED"
	// StatusNoWallet: no caller address available for the gated checks.
	StatusNoWallet Status = "NO_WALLET"
)

// Registry is the read surface the gate needs.
type Registry interface {
	LibraryInfo(ctx context.Context, name string) (registry.LibraryInfo, error)
	HasAccess(ctx context.Context, name string, user common.Address) (bool, error)
	HasUserLicense(ctx context.Context, name string, user common.Address) (bool, error)
}

// Decision is the gate's answer for one (library, caller) pair.
type Decision struct {
	Status Status
	Info   registry.LibraryInfo
	// Granted reports whether the caller may read the library's content.
	// With no wallet only fully open libraries are readable.
	Granted bool
}

// Evaluate returns the access decision for caller on the named library.
// A nil caller means no wallet is loaded.
func Evaluate(ctx context.Context, reg Registry, name string, caller *common.Address) (Decision, error) {
	info, err := reg.LibraryInfo(ctx, name)
	if err != nil {
		return Decision{}, err
	}
	return EvaluateWithInfo(ctx, reg, name, info, caller)
}

// EvaluateWithInfo is Evaluate for callers that already hold the library
// record, saving the extra contract read.
func EvaluateWithInfo(ctx context.Context, reg Registry, name string, info registry.LibraryInfo, caller *common.Address) (Decision, error) {
	if caller == nil {
		return Decision{
			Status:  StatusNoWallet,
			Info:    info,
			Granted: !info.IsPrivate && !info.LicenseRequired,
		}, nil
	}
	if *caller == info.Owner {
		return Decision{Status: StatusOwner, Info: info, Granted: true}, nil
	}
	granted, err := reg.HasAccess(ctx, name, *caller)
	if err != nil {
		return Decision{}, err
	}
	if !granted {
		status := StatusPrivateUnauthorized
		if info.LicenseRequired {
			status = StatusPublicLicensedUnowned
		}
		return Decision{Status: status, Info: info}, nil
	}
	licensed, err := reg.HasUserLicense(ctx, name, *caller)
	if err != nil {
		return Decision{}, err
	}
	switch {
	case licensed:
		return Decision{Status: StatusPublicLicensedOwned, Info: info, Granted: true}, nil
	case info.IsPrivate:
		return Decision{Status: StatusPrivateAuthorized, Info: info, Granted: true}, nil
	default:
		return Decision{Status: StatusPublicOpen, Info: info, Granted: true}, nil
	}
}

// DenialReason renders the human explanation for a denied decision,
// naming the library and what unblocks the caller.
func (d Decision) DenialReason(name string) string {
	switch d.Status {
	case StatusPrivateUnauthorized:
		return fmt.Sprintf(
			"library %q is private and you are not authorized; ask the owner (%s) to run 'tpkm authorize %s <yourAddress>'",
			name, d.Info.Owner.Hex(), name)
	case StatusPublicLicensedUnowned:
		return fmt.Sprintf(
			"library %q requires a license you do not hold; run 'tpkm purchase-license %s' to buy one",
			name, name)
	case StatusNoWallet:
		return fmt.Sprintf(
			"library %q is restricted and no wallet is loaded; create or import a wallet first", name)
	default:
		return fmt.Sprintf("access to library %q denied", name)
	}
}

// Describe renders the status for display in the info view.
func (s Status) Describe() string {
	switch s {
	case StatusOwner:
		return "owner"
	case StatusPublicOpen:
		return "public"
	case StatusPublicLicensedOwned:
		return "licensed (license held)"
	case StatusPublicLicensedUnowned:
		return "licensed (no license held)"
	case StatusPrivateAuthorized:
		return "private (authorized)"
	case StatusPrivateUnauthorized:
		return "private (not authorized)"
	case StatusNoWallet:
		return "unknown (no wallet)"
	default:
		return string(s)
	}
}
