package access

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacopkm/tpkm/contracts/registry"
)

var (
	owner   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	zeroWei = big.NewInt(0)
)

type fakeRegistry struct {
	info     registry.LibraryInfo
	access   bool
	licensed bool
}

func (f *fakeRegistry) LibraryInfo(_ context.Context, _ string) (registry.LibraryInfo, error) {
	return f.info, nil
}

func (f *fakeRegistry) HasAccess(_ context.Context, _ string, _ common.Address) (bool, error) {
	return f.access, nil
}

func (f *fakeRegistry) HasUserLicense(_ context.Context, _ string, _ common.Address) (bool, error) {
	return f.licensed, nil
}

func lib(isPrivate, licenseRequired bool) registry.LibraryInfo {
	return registry.LibraryInfo{
		Owner:           owner,
		IsPrivate:       isPrivate,
		LicenseRequired: licenseRequired,
		LicenseFee:      zeroWei,
	}
}

func TestEvaluate_AllStates(t *testing.T) {
	tests := []struct {
		name        string
		reg         *fakeRegistry
		caller      *common.Address
		wantStatus  Status
		wantGranted bool
	}{
		{
			name:        "no wallet, open library",
			reg:         &fakeRegistry{info: lib(false, false)},
			caller:      nil,
			wantStatus:  StatusNoWallet,
			wantGranted: true,
		},
		{
			name:        "no wallet, private library",
			reg:         &fakeRegistry{info: lib(true, false)},
			caller:      nil,
			wantStatus:  StatusNoWallet,
			wantGranted: false,
		},
		{
			name:        "no wallet, licensed library",
			reg:         &fakeRegistry{info: lib(false, true)},
			caller:      nil,
			wantStatus:  StatusNoWallet,
			wantGranted: false,
		},
		{
			name:        "owner",
			reg:         &fakeRegistry{info: lib(true, false)},
			caller:      &owner,
			wantStatus:  StatusOwner,
			wantGranted: true,
		},
		{
			name:        "public open",
			reg:         &fakeRegistry{info: lib(false, false), access: true},
			caller:      &alice,
			wantStatus:  StatusPublicOpen,
			wantGranted: true,
		},
		{
			name:        "licensed, license held",
			reg:         &fakeRegistry{info: lib(false, true), access: true, licensed: true},
			caller:      &alice,
			wantStatus:  StatusPublicLicensedOwned,
			wantGranted: true,
		},
		{
			name:        "licensed, no license",
			reg:         &fakeRegistry{info: lib(false, true), access: false},
			caller:      &alice,
			wantStatus:  StatusPublicLicensedUnowned,
			wantGranted: false,
		},
		{
			name:        "private, authorized",
			reg:         &fakeRegistry{info: lib(true, false), access: true},
			caller:      &alice,
			wantStatus:  StatusPrivateAuthorized,
			wantGranted: true,
		},
		{
			name:        "private, not authorized",
			reg:         &fakeRegistry{info: lib(true, false), access: false},
			caller:      &alice,
			wantStatus:  StatusPrivateUnauthorized,
			wantGranted: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := Evaluate(context.Background(), tt.reg, "somelib", tt.caller)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, decision.Status)
			assert.Equal(t, tt.wantGranted, decision.Granted)
		})
	}
}

func TestDenialReason(t *testing.T) {
	dec := Decision{Status: StatusPrivateUnauthorized, Info: lib(true, false)}
	reason := dec.DenialReason("secret-lib")
	assert.Contains(t, reason, "secret-lib")
	assert.Contains(t, reason, owner.Hex())

	dec = Decision{Status: StatusPublicLicensedUnowned, Info: lib(false, true)}
	reason = dec.DenialReason("paid-lib")
	assert.Contains(t, reason, "purchase-license")
}

func TestStatusDescribe_CoversAllStates(t *testing.T) {
	statuses := []Status{
		StatusOwner, StatusPublicOpen, StatusPublicLicensedOwned,
		StatusPublicLicensedUnowned, StatusPrivateAuthorized,
		StatusPrivateUnauthorized, StatusNoWallet,
	}
	seen := map[string]bool{}
	for _, s := range statuses {
		desc := s.Describe()
		assert.NotEmpty(t, desc)
		assert.False(t, seen[desc], "describe collision for %s", s)
		seen[desc] = true
	}
}
