package licensing

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
)

var (
	owner = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

type fakeRegistry struct {
	info     registry.LibraryInfo
	licensed bool

	setFee      *big.Int
	setRequired bool
	setCalled   bool

	purchaseValue *big.Int
}

func (f *fakeRegistry) LibraryInfo(_ context.Context, _ string) (registry.LibraryInfo, error) {
	return f.info, nil
}

func (f *fakeRegistry) HasUserLicense(_ context.Context, _ string, _ common.Address) (bool, error) {
	return f.licensed, nil
}

func (f *fakeRegistry) SetLibraryLicense(_ context.Context, _ string, fee *big.Int, required bool) (common.Hash, error) {
	f.setCalled = true
	f.setFee = fee
	f.setRequired = required
	return common.HexToHash("0x01"), nil
}

func (f *fakeRegistry) PurchaseLibraryLicense(_ context.Context, _ string, value *big.Int) (common.Hash, error) {
	f.purchaseValue = value
	return common.HexToHash("0x02"), nil
}

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad wei literal " + s)
	}
	return v
}

func TestParseFee(t *testing.T) {
	tests := []struct {
		input     string
		want      *big.Int
		wantedErr bool
	}{
		{input: "0", want: wei("0")},
		{input: "none", want: wei("0")},
		{input: "0 eth", want: wei("0")},
		{input: "1 eth", want: wei("1000000000000000000")},
		{input: "0.01 eth", want: wei("10000000000000000")},
		{input: "0.01 ether", want: wei("10000000000000000")},
		{input: "5 gwei", want: wei("5000000000")},
		{input: "2.5 gwei", want: wei("2500000000")},
		{input: "123 wei", want: wei("123")},
		{input: "123", want: wei("123")},
		{input: "1 ETH", want: wei("1000000000000000000")},
		{input: "-1 eth", wantedErr: true},
		{input: "1.5 wei", wantedErr: true},
		{input: "0.0000000000000000001 eth", wantedErr: true},
		{input: "1 doge", wantedErr: true},
		{input: "abc eth", wantedErr: true},
		{input: "1 2 3", wantedErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFee(tt.input)
			if tt.wantedErr {
				require.Error(t, err)
				assert.Equal(t, errutil.KindValidation, errutil.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Zero(t, tt.want.Cmp(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestFormatWei(t *testing.T) {
	assert.Equal(t, "0 ETH", FormatWei(nil))
	assert.Equal(t, "0 ETH", FormatWei(wei("0")))
	assert.Equal(t, "1 ETH", FormatWei(wei("1000000000000000000")))
	assert.Equal(t, "0.01 ETH", FormatWei(wei("10000000000000000")))
	assert.Equal(t, "1.5 ETH", FormatWei(wei("1500000000000000000")))
	assert.Equal(t, "0.000000000000000001 ETH", FormatWei(wei("1")))
}

func TestSetLicense_OwnerOnly(t *testing.T) {
	reg := &fakeRegistry{info: registry.LibraryInfo{Owner: owner}}
	_, err := SetLicense(context.Background(), reg, "lib", alice, wei("0"), false)
	require.Error(t, err)
	assert.Equal(t, errutil.KindPermission, errutil.KindOf(err))
	assert.False(t, reg.setCalled)
}

func TestSetLicense_PrivateCannotRequire(t *testing.T) {
	reg := &fakeRegistry{info: registry.LibraryInfo{Owner: owner, IsPrivate: true}}
	_, err := SetLicense(context.Background(), reg, "lib", owner, wei("0"), true)
	require.Error(t, err)
	assert.Equal(t, errutil.KindPolicy, errutil.KindOf(err))
	assert.False(t, reg.setCalled)
}

func TestSetLicense_HappyPath(t *testing.T) {
	reg := &fakeRegistry{info: registry.LibraryInfo{Owner: owner}}
	fee := wei("10000000000000000")
	_, err := SetLicense(context.Background(), reg, "lib", owner, fee, true)
	require.NoError(t, err)
	assert.True(t, reg.setCalled)
	assert.Zero(t, fee.Cmp(reg.setFee))
	assert.True(t, reg.setRequired)
}

func licensedLib(fee *big.Int) registry.LibraryInfo {
	return registry.LibraryInfo{Owner: owner, LicenseRequired: true, LicenseFee: fee}
}

func TestPurchase_PreChecks(t *testing.T) {
	fee := wei("10000000000000000")
	tests := []struct {
		name     string
		reg      *fakeRegistry
		caller   common.Address
		amount   *big.Int
		wantKind errutil.Kind
	}{
		{
			name:     "owner refused",
			reg:      &fakeRegistry{info: licensedLib(fee)},
			caller:   owner,
			wantKind: errutil.KindPolicy,
		},
		{
			name:     "private refused",
			reg:      &fakeRegistry{info: registry.LibraryInfo{Owner: owner, IsPrivate: true}},
			caller:   alice,
			wantKind: errutil.KindPolicy,
		},
		{
			name:     "license not required",
			reg:      &fakeRegistry{info: registry.LibraryInfo{Owner: owner}},
			caller:   alice,
			wantKind: errutil.KindPolicy,
		},
		{
			name:     "already owned",
			reg:      &fakeRegistry{info: licensedLib(fee), licensed: true},
			caller:   alice,
			wantKind: errutil.KindConflict,
		},
		{
			name:     "underpayment",
			reg:      &fakeRegistry{info: licensedLib(fee)},
			caller:   alice,
			amount:   wei("1"),
			wantKind: errutil.KindFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Purchase(context.Background(), tt.reg, "lib", tt.caller, tt.amount)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errutil.KindOf(err))
			assert.Nil(t, tt.reg.purchaseValue, "no transaction should have been sent")
		})
	}
}

// The default amount is exactly the on-chain fee: 0.01 ETH here.
func TestPurchase_DefaultsToExactFee(t *testing.T) {
	fee := wei("10000000000000000")
	reg := &fakeRegistry{info: licensedLib(fee)}

	_, paid, err := Purchase(context.Background(), reg, "lib", alice, nil)
	require.NoError(t, err)
	require.NotNil(t, reg.purchaseValue)
	assert.Zero(t, fee.Cmp(reg.purchaseValue))
	assert.Zero(t, fee.Cmp(paid))
}

func TestPurchase_OverpaymentAccepted(t *testing.T) {
	fee := wei("10000000000000000")
	reg := &fakeRegistry{info: licensedLib(fee)}
	over := wei("20000000000000000")

	_, paid, err := Purchase(context.Background(), reg, "lib", alice, over)
	require.NoError(t, err)
	assert.Zero(t, over.Cmp(paid))
}
