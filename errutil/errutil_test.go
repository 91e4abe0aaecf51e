package errutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tacopkm/tpkm/contracts/registry"
)

func hexToAddr(t *testing.T, s string) common.Address {
	t.Helper()
	require.True(t, common.IsHexAddress(s))
	return common.HexToAddress(s)
}

type fakeDataError struct {
	msg  string
	data interface{}
}

func (f *fakeDataError) Error() string          { return f.msg }
func (f *fakeDataError) ErrorData() interface{} { return f.data }

type fakeRPCError struct {
	msg  string
	code int
}

func (f *fakeRPCError) Error() string  { return f.msg }
func (f *fakeRPCError) ErrorCode() int { return f.code }

func TestClassify_KnownMessages(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"execution reverted: library does not exist", KindNotFound},
		{"execution reverted: version does not exist", KindNotFound},
		{"execution reverted: caller is not the owner", KindPermission},
		{"execution reverted: cannot authorize the owner", KindPermission},
		{"execution reverted: user not authorized", KindPermission},
		{"execution reverted: library name already registered", KindConflict},
		{"execution reverted: version already exists", KindConflict},
		{"execution reverted: license already owned", KindConflict},
		{"execution reverted: library is not private", KindPolicy},
		{"execution reverted: license is not required", KindPolicy},
		{"execution reverted: cannot delete library with published versions", KindPolicy},
		{"execution reverted: insufficient ether sent", KindFunds},
		{"insufficient funds for gas * price + value", KindFunds},
		{"nonce too low", KindTx},
		{"replacement transaction underpriced", KindTx},
		{"MetaMask Tx Signature: User denied transaction signature.", KindTx},
		{"cannot estimate gas; transaction may fail", KindTx},
		{"execution reverted", KindTx},
		{"dial tcp 127.0.0.1:8545: connect: connection refused", KindRPCUnreachable},
		{"lookup rpc.example.invalid: no such host", KindRPCUnreachable},
		{"something nobody has seen before", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := Classify(errors.New(tt.msg))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestClassify_StripsNoisyPrefixes(t *testing.T) {
	got := Classify(errors.New("Error: execution reverted: library does not exist"))
	require.NotNil(t, got)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, "library does not exist", got.Message)
}

func TestClassify_UsesInnermostMessage(t *testing.T) {
	err := errors.Wrap(errors.New("nonce too low"), "sending registerLibrary transaction")
	got := Classify(err)
	require.NotNil(t, got)
	assert.Equal(t, KindTx, got.Kind)
	assert.Equal(t, "nonce too low", got.Message)
}

func TestClassify_RevertReasonData(t *testing.T) {
	strT, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	payload, err := abi.Arguments{{Type: strT}}.Pack("version already exists")
	require.NoError(t, err)
	data := append([]byte{0x08, 0xc3, 0x79, 0xa0}, payload...)

	got := Classify(&fakeDataError{msg: "execution reverted", data: hexutil.Encode(data)})
	require.NotNil(t, got)
	assert.Equal(t, KindConflict, got.Kind)
	assert.Equal(t, "version already exists", got.Message)
}

func TestClassify_CustomErrorLibraryNotFound(t *testing.T) {
	libNotFound, ok := registry.ABI().Errors["LibraryNotFound"]
	require.True(t, ok)
	payload, err := libNotFound.Inputs.Pack("ghost-lib")
	require.NoError(t, err)
	data := append(libNotFound.ID.Bytes()[:4], payload...)

	got := Classify(&fakeDataError{msg: "execution reverted", data: hexutil.Encode(data)})
	require.NotNil(t, got)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Contains(t, got.Message, "ghost-lib")
}

func TestClassify_CustomErrorNotLibraryOwner(t *testing.T) {
	notOwner, ok := registry.ABI().Errors["NotLibraryOwner"]
	require.True(t, ok)
	caller := hexToAddr(t, "0x1111111111111111111111111111111111111111")
	owner := hexToAddr(t, "0x2222222222222222222222222222222222222222")
	payload, err := notOwner.Inputs.Pack(caller, owner)
	require.NoError(t, err)
	data := append(notOwner.ID.Bytes()[:4], payload...)

	got := Classify(&fakeDataError{msg: "execution reverted", data: hexutil.Encode(data)})
	require.NotNil(t, got)
	assert.Equal(t, KindPermission, got.Kind)
	assert.Contains(t, got.Message, caller.Hex())
	assert.Contains(t, got.Message, owner.Hex())
}

func TestClassify_RPCCodeFallback(t *testing.T) {
	got := Classify(&fakeRPCError{msg: "odd provider hiccup", code: -32000})
	require.NotNil(t, got)
	assert.Equal(t, KindTx, got.Kind)

	got = Classify(&fakeRPCError{msg: "odd provider hiccup", code: -32601})
	require.NotNil(t, got)
	assert.Equal(t, KindUnknown, got.Kind)
}

func TestClassify_PassesThroughTypedErrors(t *testing.T) {
	orig := New(KindConfigMissing, "no active network configured").
		WithHint("run 'tpkm config add' or set RPC_URL and CONTRACT_ADDRESS")
	wrapped := errors.Wrap(orig, "loading network")

	got := Classify(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindConfigMissing, got.Kind)
	assert.Equal(t, orig.Hint, got.Hint)
}

func TestClassify_NilIsNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestKindHelpers(t *testing.T) {
	err := errors.Wrap(New(KindFunds, "insufficient funds"), "purchasing license")
	assert.Equal(t, KindFunds, KindOf(err))
	assert.True(t, IsKind(err, KindFunds))
	assert.False(t, IsKind(err, KindAuth))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
