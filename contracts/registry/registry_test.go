package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledABI_HasExpectedMethods(t *testing.T) {
	contractABI := ABI()
	for _, name := range []string{
		"getLibraryInfo",
		"getVersionNumbers",
		"getVersionInfo",
		"hasAccess",
		"hasUserLicense",
		"getAllLibraryNames",
		"owner",
		"registerLibrary",
		"publishVersion",
		"deprecateVersion",
		"authorizeUser",
		"revokeAuthorization",
		"deleteLibrary",
		"setLibraryLicense",
		"purchaseLibraryLicense",
		"transferOwnership",
	} {
		_, ok := contractABI.Methods[name]
		assert.True(t, ok, "method %s missing from bundled ABI", name)
	}
}

func TestBundledABI_HasNamedErrors(t *testing.T) {
	contractABI := ABI()

	notFound, ok := contractABI.Errors["LibraryNotFound"]
	require.True(t, ok)
	require.Len(t, notFound.Inputs, 1)

	notOwner, ok := contractABI.Errors["NotLibraryOwner"]
	require.True(t, ok)
	require.Len(t, notOwner.Inputs, 2)

	assert.NotEqual(t, notFound.ID, notOwner.ID)
}

func TestPublishVersionArgs_RoundTrip(t *testing.T) {
	method, ok := ABI().Methods["publishVersion"]
	require.True(t, ok)

	deps := []Dependency{
		{Name: "math-utils", Constraint: "^1.2.0"},
		{Name: "string-helpers", Constraint: ">=0.4.0 <0.5.0"},
	}
	packed, err := method.Inputs.Pack("my-lib", "1.0.0", "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", deps)
	require.NoError(t, err)

	vals, err := method.Inputs.Unpack(packed)
	require.NoError(t, err)
	require.Len(t, vals, 4)

	got := *abi.ConvertType(vals[3], new([]Dependency)).(*[]Dependency)
	assert.Equal(t, deps, got)
}

func TestLibraryNotFoundError_RoundTrip(t *testing.T) {
	libNotFound, ok := ABI().Errors["LibraryNotFound"]
	require.True(t, ok)

	packed, err := libNotFound.Inputs.Pack("ghost-lib")
	require.NoError(t, err)

	vals, err := libNotFound.Inputs.Unpack(packed)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, "ghost-lib", vals[0])
}
