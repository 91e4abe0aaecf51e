package describe

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacopkm/tpkm/access"
	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
)

var (
	owner = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

type fakeRegistry struct {
	info     registry.LibraryInfo
	versions []string
	records  map[string]registry.VersionInfo
	granted  bool
	licensed bool
}

func (f *fakeRegistry) LibraryInfo(_ context.Context, _ string) (registry.LibraryInfo, error) {
	return f.info, nil
}

func (f *fakeRegistry) VersionNumbers(_ context.Context, _ string) ([]string, error) {
	return f.versions, nil
}

func (f *fakeRegistry) VersionInfo(_ context.Context, _ string, version string) (registry.VersionInfo, error) {
	rec, ok := f.records[version]
	if !ok {
		return registry.VersionInfo{}, errutil.Newf(errutil.KindNotFound, "no such version")
	}
	return rec, nil
}

func (f *fakeRegistry) HasAccess(_ context.Context, _ string, _ common.Address) (bool, error) {
	return f.granted, nil
}

func (f *fakeRegistry) HasUserLicense(_ context.Context, _ string, _ common.Address) (bool, error) {
	return f.licensed, nil
}

func openLib() registry.LibraryInfo {
	return registry.LibraryInfo{
		Owner:       owner,
		Description: "utility belt",
		Language:    "javascript",
		Tags:        []string{"utils", "strings"},
		LicenseFee:  big.NewInt(0),
	}
}

func TestBuild_LibraryOnly(t *testing.T) {
	reg := &fakeRegistry{info: openLib(), granted: true}
	view, err := Build(context.Background(), reg, "mylib", "", &alice, false)
	require.NoError(t, err)
	assert.Equal(t, access.StatusPublicOpen, view.Decision.Status)
	assert.Empty(t, view.Versions)
	assert.Nil(t, view.Version)
}

func TestBuild_WithVersionsAndDetail(t *testing.T) {
	reg := &fakeRegistry{
		info:     openLib(),
		granted:  true,
		versions: []string{"1.0.0", "1.1.0"},
		records: map[string]registry.VersionInfo{
			"1.1.0": {
				IpfsHash:    "QmSomeCID",
				Publisher:   owner,
				PublishedAt: big.NewInt(1700000000),
				Deprecated:  true,
				Dependencies: []registry.Dependency{
					{Name: "dep", Constraint: "^2.0.0"},
				},
			},
		},
	}
	view, err := Build(context.Background(), reg, "mylib", "1.1.0", &alice, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.1.0"}, view.Versions)
	require.NotNil(t, view.Version)
	assert.Equal(t, "QmSomeCID", view.Version.Info.IpfsHash)

	var buf bytes.Buffer
	Render(&buf, view, false)
	out := buf.String()
	assert.Contains(t, out, "mylib")
	assert.Contains(t, out, "utility belt")
	assert.Contains(t, out, owner.Hex())
	assert.Contains(t, out, "utils, strings")
	assert.Contains(t, out, "access:     public")
	assert.Contains(t, out, "1.0.0, 1.1.0")
	assert.Contains(t, out, "DEPRECATED")
	assert.Contains(t, out, "QmSomeCID")
	assert.Contains(t, out, "dep ^2.0.0")
	assert.Contains(t, out, "2023-11-14")
}

func TestBuild_UnknownVersion(t *testing.T) {
	reg := &fakeRegistry{info: openLib(), granted: true, versions: []string{"1.0.0"}}
	_, err := Build(context.Background(), reg, "mylib", "9.9.9", &alice, false)
	require.Error(t, err)
	assert.Equal(t, errutil.KindNotFound, errutil.KindOf(err))
}

func TestBuild_DeniedHidesVersionDetail(t *testing.T) {
	info := openLib()
	info.IsPrivate = true
	reg := &fakeRegistry{
		info:     info,
		granted:  false,
		versions: []string{"1.0.0"},
	}
	view, err := Build(context.Background(), reg, "secret", "1.0.0", &alice, true)
	require.NoError(t, err)
	assert.False(t, view.Decision.Granted)
	assert.Nil(t, view.Version)
	assert.Empty(t, view.Versions)

	var buf bytes.Buffer
	Render(&buf, view, false)
	out := buf.String()
	assert.Contains(t, out, "visibility: private")
	assert.Contains(t, out, "not authorized")
	assert.Contains(t, out, "tpkm authorize")
}

func TestRender_LicensedLibraryShowsFee(t *testing.T) {
	info := openLib()
	info.LicenseRequired = true
	info.LicenseFee = big.NewInt(10000000000000000)
	reg := &fakeRegistry{info: info, granted: true, licensed: true}

	view, err := Build(context.Background(), reg, "paid", "", &alice, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	Render(&buf, view, false)
	out := buf.String()
	assert.Contains(t, out, "license:    required, fee 0.01 ETH")
	assert.Contains(t, out, "license held")
}
