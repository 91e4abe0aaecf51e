// Package registry provides Go bindings for the on-chain library registry
// contract. The bindings are written against the bundled build artifact in
// registry.json and follow the calling conventions of abigen output so that
// callers interact with the contract through typed methods only.
package registry

import (
	"embed"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed registry.json
var buildFS embed.FS

// parsedABI is the decoded interface of the registry contract, shared by the
// bindings and by error decoding.
var parsedABI = mustParseABI()

type buildArtifact struct {
	ContractName string  `json:"contractName"`
	ABI          abi.ABI `json:"abi"`
}

func mustParseABI() abi.ABI {
	raw, err := buildFS.ReadFile("registry.json")
	if err != nil {
		panic(err)
	}
	var build buildArtifact
	if err := json.Unmarshal(raw, &build); err != nil {
		panic(err)
	}
	return build.ABI
}

// ABI returns the parsed contract interface. It exposes the registry's named
// custom errors so revert data can be decoded into readable messages.
func ABI() abi.ABI {
	return parsedABI
}

// Dependency is the (name, constraint) pair stored with each published
// version.
type Dependency struct {
	Name       string
	Constraint string
}

// LibraryInfo mirrors the tuple returned by getLibraryInfo.
type LibraryInfo struct {
	Owner           common.Address
	Description     string
	Tags            []string
	IsPrivate       bool
	Language        string
	LicenseFee      *big.Int
	LicenseRequired bool
}

// VersionInfo mirrors the tuple returned by getVersionInfo.
type VersionInfo struct {
	IpfsHash     string
	Publisher    common.Address
	PublishedAt  *big.Int
	Deprecated   bool
	Dependencies []Dependency
}

// Registry is an auto-binding-style wrapper around a deployed registry
// contract, combining read and write surfaces.
type Registry struct {
	RegistryCaller
	RegistryTransactor
}

// RegistryCaller wraps the read-only methods of the contract.
type RegistryCaller struct {
	contract *bind.BoundContract
}

// RegistryTransactor wraps the state-mutating methods of the contract.
type RegistryTransactor struct {
	contract *bind.BoundContract
}

// NewRegistry creates a new instance of Registry bound to a specific
// deployed contract.
func NewRegistry(address common.Address, backend bind.ContractBackend) (*Registry, error) {
	contract := bind.NewBoundContract(address, parsedABI, backend, backend, nil)
	return &Registry{
		RegistryCaller:     RegistryCaller{contract: contract},
		RegistryTransactor: RegistryTransactor{contract: contract},
	}, nil
}

// NewRegistryCaller creates a read-only instance of Registry.
func NewRegistryCaller(address common.Address, caller bind.ContractCaller) (*RegistryCaller, error) {
	contract := bind.NewBoundContract(address, parsedABI, caller, nil, nil)
	return &RegistryCaller{contract: contract}, nil
}

// NewRegistryTransactor creates a write-only instance of Registry.
func NewRegistryTransactor(address common.Address, transactor bind.ContractTransactor) (*RegistryTransactor, error) {
	contract := bind.NewBoundContract(address, parsedABI, nil, transactor, nil)
	return &RegistryTransactor{contract: contract}, nil
}

// GetLibraryInfo is a free data retrieval call binding the contract method
// getLibraryInfo(string).
func (c *RegistryCaller) GetLibraryInfo(opts *bind.CallOpts, name string) (LibraryInfo, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "getLibraryInfo", name)
	if err != nil {
		return LibraryInfo{}, err
	}
	info := LibraryInfo{
		Owner:           *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Description:     *abi.ConvertType(out[1], new(string)).(*string),
		Tags:            *abi.ConvertType(out[2], new([]string)).(*[]string),
		IsPrivate:       *abi.ConvertType(out[3], new(bool)).(*bool),
		Language:        *abi.ConvertType(out[4], new(string)).(*string),
		LicenseFee:      *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		LicenseRequired: *abi.ConvertType(out[6], new(bool)).(*bool),
	}
	return info, nil
}

// GetVersionNumbers is a free data retrieval call binding the contract method
// getVersionNumbers(string).
func (c *RegistryCaller) GetVersionNumbers(opts *bind.CallOpts, name string) ([]string, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "getVersionNumbers", name)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

// GetVersionInfo is a free data retrieval call binding the contract method
// getVersionInfo(string,string).
func (c *RegistryCaller) GetVersionInfo(opts *bind.CallOpts, name, version string) (VersionInfo, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "getVersionInfo", name, version)
	if err != nil {
		return VersionInfo{}, err
	}
	info := VersionInfo{
		IpfsHash:     *abi.ConvertType(out[0], new(string)).(*string),
		Publisher:    *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		PublishedAt:  *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		Deprecated:   *abi.ConvertType(out[3], new(bool)).(*bool),
		Dependencies: *abi.ConvertType(out[4], new([]Dependency)).(*[]Dependency),
	}
	return info, nil
}

// HasAccess is a free data retrieval call binding the contract method
// hasAccess(string,address).
func (c *RegistryCaller) HasAccess(opts *bind.CallOpts, name string, user common.Address) (bool, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "hasAccess", name, user)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// HasUserLicense is a free data retrieval call binding the contract method
// hasUserLicense(string,address).
func (c *RegistryCaller) HasUserLicense(opts *bind.CallOpts, name string, user common.Address) (bool, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "hasUserLicense", name, user)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GetAllLibraryNames is a free data retrieval call binding the contract method
// getAllLibraryNames().
func (c *RegistryCaller) GetAllLibraryNames(opts *bind.CallOpts) ([]string, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "getAllLibraryNames")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

// Owner is a free data retrieval call binding the contract method owner().
func (c *RegistryCaller) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// RegisterLibrary is a paid mutator transaction binding the contract method
// registerLibrary(string,string,string[],string,bool).
func (t *RegistryTransactor) RegisterLibrary(opts *bind.TransactOpts, name, description string, tags []string, language string, isPrivate bool) (*types.Transaction, error) {
	return t.contract.Transact(opts, "registerLibrary", name, description, tags, language, isPrivate)
}

// PublishVersion is a paid mutator transaction binding the contract method
// publishVersion(string,string,string,(string,string)[]).
func (t *RegistryTransactor) PublishVersion(opts *bind.TransactOpts, name, version, ipfsHash string, dependencies []Dependency) (*types.Transaction, error) {
	return t.contract.Transact(opts, "publishVersion", name, version, ipfsHash, dependencies)
}

// DeprecateVersion is a paid mutator transaction binding the contract method
// deprecateVersion(string,string).
func (t *RegistryTransactor) DeprecateVersion(opts *bind.TransactOpts, name, version string) (*types.Transaction, error) {
	return t.contract.Transact(opts, "deprecateVersion", name, version)
}

// AuthorizeUser is a paid mutator transaction binding the contract method
// authorizeUser(string,address).
func (t *RegistryTransactor) AuthorizeUser(opts *bind.TransactOpts, name string, user common.Address) (*types.Transaction, error) {
	return t.contract.Transact(opts, "authorizeUser", name, user)
}

// RevokeAuthorization is a paid mutator transaction binding the contract
// method revokeAuthorization(string,address).
func (t *RegistryTransactor) RevokeAuthorization(opts *bind.TransactOpts, name string, user common.Address) (*types.Transaction, error) {
	return t.contract.Transact(opts, "revokeAuthorization", name, user)
}

// DeleteLibrary is a paid mutator transaction binding the contract method
// deleteLibrary(string).
func (t *RegistryTransactor) DeleteLibrary(opts *bind.TransactOpts, name string) (*types.Transaction, error) {
	return t.contract.Transact(opts, "deleteLibrary", name)
}

// SetLibraryLicense is a paid mutator transaction binding the contract method
// setLibraryLicense(string,uint256,bool).
func (t *RegistryTransactor) SetLibraryLicense(opts *bind.TransactOpts, name string, fee *big.Int, required bool) (*types.Transaction, error) {
	return t.contract.Transact(opts, "setLibraryLicense", name, fee, required)
}

// PurchaseLibraryLicense is a paid mutator transaction binding the contract
// method purchaseLibraryLicense(string). The license fee is carried in
// opts.Value.
func (t *RegistryTransactor) PurchaseLibraryLicense(opts *bind.TransactOpts, name string) (*types.Transaction, error) {
	return t.contract.Transact(opts, "purchaseLibraryLicense", name)
}

// TransferOwnership is a paid mutator transaction binding the contract method
// transferOwnership(address).
func (t *RegistryTransactor) TransferOwnership(opts *bind.TransactOpts, newOwner common.Address) (*types.Transaction, error) {
	return t.contract.Transact(opts, "transferOwnership", newOwner)
}
