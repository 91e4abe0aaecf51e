// Package client owns the connection to the configured network: the RPC
// handle, the registry contract bindings at the effective address, and,
// once a wallet is loaded, the signing surface. Every contract call the
// rest of tpkm makes goes through this package so failures are classified
// exactly once, at this boundary.
package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/ipfs"
	"github.com/tacopkm/tpkm/keystore"
	"github.com/tacopkm/tpkm/netconf"
)

var log = logrus.WithField("prefix", "client")

// Client is a live connection to one network profile. The zero value is not
// usable; construct with Dial.
type Client struct {
	eth          *ethclient.Client
	chainID      *big.Int
	contractAddr common.Address
	endpoints    netconf.Endpoints

	reader *registry.RegistryCaller
	writer *registry.RegistryTransactor
	signer *keystore.Signer
	txOpts *bind.TransactOpts
}

// Dial connects to the RPC endpoint, probes it with a chain-id query, and
// binds the registry contract at the configured address. The probe doubles
// as the reachability check every chain-touching command needs up front.
func Dial(ctx context.Context, eps netconf.Endpoints) (*Client, error) {
	if !common.IsHexAddress(eps.ContractAddress) {
		return nil, errutil.Newf(errutil.KindValidation, "invalid contract address %q", eps.ContractAddress)
	}
	rpcClient, err := rpc.DialContext(ctx, eps.RPCURL)
	if err != nil {
		return nil, errutil.Wrapf(err, errutil.KindRPCUnreachable,
			"could not connect to RPC endpoint %s", eps.RPCURL)
	}
	eth := ethclient.NewClient(rpcClient)
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, errutil.Wrapf(err, errutil.KindRPCUnreachable,
			"RPC endpoint %s is not responding", eps.RPCURL).
			WithHint("check the rpcUrl of the active network profile or the RPC_URL variable")
	}
	addr := common.HexToAddress(eps.ContractAddress)
	code, err := eth.CodeAt(ctx, addr, nil)
	if err == nil && len(code) == 0 {
		log.Warnf("No contract code at %s on chain %s; calls will fail until the address is corrected", addr.Hex(), chainID)
	}
	bound, err := registry.NewRegistry(addr, eth)
	if err != nil {
		eth.Close()
		return nil, errutil.Wrap(err, errutil.KindUnknown, "could not bind registry contract")
	}
	log.Debugf("Connected to %s (chain %s), registry at %s, via %s", eps.RPCURL, chainID, addr.Hex(), eps.Source)
	return &Client{
		eth:          eth,
		chainID:      chainID,
		contractAddr: addr,
		endpoints:    eps,
		reader:       &bound.RegistryCaller,
		writer:       &bound.RegistryTransactor,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// ChainID returns the connected chain's id.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// ContractAddress returns the canonicalized registry address in use.
func (c *Client) ContractAddress() common.Address {
	return c.contractAddr
}

// Endpoints returns the resolved configuration this client was dialed with.
func (c *Client) Endpoints() netconf.Endpoints {
	return c.endpoints
}

// ConnectIPFS opens and probes the IPFS endpoint from the same resolved
// configuration. The probe failing is fatal for the calling command.
func (c *Client) ConnectIPFS(ctx context.Context) (*ipfs.Client, error) {
	ip := ipfs.New(c.endpoints.IPFSURL)
	if err := ip.Probe(ctx); err != nil {
		return nil, err
	}
	return ip, nil
}

// LoadWallet attaches a decrypted signer, enabling the write surface.
func (c *Client) LoadWallet(signer *keystore.Signer) error {
	opts, err := signer.TransactOpts(c.chainID)
	if err != nil {
		return err
	}
	c.signer = signer
	c.txOpts = opts
	return nil
}

// SignerAddress returns the loaded wallet's address, when one is loaded.
func (c *Client) SignerAddress() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return c.signer.Address(), true
}

// Balance returns the current balance of addr in wei.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, errutil.Classify(err)
	}
	return bal, nil
}

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// LibraryInfo reads the on-chain record for name.
func (c *Client) LibraryInfo(ctx context.Context, name string) (registry.LibraryInfo, error) {
	info, err := c.reader.GetLibraryInfo(callOpts(ctx), name)
	if err != nil {
		return registry.LibraryInfo{}, errutil.Classify(err)
	}
	return info, nil
}

// VersionNumbers reads the published versions of name in registry order.
func (c *Client) VersionNumbers(ctx context.Context, name string) ([]string, error) {
	versions, err := c.reader.GetVersionNumbers(callOpts(ctx), name)
	if err != nil {
		return nil, errutil.Classify(err)
	}
	return versions, nil
}

// VersionInfo reads the record for one (name, version).
func (c *Client) VersionInfo(ctx context.Context, name, version string) (registry.VersionInfo, error) {
	info, err := c.reader.GetVersionInfo(callOpts(ctx), name, version)
	if err != nil {
		return registry.VersionInfo{}, errutil.Classify(err)
	}
	return info, nil
}

// HasAccess asks the contract whether user may read name.
func (c *Client) HasAccess(ctx context.Context, name string, user common.Address) (bool, error) {
	ok, err := c.reader.HasAccess(callOpts(ctx), name, user)
	if err != nil {
		return false, errutil.Classify(err)
	}
	return ok, nil
}

// HasUserLicense asks the contract whether user holds a license on name.
func (c *Client) HasUserLicense(ctx context.Context, name string, user common.Address) (bool, error) {
	ok, err := c.reader.HasUserLicense(callOpts(ctx), name, user)
	if err != nil {
		return false, errutil.Classify(err)
	}
	return ok, nil
}

// AllLibraryNames enumerates every registered library. On a large registry
// this is a heavy call; it is best effort and may be slow.
func (c *Client) AllLibraryNames(ctx context.Context) ([]string, error) {
	log.Debug("Enumerating all registry names; this may be slow on large registries")
	names, err := c.reader.GetAllLibraryNames(callOpts(ctx))
	if err != nil {
		return nil, errutil.Classify(err)
	}
	return names, nil
}

// RegistryOwner returns the contract-level owner address.
func (c *Client) RegistryOwner(ctx context.Context) (common.Address, error) {
	owner, err := c.reader.Owner(callOpts(ctx))
	if err != nil {
		return common.Address{}, errutil.Classify(err)
	}
	return owner, nil
}

// transact submits one write through fn and waits for it to be mined,
// returning the transaction hash. One confirmation is the success bar for
// every mutation tpkm performs.
func (c *Client) transact(ctx context.Context, value *big.Int, fn func(*bind.TransactOpts) (*types.Transaction, error)) (common.Hash, error) {
	if c.signer == nil {
		return common.Hash{}, errutil.New(errutil.KindAuth, "this operation requires a loaded wallet")
	}
	opts := *c.txOpts
	opts.Context = ctx
	opts.Value = value
	tx, err := fn(&opts)
	if err != nil {
		return common.Hash{}, errutil.Classify(err)
	}
	log.Debugf("Submitted transaction %s, waiting for confirmation", tx.Hash().Hex())
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return tx.Hash(), errutil.Classify(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), errutil.Newf(errutil.KindTx,
			"transaction %s reverted on-chain", tx.Hash().Hex())
	}
	return tx.Hash(), nil
}

// RegisterLibrary registers a new library record owned by the signer.
func (c *Client) RegisterLibrary(ctx context.Context, name, description string, tags []string, language string, isPrivate bool) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.RegisterLibrary(opts, name, description, tags, language, isPrivate)
	})
}

// PublishVersion commits a new version record pointing at cid.
func (c *Client) PublishVersion(ctx context.Context, name, version, cid string, deps []registry.Dependency) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.PublishVersion(opts, name, version, cid, deps)
	})
}

// DeprecateVersion marks one published version deprecated.
func (c *Client) DeprecateVersion(ctx context.Context, name, version string) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.DeprecateVersion(opts, name, version)
	})
}

// AuthorizeUser grants user read access to a private library.
func (c *Client) AuthorizeUser(ctx context.Context, name string, user common.Address) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.AuthorizeUser(opts, name, user)
	})
}

// RevokeAuthorization removes user's access to a private library.
func (c *Client) RevokeAuthorization(ctx context.Context, name string, user common.Address) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.RevokeAuthorization(opts, name, user)
	})
}

// DeleteLibrary removes a library record with no published versions.
func (c *Client) DeleteLibrary(ctx context.Context, name string) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.DeleteLibrary(opts, name)
	})
}

// SetLibraryLicense updates the fee and requirement flags on a library.
func (c *Client) SetLibraryLicense(ctx context.Context, name string, fee *big.Int, required bool) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.SetLibraryLicense(opts, name, fee, required)
	})
}

// PurchaseLibraryLicense buys a license for the signer, sending value wei.
func (c *Client) PurchaseLibraryLicense(ctx context.Context, name string, value *big.Int) (common.Hash, error) {
	return c.transact(ctx, value, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.PurchaseLibraryLicense(opts, name)
	})
}

// TransferOwnership hands the registry contract to newOwner.
func (c *Client) TransferOwnership(ctx context.Context, newOwner common.Address) (common.Hash, error) {
	return c.transact(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.writer.TransferOwnership(opts, newOwner)
	})
}
