// Package cliutil carries the plumbing shared by every tpkm command:
// resolving the network configuration into a live client, loading and
// decrypting the wallet, and sourcing the wallet password from the
// environment, a flag, or an interactive prompt, in that order.
package cliutil

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/client"
	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/io/prompt"
	"github.com/tacopkm/tpkm/keystore"
	"github.com/tacopkm/tpkm/netconf"
)

// PasswordEnvVar supplies the wallet password non-interactively.
const PasswordEnvVar = "TPKM_WALLET_PASSWORD"

// ErrAborted is returned when the user declines a confirmation. It still
// exits non-zero: a declined destructive action is an abort, not a success.
var ErrAborted = errors.New("aborted")

// EnsureNetwork resolves the effective endpoints and dials the chain.
func EnsureNetwork(ctx context.Context) (*client.Client, error) {
	store, err := netconf.NewStore()
	if err != nil {
		return nil, err
	}
	eps, err := store.Resolve()
	if err != nil {
		return nil, err
	}
	return client.Dial(ctx, eps)
}

// Password resolves the wallet password: TPKM_WALLET_PASSWORD, then the
// --password flag, then an interactive prompt. When confirmNew is set the
// prompt asks twice and requires both entries to match, for create/import.
func Password(cliCtx *cli.Context, confirmNew bool) (string, error) {
	if pw, ok := os.LookupEnv(PasswordEnvVar); ok {
		if pw == "" {
			return "", errutil.Newf(errutil.KindAuth, "%s is set but empty", PasswordEnvVar)
		}
		return pw, nil
	}
	if cliCtx.IsSet(flags.PasswordFlag.Name) {
		pw := cliCtx.String(flags.PasswordFlag.Name)
		if pw == "" {
			return "", errutil.New(errutil.KindAuth, "--password cannot be empty")
		}
		return pw, nil
	}
	pw, err := prompt.PasswordPrompt("Wallet password", prompt.NotEmpty)
	if err != nil {
		return "", errors.Wrap(err, "could not read password")
	}
	if confirmNew {
		again, err := prompt.PasswordPrompt("Confirm wallet password", prompt.NotEmpty)
		if err != nil {
			return "", errors.Wrap(err, "could not read password confirmation")
		}
		if pw != again {
			return "", errutil.New(errutil.KindAuth, "passwords do not match")
		}
	}
	return pw, nil
}

// LoadWallet decrypts the keystore and attaches the signer to c, returning
// the signer address.
func LoadWallet(cliCtx *cli.Context, c *client.Client) (common.Address, error) {
	store, err := keystore.NewStore()
	if err != nil {
		return common.Address{}, err
	}
	pw, err := Password(cliCtx, false)
	if err != nil {
		return common.Address{}, err
	}
	signer, err := store.Decrypt(pw)
	if err != nil {
		return common.Address{}, err
	}
	if err := c.LoadWallet(signer); err != nil {
		return common.Address{}, err
	}
	return signer.Address(), nil
}

// WalletAddress returns the keystore address without decrypting, when a
// keystore exists. Commands that only gate on identity (install, info) use
// this so they never prompt for a password.
func WalletAddress() *common.Address {
	store, err := keystore.NewStore()
	if err != nil || !store.Exists() {
		return nil
	}
	addr, err := store.Address()
	if err != nil {
		return nil
	}
	return &addr
}
