// Package wallet defines the tpkm wallet subcommands.
package wallet

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/cmd/tpkm/cliutil"
	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/io/prompt"
	"github.com/tacopkm/tpkm/keystore"
	"github.com/tacopkm/tpkm/licensing"
)

var log = logrus.WithField("prefix", "wallet")

// Commands for the local encrypted wallet.
var Commands = &cli.Command{
	Name:     "wallet",
	Category: "wallet",
	Usage:    "manage the local encrypted wallet used to sign registry transactions",
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "generate a new key and store it encrypted under a password",
			Flags:  []cli.Flag{flags.PasswordFlag},
			Action: create,
		},
		{
			Name:      "import",
			Usage:     "import an existing private key and store it encrypted under a password",
			ArgsUsage: "<privateKey>",
			Flags:     []cli.Flag{flags.PasswordFlag},
			Action:    importKey,
		},
		{
			Name:   "address",
			Usage:  "print the wallet address",
			Flags:  []cli.Flag{flags.PasswordFlag},
			Action: address,
		},
		{
			Name:   "balance",
			Usage:  "print the wallet's balance on the active network",
			Action: balance,
		},
	},
}

func confirmOverwrite(store *keystore.Store) error {
	if !store.Exists() {
		return nil
	}
	log.Warnf("A wallet already exists at %s; overwriting destroys its key forever", store.Path())
	ok, err := prompt.Confirm("Overwrite the existing wallet")
	if err != nil {
		return err
	}
	if !ok {
		return cliutil.ErrAborted
	}
	return nil
}

func create(cliCtx *cli.Context) error {
	store, err := keystore.NewStore()
	if err != nil {
		return err
	}
	if err := confirmOverwrite(store); err != nil {
		return err
	}
	pw, err := cliutil.Password(cliCtx, true)
	if err != nil {
		return err
	}
	addr, err := store.Create(pw)
	if err != nil {
		return err
	}
	log.Infof("Created wallet %s at %s", addr.Hex(), store.Path())
	fmt.Println(addr.Hex())
	return nil
}

func importKey(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm wallet import <privateKey>")
	}
	store, err := keystore.NewStore()
	if err != nil {
		return err
	}
	if err := confirmOverwrite(store); err != nil {
		return err
	}
	pw, err := cliutil.Password(cliCtx, true)
	if err != nil {
		return err
	}
	addr, err := store.Import(cliCtx.Args().First(), pw)
	if err != nil {
		return err
	}
	log.Infof("Imported wallet %s at %s", addr.Hex(), store.Path())
	fmt.Println(addr.Hex())
	return nil
}

func address(cliCtx *cli.Context) error {
	store, err := keystore.NewStore()
	if err != nil {
		return err
	}
	pw, err := cliutil.Password(cliCtx, false)
	if err != nil {
		return err
	}
	signer, err := store.Decrypt(pw)
	if err != nil {
		return err
	}
	fmt.Println(signer.Address().Hex())
	return nil
}

func balance(cliCtx *cli.Context) error {
	store, err := keystore.NewStore()
	if err != nil {
		return err
	}
	addr, err := store.Address()
	if err != nil {
		return err
	}
	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	bal, err := c.Balance(cliCtx.Context, addr)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", addr.Hex(), licensing.FormatWei(bal))
	return nil
}
