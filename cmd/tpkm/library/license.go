package library

import (
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/cmd/tpkm/cliutil"
	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/libref"
	"github.com/tacopkm/tpkm/licensing"
)

func setLicense(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm set-license <name> --fee '<amount> <unit>' [--required]")
	}
	name := cliCtx.Args().First()
	if err := libref.ValidateName(name); err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	fee, err := licensing.ParseFee(cliCtx.String(flags.FeeFlag.Name))
	if err != nil {
		return err
	}
	required := cliCtx.Bool(flags.RequiredFlag.Name)

	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	signer, err := cliutil.LoadWallet(cliCtx, c)
	if err != nil {
		return err
	}
	txHash, err := licensing.SetLicense(cliCtx.Context, c, name, signer, fee, required)
	if err != nil {
		return err
	}
	log.Infof("License terms on %q set to fee %s, required=%t (tx %s)",
		name, licensing.FormatWei(fee), required, txHash.Hex())
	return nil
}

func purchaseLicense(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm purchase-license <name>")
	}
	name := cliCtx.Args().First()
	if err := libref.ValidateName(name); err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	var amount *big.Int
	if cliCtx.IsSet(flags.AmountFlag.Name) {
		parsed, err := licensing.ParseFee(cliCtx.String(flags.AmountFlag.Name))
		if err != nil {
			return err
		}
		amount = parsed
	}

	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	signer, err := cliutil.LoadWallet(cliCtx, c)
	if err != nil {
		return err
	}
	txHash, paid, err := licensing.Purchase(cliCtx.Context, c, name, signer, amount)
	if err != nil {
		return err
	}
	log.Infof("Purchased a license for %q for %s (tx %s)", name, licensing.FormatWei(paid), txHash.Hex())
	return nil
}
