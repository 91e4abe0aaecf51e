package library

import (
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/cmd/tpkm/cliutil"
	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/publisher"
)

func publish(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm publish <directory>")
	}
	dir := cliCtx.Args().First()

	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	signer, err := cliutil.LoadWallet(cliCtx, c)
	if err != nil {
		return err
	}
	ip, err := c.ConnectIPFS(cliCtx.Context)
	if err != nil {
		return err
	}

	pub := &publisher.Publisher{Registry: c, Artifacts: ip, Signer: signer}
	result, err := pub.Publish(cliCtx.Context, dir, cliCtx.String(flags.VersionFlag.Name))
	if err != nil {
		return err
	}
	log.Infof("Published %s@%s as %s (tx %s)", result.Name, result.Version, result.CID, result.TxHash.Hex())
	return nil
}
