package library

import (
	"fmt"
	"io"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/cmd/tpkm/cliutil"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/libref"
	"github.com/tacopkm/tpkm/resolver"
)

const installRootName = resolver.DefaultRoot

func install(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm install <name>[@<version>]")
	}
	name, version, err := libref.ParseRef(cliCtx.Args().First())
	if err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}

	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	ip, err := c.ConnectIPFS(cliCtx.Context)
	if err != nil {
		return err
	}

	inst := &resolver.Installer{
		Registry:  c,
		Artifacts: ip,
		Root:      installRootName,
		Caller:    cliutil.WalletAddress(),
		Progress:  downloadProgress,
	}
	resolved, err := inst.Install(cliCtx.Context, name, version)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(resolved))
	for n := range resolved {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Printf("Installed %d librar%s:\n", len(names), pluralYies(len(names)))
	for _, n := range names {
		fmt.Printf("  %s@%s\n", n, resolved[n])
	}
	return nil
}

// downloadProgress renders an indeterminate byte counter per download; the
// archive length is unknown until the IPFS stream ends.
func downloadProgress(label string) io.Writer {
	return progressbar.DefaultBytes(-1, label)
}

func pluralYies(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
