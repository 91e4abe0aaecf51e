// Package main assembles the tpkm command line tool: a decentralized
// package manager whose registry lives on an EVM contract and whose
// artifacts live on IPFS.
package main

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/cmd/tpkm/library"
	netconfcmd "github.com/tacopkm/tpkm/cmd/tpkm/netconf"
	"github.com/tacopkm/tpkm/cmd/tpkm/wallet"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/runtime/version"
)

var log = logrus.WithField("prefix", "main")

var au = aurora.NewAurora(true)

func main() {
	app := &cli.App{
		Name:    "tpkm",
		Usage:   "decentralized package manager backed by an EVM registry and IPFS",
		Version: version.GetVersion(),
		Flags:   []cli.Flag{flags.VerbosityFlag},
		Before: func(cliCtx *cli.Context) error {
			formatter := new(prefixed.TextFormatter)
			formatter.TimestampFormat = "2006-01-02 15:04:05"
			formatter.FullTimestamp = true
			logrus.SetFormatter(formatter)

			verbosity := cliCtx.String(flags.VerbosityFlag.Name)
			if os.Getenv("DEBUG") != "" {
				verbosity = "debug"
			}
			level, err := logrus.ParseLevel(verbosity)
			if err != nil {
				return errors.Wrapf(err, "invalid verbosity %q", verbosity)
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	app.Commands = append(app.Commands, wallet.Commands, netconfcmd.Commands)
	app.Commands = append(app.Commands, library.Commands...)

	if err := app.Run(os.Args); err != nil {
		renderError(err)
		os.Exit(1)
	}
}

// renderError is the single rendering point for every command failure: one
// classified line, an optional hint, and the full cause chain only under
// DEBUG.
func renderError(err error) {
	classified := errutil.Classify(err)
	fmt.Fprintf(os.Stderr, "%s %s\n", au.BrightRed("["+string(classified.Kind)+"]"), err.Error())
	if classified.Hint != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", au.BrightCyan("hint:"), classified.Hint)
	}
	if os.Getenv("DEBUG") != "" {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}
}
