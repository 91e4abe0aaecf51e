// Package netconf defines the tpkm config subcommands for managing network
// profiles.
package netconf

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/netconf"
)

var log = logrus.WithField("prefix", "config")

var au = aurora.NewAurora(true)

// Commands for network profile management.
var Commands = &cli.Command{
	Name:     "config",
	Category: "network",
	Usage:    "manage named network profiles (RPC endpoint + registry contract)",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "add or update a named network profile",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{flags.RPCFlag, flags.ContractFlag, flags.SetActiveFlag},
			Action:    add,
		},
		{
			Name:      "set-active",
			Usage:     "select the profile all network commands use",
			ArgsUsage: "<name>",
			Action:    setActive,
		},
		{
			Name:   "list",
			Usage:  "list configured network profiles",
			Action: list,
		},
		{
			Name:      "show",
			Usage:     "show one profile, or the active one when no name is given",
			ArgsUsage: "[name]",
			Action:    show,
		},
		{
			Name:      "remove",
			Usage:     "remove a network profile",
			ArgsUsage: "<name>",
			Action:    remove,
		},
	},
}

func add(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm config add <name> --rpc <url> --contract <address>")
	}
	name := cliCtx.Args().First()
	store, err := netconf.NewStore()
	if err != nil {
		return err
	}
	setActive := cliCtx.Bool(flags.SetActiveFlag.Name)
	if err := store.Add(name, cliCtx.String(flags.RPCFlag.Name), cliCtx.String(flags.ContractFlag.Name), setActive); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	log.Infof("Saved network profile %q", name)
	if setActive {
		log.Infof("%q is now the active network", name)
	}
	return nil
}

func setActive(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm config set-active <name>")
	}
	name := cliCtx.Args().First()
	store, err := netconf.NewStore()
	if err != nil {
		return err
	}
	if err := store.SetActive(name); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	log.Infof("%q is now the active network", name)
	return nil
}

func list(cliCtx *cli.Context) error {
	store, err := netconf.NewStore()
	if err != nil {
		return err
	}
	names := store.Names()
	if len(names) == 0 {
		fmt.Println("No network profiles configured. Add one with 'tpkm config add'.")
		return nil
	}
	for _, name := range names {
		marker := "  "
		if name == store.Active() {
			marker = au.BrightGreen("* ").String()
		}
		fmt.Printf("%s%s\n", marker, name)
	}
	return nil
}

func show(cliCtx *cli.Context) error {
	store, err := netconf.NewStore()
	if err != nil {
		return err
	}
	name := cliCtx.Args().First()
	if name == "" {
		name = store.Active()
		if name == "" {
			return errutil.New(errutil.KindConfigMissing, "no active network profile").
				WithHint("run 'tpkm config set-active <name>' or pass a profile name")
		}
	}
	p, ok := store.Get(name)
	if !ok {
		return errutil.Newf(errutil.KindNotFound, "no network profile named %q", name)
	}
	fmt.Printf("%s\n  rpcUrl:          %s\n  contractAddress: %s\n", au.Bold(name), p.RPCURL, p.ContractAddress)
	if name == store.Active() {
		fmt.Println("  active:          yes")
	}
	return nil
}

func remove(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm config remove <name>")
	}
	name := cliCtx.Args().First()
	store, err := netconf.NewStore()
	if err != nil {
		return err
	}
	wasActive, err := store.Remove(name)
	if err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	log.Infof("Removed network profile %q", name)
	if wasActive {
		log.Warn("The removed profile was active; no network is selected until you set a new one")
	}
	return nil
}
