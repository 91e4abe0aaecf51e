// Package library defines the registry-facing tpkm verbs: initializing and
// registering libraries, browsing them, publishing and installing versions,
// and the owner-side administration commands.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/cmd/tpkm/cliutil"
	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/describe"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/io/prompt"
	"github.com/tacopkm/tpkm/libref"
	"github.com/tacopkm/tpkm/publisher"
)

var log = logrus.WithField("prefix", "library")

// Commands are the top-level registry verbs.
var Commands = []*cli.Command{
	{
		Name:     "init",
		Category: "library",
		Usage:    "create a lib.config.json template in the current directory",
		Action:   initConfig,
	},
	{
		Name:      "register",
		Category:  "library",
		Usage:     "register a new library name owned by your wallet",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			flags.DescriptionFlag,
			flags.TagsFlag,
			flags.LanguageFlag,
			flags.PrivateFlag,
			flags.PasswordFlag,
		},
		Action: register,
	},
	{
		Name:     "list",
		Category: "library",
		Usage:    "list every library on the registry (may be slow on large registries)",
		Action:   list,
	},
	{
		Name:      "info",
		Category:  "library",
		Usage:     "show a library's record, your access to it, and optionally one version",
		ArgsUsage: "<name>[@<version>]",
		Flags:     []cli.Flag{flags.VersionsFlag},
		Action:    info,
	},
	{
		Name:      "publish",
		Category:  "library",
		Usage:     "archive a directory, upload it to IPFS, and publish the version on-chain",
		ArgsUsage: "<directory>",
		Flags:     []cli.Flag{flags.VersionFlag, flags.PasswordFlag},
		Action:    publish,
	},
	{
		Name:      "install",
		Category:  "library",
		Usage:     "resolve and install a library and its dependencies into ./" + installRootName,
		ArgsUsage: "<name>[@<version>]",
		Action:    install,
	},
	{
		Name:      "deprecate",
		Category:  "owner",
		Usage:     "mark one published version as deprecated",
		ArgsUsage: "<name>@<version>",
		Flags:     []cli.Flag{flags.PasswordFlag},
		Action:    deprecate,
	},
	{
		Name:      "authorize",
		Category:  "owner",
		Usage:     "grant an address read access to your private library",
		ArgsUsage: "<name> <userAddress>",
		Flags:     []cli.Flag{flags.PasswordFlag},
		Action:    authorize,
	},
	{
		Name:      "revoke",
		Category:  "owner",
		Usage:     "revoke an address's access to your private library",
		ArgsUsage: "<name> <userAddress>",
		Flags:     []cli.Flag{flags.PasswordFlag},
		Action:    revoke,
	},
	{
		Name:      "set-license",
		Category:  "owner",
		Usage:     "set the license fee and requirement on your library",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{flags.FeeFlag, flags.RequiredFlag, flags.PasswordFlag},
		Action:    setLicense,
	},
	{
		Name:      "purchase-license",
		Category:  "library",
		Usage:     "buy a license for a license-gated library",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{flags.AmountFlag, flags.PasswordFlag},
		Action:    purchaseLicense,
	},
	{
		Name:      "delete",
		Category:  "owner",
		Usage:     "delete a library record that has no published versions",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{flags.PasswordFlag},
		Action:    deleteLibrary,
	},
	{
		Name:     "abandon-registry",
		Category: "owner",
		Usage:    "transfer ownership of the registry contract away, irreversibly",
		Flags:    []cli.Flag{flags.BurnAddressFlag, flags.PasswordFlag},
		Action:   abandonRegistry,
	},
}

func initConfig(cliCtx *cli.Context) error {
	path := publisher.ConfigFileName
	if _, err := os.Stat(path); err == nil {
		ok, err := prompt.Confirm(path + " already exists, overwrite")
		if err != nil {
			return err
		}
		if !ok {
			return cliutil.ErrAborted
		}
	}

	defaultName := strings.ToLower(filepath.Base(mustGetwd()))
	name, err := prompt.DefaultPrompt("Library name", defaultName)
	if err != nil {
		return err
	}
	if err := libref.ValidateName(name); err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	version, err := prompt.DefaultPrompt("Initial version", "0.1.0")
	if err != nil {
		return err
	}
	if err := libref.ValidateVersion(version); err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	description, err := prompt.DefaultPrompt("Description", "")
	if err != nil {
		return err
	}

	template := map[string]interface{}{
		"name":         name,
		"version":      version,
		"description":  description,
		"language":     "",
		"dependencies": map[string]string{},
	}
	out, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return err
	}
	log.Infof("Wrote %s", path)
	return nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "library"
	}
	return wd
}

func register(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm register <name>")
	}
	name := cliCtx.Args().First()
	if err := libref.ValidateName(name); err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	var tags []string
	if raw := cliCtx.String(flags.TagsFlag.Name); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	if _, err := cliutil.LoadWallet(cliCtx, c); err != nil {
		return err
	}
	txHash, err := c.RegisterLibrary(
		cliCtx.Context,
		name,
		cliCtx.String(flags.DescriptionFlag.Name),
		tags,
		cliCtx.String(flags.LanguageFlag.Name),
		cliCtx.Bool(flags.PrivateFlag.Name),
	)
	if err != nil {
		return err
	}
	log.Infof("Registered library %q (tx %s)", name, txHash.Hex())
	return nil
}

func list(cliCtx *cli.Context) error {
	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	names, err := c.AllLibraryNames(cliCtx.Context)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("The registry has no libraries yet.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func info(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm info <name>[@<version>]")
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

	view, err := describe.Build(cliCtx.Context, c, name, version, cliutil.WalletAddress(), cliCtx.Bool(flags.VersionsFlag.Name))
	if err != nil {
		return err
	}
	describe.Render(os.Stdout, view, true)
	return nil
}
