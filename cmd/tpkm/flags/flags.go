// Package flags defines every command-line flag the tpkm binary accepts.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// VerbosityFlag sets the logging level.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "logging verbosity (trace, debug, info, warn, error, fatal)",
		Value: "info",
	}
	// PasswordFlag supplies the wallet password non-interactively.
	PasswordFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "wallet password (prefer the TPKM_WALLET_PASSWORD variable or the interactive prompt)",
	}
	// RPCFlag is the RPC URL of a network profile being added.
	RPCFlag = &cli.StringFlag{
		Name:     "rpc",
		Usage:    "JSON-RPC endpoint URL (http, https, ws or wss)",
		Required: true,
	}
	// ContractFlag is the registry address of a network profile being added.
	ContractFlag = &cli.StringFlag{
		Name:     "contract",
		Usage:    "registry contract address on that network",
		Required: true,
	}
	// SetActiveFlag marks a newly added profile as the active one.
	SetActiveFlag = &cli.BoolFlag{
		Name:  "set-active",
		Usage: "make this profile the active network",
	}
	// DescriptionFlag describes a library at registration time.
	DescriptionFlag = &cli.StringFlag{
		Name:  "description",
		Usage: "short human-readable description of the library",
	}
	// TagsFlag is a comma-separated tag list for registration.
	TagsFlag = &cli.StringFlag{
		Name:  "tags",
		Usage: "comma-separated display tags",
	}
	// LanguageFlag names the library's implementation language.
	LanguageFlag = &cli.StringFlag{
		Name:  "language",
		Usage: "implementation language of the library",
	}
	// PrivateFlag registers the library as private.
	PrivateFlag = &cli.BoolFlag{
		Name:  "private",
		Usage: "restrict reads to addresses the owner authorizes",
	}
	// VersionsFlag includes the version list in the info view.
	VersionsFlag = &cli.BoolFlag{
		Name:  "versions",
		Usage: "list all published versions",
	}
	// VersionFlag overrides the manifest version on publish.
	VersionFlag = &cli.StringFlag{
		Name:  "version",
		Usage: "publish under this version instead of the one in lib.config.json",
	}
	// FeeFlag is the license fee for set-license.
	FeeFlag = &cli.StringFlag{
		Name:  "fee",
		Usage: "license fee as '<amount> <unit>' with unit eth, ether, gwei or wei (e.g. '0.01 eth'); '0' or 'none' clears it",
		Value: "0",
	}
	// RequiredFlag toggles the license requirement for set-license.
	RequiredFlag = &cli.BoolFlag{
		Name:  "required",
		Usage: "require a license to read the library",
	}
	// AmountFlag overrides the payment on purchase-license.
	AmountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "amount to send instead of the on-chain fee, as '<amount> <unit>'",
	}
	// BurnAddressFlag is the recipient for abandon-registry.
	BurnAddressFlag = &cli.StringFlag{
		Name:  "burn-address",
		Usage: "address the registry ownership is transferred to",
		Value: "0x000000000000000000000000000000000000dEaD",
	}
)
