package library

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/tacopkm/tpkm/client"
	"github.com/tacopkm/tpkm/cmd/tpkm/cliutil"
	"github.com/tacopkm/tpkm/cmd/tpkm/flags"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/io/prompt"
	"github.com/tacopkm/tpkm/libref"
)

func deprecate(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm deprecate <name>@<version>")
	}
	name, version, err := libref.ParseRef(cliCtx.Args().First())
	if err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	if version == "" {
		return errutil.New(errutil.KindValidation, "deprecate needs an explicit version, e.g. mylib@1.2.0")
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
	if err := requireOwnership(cliCtx, c, name, signer); err != nil {
		return err
	}

	ok, err := prompt.Confirm(fmt.Sprintf("Mark %s@%s as deprecated", name, version))
	if err != nil {
		return err
	}
	if !ok {
		return cliutil.ErrAborted
	}
	txHash, err := c.DeprecateVersion(cliCtx.Context, name, version)
	if err != nil {
		return err
	}
	log.Infof("Deprecated %s@%s (tx %s)", name, version, txHash.Hex())
	return nil
}

func authorize(cliCtx *cli.Context) error {
	name, user, err := nameAndAddressArgs(cliCtx, "authorize")
	if err != nil {
		return err
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
	info, err := c.LibraryInfo(cliCtx.Context, name)
	if err != nil {
		return err
	}
	if info.Owner != signer {
		return errutil.Newf(errutil.KindPermission,
			"library %q is owned by %s, not by your wallet", name, info.Owner.Hex())
	}
	if !info.IsPrivate {
		return errutil.Newf(errutil.KindPolicy,
			"library %q is public: authorization only applies to private libraries", name)
	}
	if user == signer {
		return errutil.New(errutil.KindPermission, "the owner always has access and cannot be authorized")
	}
	txHash, err := c.AuthorizeUser(cliCtx.Context, name, user)
	if err != nil {
		return err
	}
	log.Infof("Authorized %s on %q (tx %s)", user.Hex(), name, txHash.Hex())
	return nil
}

func revoke(cliCtx *cli.Context) error {
	name, user, err := nameAndAddressArgs(cliCtx, "revoke")
	if err != nil {
		return err
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
	info, err := c.LibraryInfo(cliCtx.Context, name)
	if err != nil {
		return err
	}
	if info.Owner != signer {
		return errutil.Newf(errutil.KindPermission,
			"library %q is owned by %s, not by your wallet", name, info.Owner.Hex())
	}
	if user == signer {
		return errutil.New(errutil.KindPermission, "the owner's access cannot be revoked")
	}
	txHash, err := c.RevokeAuthorization(cliCtx.Context, name, user)
	if err != nil {
		return err
	}
	log.Infof("Revoked %s on %q (tx %s)", user.Hex(), name, txHash.Hex())
	return nil
}

func deleteLibrary(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errutil.New(errutil.KindValidation, "usage: tpkm delete <name>")
	}
	name := cliCtx.Args().First()
	if err := libref.ValidateName(name); err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
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
	if err := requireOwnership(cliCtx, c, name, signer); err != nil {
		return err
	}

	// UX pre-check only; the contract guard on published versions is
	// authoritative.
	versions, err := c.VersionNumbers(cliCtx.Context, name)
	if err != nil {
		return err
	}
	if len(versions) > 0 {
		return errutil.Newf(errutil.KindPolicy,
			"library %q still has %d published version(s); deletion requires none", name, len(versions))
	}

	log.Warnf("Deleting %q removes its registry record permanently", name)
	if _, err := prompt.ValidatePrompt(os.Stdin, "Type 'yes' to continue", func(input string) error {
		return prompt.ValidatePhrase(input, "yes")
	}); err != nil {
		return err
	}
	if _, err := prompt.ValidatePrompt(os.Stdin, fmt.Sprintf("Type the library name (%s) to confirm", name), func(input string) error {
		return prompt.ValidatePhrase(input, name)
	}); err != nil {
		return err
	}

	txHash, err := c.DeleteLibrary(cliCtx.Context, name)
	if err != nil {
		return err
	}
	log.Infof("Deleted library %q (tx %s)", name, txHash.Hex())
	return nil
}

const abandonPhrase = "abandon the registry"

func abandonRegistry(cliCtx *cli.Context) error {
	burn := cliCtx.String(flags.BurnAddressFlag.Name)
	if !common.IsHexAddress(burn) {
		return errutil.Newf(errutil.KindValidation, "invalid burn address %q", burn)
	}
	burnAddr := common.HexToAddress(burn)

	c, err := cliutil.EnsureNetwork(cliCtx.Context)
	if err != nil {
		return err
	}
	defer c.Close()
	signer, err := cliutil.LoadWallet(cliCtx, c)
	if err != nil {
		return err
	}
	owner, err := c.RegistryOwner(cliCtx.Context)
	if err != nil {
		return err
	}
	if owner != signer {
		return errutil.Newf(errutil.KindPermission,
			"the registry contract is owned by %s, not by your wallet", owner.Hex())
	}

	log.Warnf("This transfers ownership of the registry contract at %s to %s. Nobody can undo it.",
		c.ContractAddress().Hex(), burnAddr.Hex())
	ok, err := prompt.Confirm("Do you understand the consequences")
	if err != nil {
		return err
	}
	if !ok {
		return cliutil.ErrAborted
	}
	if _, err := prompt.ValidatePrompt(os.Stdin, fmt.Sprintf("Type '%s' to proceed", abandonPhrase), func(input string) error {
		return prompt.ValidatePhrase(input, abandonPhrase)
	}); err != nil {
		return err
	}

	txHash, err := c.TransferOwnership(cliCtx.Context, burnAddr)
	if err != nil {
		return err
	}
	log.Infof("Registry ownership transferred to %s (tx %s)", burnAddr.Hex(), txHash.Hex())
	return nil
}

func nameAndAddressArgs(cliCtx *cli.Context, verb string) (string, common.Address, error) {
	if cliCtx.NArg() != 2 {
		return "", common.Address{}, errutil.Newf(errutil.KindValidation,
			"usage: tpkm %s <name> <userAddress>", verb)
	}
	name := cliCtx.Args().Get(0)
	if err := libref.ValidateName(name); err != nil {
		return "", common.Address{}, errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	raw := cliCtx.Args().Get(1)
	if !common.IsHexAddress(raw) {
		return "", common.Address{}, errutil.Newf(errutil.KindValidation, "invalid address %q", raw)
	}
	return name, common.HexToAddress(raw), nil
}

func requireOwnership(cliCtx *cli.Context, c *client.Client, name string, signer common.Address) error {
	info, err := c.LibraryInfo(cliCtx.Context, name)
	if err != nil {
		return err
	}
	if info.Owner != signer {
		return errutil.Newf(errutil.KindPermission,
			"library %q is owned by %s, not by your wallet", name, info.Owner.Hex())
	}
	return nil
}
