// Package resolver turns one requested library into a fully installed
// dependency tree. Resolution is depth-first and strictly sequential: the
// resolved set doubles as the conflict oracle, so every decision must be
// visible before the next node is examined. Already-extracted version
// directories are reused as a best-effort cache.
package resolver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tacopkm/tpkm/access"
	"github.com/tacopkm/tpkm/archive"
	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/libref"
)

var log = logrus.WithField("prefix", "install")

// DefaultRoot is the directory, relative to the working directory, that
// installed libraries are extracted into.
const DefaultRoot = "tpkm_installed_libs"

// Registry is the read surface resolution needs.
type Registry interface {
	LibraryInfo(ctx context.Context, name string) (registry.LibraryInfo, error)
	VersionNumbers(ctx context.Context, name string) ([]string, error)
	VersionInfo(ctx context.Context, name, version string) (registry.VersionInfo, error)
	HasAccess(ctx context.Context, name string, user common.Address) (bool, error)
	HasUserLicense(ctx context.Context, name string, user common.Address) (bool, error)
}

// Artifacts fetches archive content by CID.
type Artifacts interface {
	Cat(ctx context.Context, cid string) (io.ReadCloser, error)
}

// ProgressFactory builds a sink that download bytes are tee'd into, one per
// library download. Nil means no progress display.
type ProgressFactory func(label string) io.Writer

// Installer resolves and installs dependency trees under Root.
type Installer struct {
	Registry  Registry
	Artifacts Artifacts
	Root      string
	// Caller enables the access gates. Nil means no wallet: only fully
	// open libraries install.
	Caller   *common.Address
	Progress ProgressFactory
}

// Install resolves the requested library (an empty version means "latest
// stable") plus its transitive dependencies and extracts each chosen version
// under Root/<name>/<version>/. The returned map is the resolved set of
// exact versions, one entry per library name.
func (inst *Installer) Install(ctx context.Context, name, version string) (map[string]string, error) {
	if err := libref.ValidateName(name); err != nil {
		return nil, errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	constraint := version
	if constraint == "" {
		available, err := inst.Registry.VersionNumbers(ctx, name)
		if err != nil {
			return nil, err
		}
		latest, err := libref.LatestStable(available)
		if err != nil {
			return nil, errutil.Newf(errutil.KindNotFound,
				"library %q has no stable versions to install", name)
		}
		log.Infof("No version requested for %s, using latest stable %s", name, latest)
		constraint = latest
	}

	if err := inst.gate(ctx, name); err != nil {
		return nil, err
	}

	resolved := map[string]string{}
	pins := map[string]string{}
	if err := inst.resolve(ctx, name, constraint, resolved, pins, true); err != nil {
		return nil, err
	}
	return resolved, nil
}

// gate aborts with the composed denial reason when the caller may not read
// name. Without a wallet the gate is skipped; restricted reads then fail at
// the contract.
func (inst *Installer) gate(ctx context.Context, name string) error {
	if inst.Caller == nil {
		return nil
	}
	decision, err := access.Evaluate(ctx, inst.Registry, name, inst.Caller)
	if err != nil {
		return err
	}
	if !decision.Granted {
		return errutil.New(errutil.KindPermission, decision.DenialReason(name))
	}
	return nil
}

// resolve picks a version of name satisfying constraint, installs it, and
// recurses into its dependencies. The resolved set is updated before any side
// effect so cycles terminate on the second visit; pins remembers the
// constraint that selected each entry so a later conflict can cite both
// sides. gated is set when the caller already ran the access gate on name.
func (inst *Installer) resolve(ctx context.Context, name, constraint string, resolved, pins map[string]string, gated bool) error {
	if existing, ok := resolved[name]; ok {
		satisfied, err := libref.Satisfies(existing, constraint)
		if err != nil {
			return errutil.Wrap(err, errutil.KindValidation, err.Error())
		}
		if !satisfied {
			return errutil.Newf(errutil.KindConflict,
				"version conflict on %q: constraint %q already resolved it to %s, which does not satisfy the additional constraint %q",
				name, pins[name], existing, constraint)
		}
		log.Debugf("%s already resolved to %s, constraint %q satisfied", name, existing, constraint)
		return nil
	}

	available, err := inst.Registry.VersionNumbers(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "could not list versions of %q", name)
	}
	if len(available) == 0 {
		return errutil.Newf(errutil.KindNotFound, "library %q has no published versions", name)
	}
	chosen, err := libref.MaxSatisfying(available, constraint)
	if err != nil {
		return errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	if chosen == "" {
		return errutil.Newf(errutil.KindNotFound,
			"no version of %q satisfies %q (available: %s)", name, constraint, strings.Join(available, ", "))
	}

	if !gated {
		if err := inst.gate(ctx, name); err != nil {
			return errors.Wrapf(err, "dependency %q is not accessible", name)
		}
	}

	// Record the decision before any side effect: a cycle back into this
	// name must see the chosen version and stop.
	resolved[name] = chosen
	pins[name] = constraint

	info, err := inst.Registry.VersionInfo(ctx, name, chosen)
	if err != nil {
		delete(resolved, name)
		delete(pins, name)
		return errors.Wrapf(err, "could not read record of %s@%s", name, chosen)
	}
	if badCID(info.IpfsHash) {
		delete(resolved, name)
		delete(pins, name)
		return errutil.Newf(errutil.KindBadRecord,
			"on-chain record of %s@%s has no usable content hash", name, chosen)
	}
	if info.Deprecated {
		log.Warnf("%s@%s is deprecated; installing anyway", name, chosen)
	}

	if err := inst.download(ctx, name, chosen, info.IpfsHash); err != nil {
		return err
	}

	for _, dep := range info.Dependencies {
		if err := inst.resolve(ctx, dep.Name, dep.Constraint, resolved, pins, false); err != nil {
			return errors.Wrapf(err, "while resolving dependencies of %s@%s", name, chosen)
		}
	}
	return nil
}

// download streams the archive behind cid into Root/<name>/<version>/. An
// existing version directory is trusted and left alone, which both keeps
// installs idempotent and lets the diamond case fetch a shared dependency
// once.
func (inst *Installer) download(ctx context.Context, name, version, cid string) error {
	root := inst.Root
	if root == "" {
		root = DefaultRoot
	}
	target := filepath.Join(root, name, version)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		log.Debugf("%s@%s already present at %s, skipping download", name, version, target)
		return nil
	}

	log.Infof("Downloading %s@%s (%s)", name, version, cid)
	stream, err := inst.Artifacts.Cat(ctx, cid)
	if err != nil {
		return errors.Wrapf(err, "could not download %s@%s", name, version)
	}
	defer func() {
		_ = stream.Close()
	}()

	var r io.Reader = stream
	if inst.Progress != nil {
		if sink := inst.Progress(name + "@" + version); sink != nil {
			r = io.TeeReader(stream, sink)
		}
	}
	if err := archive.Extract(r, target); err != nil {
		return errors.Wrapf(err, "could not extract %s@%s into %s", name, version, target)
	}
	log.Infof("Installed %s@%s into %s", name, version, target)
	return nil
}

// badCID reports whether an on-chain content hash is one of the empty or
// placeholder values a broken publish can leave behind.
func badCID(cid string) bool {
	trimmed := strings.TrimSpace(cid)
	switch strings.ToLower(trimmed) {
	case "", "null", "undefined":
		return true
	}
	if strings.HasPrefix(trimmed, "0x") {
		rest := strings.TrimLeft(trimmed[2:], "0")
		return rest == ""
	}
	return false
}
