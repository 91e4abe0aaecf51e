// Package publisher implements the publish pipeline: load and validate
// lib.config.json, verify the signer owns the library, build a deterministic
// archive, upload it to IPFS, and commit the version record on-chain. The
// chain transaction is the commit point; an uploaded archive whose publish
// fails is an acceptable leak because CIDs are content-addressed and a retry
// reuses them.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tacopkm/tpkm/archive"
	"github.com/tacopkm/tpkm/contracts/registry"
	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/libref"
)

var log = logrus.WithField("prefix", "publish")

// ConfigFileName is the manifest every publishable directory carries.
const ConfigFileName = "lib.config.json"

// Config is the parsed lib.config.json manifest. Dependencies values are
// kept raw so non-string constraints can be dropped instead of failing the
// whole decode.
type Config struct {
	Name         string                     `json:"name"`
	Version      string                     `json:"version"`
	Description  string                     `json:"description"`
	Language     string                     `json:"language"`
	Dependencies map[string]json.RawMessage `json:"dependencies"`
}

// Registry is the contract surface publishing needs.
type Registry interface {
	LibraryInfo(ctx context.Context, name string) (registry.LibraryInfo, error)
	PublishVersion(ctx context.Context, name, version, cid string, deps []registry.Dependency) (common.Hash, error)
}

// Artifacts uploads archive bytes and returns their CID.
type Artifacts interface {
	Add(ctx context.Context, r io.Reader) (string, error)
}

// Publisher runs publish pipelines for one signer.
type Publisher struct {
	Registry  Registry
	Artifacts Artifacts
	Signer    common.Address
	// TempDir overrides os.TempDir for the intermediate archive; set in
	// tests.
	TempDir string
}

// Result describes one successful publish.
type Result struct {
	Name         string
	Version      string
	CID          string
	TxHash       common.Hash
	ArchiveSize  int64
	Dependencies []registry.Dependency
}

// Publish runs the pipeline for the library rooted at dir. A non-empty
// versionOverride replaces the manifest's version field. The temp archive is
// removed on every exit path; a failed removal is logged, never fatal.
func (p *Publisher) Publish(ctx context.Context, dir, versionOverride string) (*Result, error) {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	version := cfg.Version
	if versionOverride != "" {
		version = versionOverride
	}
	if err := libref.ValidateVersion(version); err != nil {
		return nil, errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	deps := sanitizeDependencies(cfg.Dependencies)

	// Ownership is checked before any archive or upload work so a
	// predictable refusal costs neither time nor gas.
	info, err := p.Registry.LibraryInfo(ctx, cfg.Name)
	if err != nil {
		if errutil.IsKind(err, errutil.KindNotFound) {
			return nil, errutil.Newf(errutil.KindNotFound,
				"library %q is not registered", cfg.Name).
				WithHint(fmt.Sprintf("run 'tpkm register %s' first", cfg.Name))
		}
		return nil, err
	}
	if info.Owner != p.Signer {
		return nil, errutil.Newf(errutil.KindPermission,
			"library %q is owned by %s, not by your wallet %s", cfg.Name, info.Owner.Hex(), p.Signer.Hex())
	}

	archivePath := p.tempArchivePath()
	size, err := p.buildArchive(dir, archivePath)
	if err != nil {
		p.removeTemp(archivePath)
		return nil, err
	}
	defer p.removeTemp(archivePath)
	log.Infof("Packed %s into a %s archive", dir, humanize.Bytes(uint64(size)))

	cid, err := p.upload(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	log.Infof("Uploaded archive to IPFS as %s", cid)

	txHash, err := p.Registry.PublishVersion(ctx, cfg.Name, version, cid, deps)
	if err != nil {
		return nil, errors.Wrapf(err, "could not publish %s@%s", cfg.Name, version)
	}
	return &Result{
		Name:         cfg.Name,
		Version:      version,
		CID:          cid,
		TxHash:       txHash,
		ArchiveSize:  size,
		Dependencies: deps,
	}, nil
}

// LoadConfig reads and validates dir's manifest.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errutil.Newf(errutil.KindValidation,
				"no %s found in %s", ConfigFileName, dir).
				WithHint("run 'tpkm init' inside the library directory to create one")
		}
		return nil, errors.Wrapf(err, "could not read %s", path)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errutil.Wrapf(err, errutil.KindValidation, "%s is not valid JSON", path)
	}
	if cfg.Name == "" || cfg.Version == "" {
		return nil, errutil.Newf(errutil.KindValidation,
			"%s must set both \"name\" and \"version\"", path)
	}
	if err := libref.ValidateName(cfg.Name); err != nil {
		return nil, errutil.Wrap(err, errutil.KindValidation, err.Error())
	}
	return &cfg, nil
}

// sanitizeDependencies turns the raw manifest mapping into the contract's
// dependency list, sorted by name so the transaction payload is stable.
// Entries with empty or non-string constraints are dropped with a warning;
// constraints that do not parse as a range are warned about but kept, since
// they are the author's declared intent.
func sanitizeDependencies(raw map[string]json.RawMessage) []registry.Dependency {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make([]registry.Dependency, 0, len(raw))
	for _, name := range names {
		var constraint string
		if err := json.Unmarshal(raw[name], &constraint); err != nil || strings.TrimSpace(constraint) == "" {
			log.Warnf("Dropping dependency %q: constraint must be a non-empty string", name)
			continue
		}
		if err := libref.ValidateName(name); err != nil {
			log.Warnf("Dependency name %q is not a valid library name; keeping it as declared", name)
		}
		if err := libref.ValidateConstraint(constraint); err != nil {
			log.Warnf("Dependency %q has unparsable constraint %q; keeping it as declared", name, constraint)
		}
		deps = append(deps, registry.Dependency{Name: name, Constraint: constraint})
	}
	return deps
}

func (p *Publisher) tempArchivePath() string {
	dir := p.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	signer := strings.TrimPrefix(strings.ToLower(p.Signer.Hex()), "0x")
	return filepath.Join(dir, fmt.Sprintf("tpkm-%s-%d.tgz", signer, time.Now().UnixNano()))
}

func (p *Publisher) buildArchive(dir, archivePath string) (int64, error) {
	f, err := os.OpenFile(filepath.Clean(archivePath), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return 0, errors.Wrapf(err, "could not create temp archive %s", archivePath)
	}
	if err := archive.Create(dir, f); err != nil {
		_ = f.Close()
		return 0, errors.Wrapf(err, "could not archive %s", dir)
	}
	if err := f.Close(); err != nil {
		return 0, errors.Wrapf(err, "could not finalize temp archive %s", archivePath)
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		return 0, errors.Wrap(err, "could not stat temp archive")
	}
	return info.Size(), nil
}

func (p *Publisher) upload(ctx context.Context, archivePath string) (string, error) {
	f, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return "", errors.Wrap(err, "could not reopen temp archive")
	}
	defer func() {
		_ = f.Close()
	}()
	cid, err := p.Artifacts.Add(ctx, f)
	if err != nil {
		return "", err
	}
	if cid == "" {
		return "", errutil.New(errutil.KindUnknown, "IPFS upload returned no CID")
	}
	return cid, nil
}

func (p *Publisher) removeTemp(archivePath string) {
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warnf("Could not remove temp archive %s", archivePath)
	}
}
