// Package netconf manages named network profiles ({rpcUrl, contractAddress}
// pairs with an active selector) stored at ~/.tacopkm/networks.json, and
// resolves the effective endpoints for chain-touching commands: active
// profile first, environment variables second, and a local IPFS API default
// when nothing else names one.
package netconf

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/io/file"
)

var log = logrus.WithField("prefix", "netconf")

// FileName is the profile store file name inside the tpkm config directory.
const FileName = "networks.json"

// configDirName is the shared ~/.tacopkm directory, same one the keystore
// lives in.
const configDirName = ".tacopkm"

// DefaultIPFSURL is used when neither the active profile nor the environment
// names an IPFS API endpoint.
const DefaultIPFSURL = "http://127.0.0.1:5001/api/v0"

var allowedRPCSchemes = map[string]bool{"http": true, "https": true, "ws": true, "wss": true}

// Profile is one named network entry.
type Profile struct {
	RPCURL          string `json:"rpcUrl"`
	ContractAddress string `json:"contractAddress"`
}

// Endpoints is the effective configuration a command runs against, with the
// source it was resolved from for display.
type Endpoints struct {
	RPCURL          string
	ContractAddress string
	IPFSURL         string
	Source          string
}

// envSettings is the environment fallback, the second precedence level.
type envSettings struct {
	RPCURL          string `envconfig:"RPC_URL"`
	ContractAddress string `envconfig:"CONTRACT_ADDRESS"`
	IPFSAPIURL      string `envconfig:"IPFS_API_URL"`
}

// Store is the on-disk profile collection. Unknown JSON fields, both at the
// top level and inside untouched profile entries, survive a load/save cycle.
type Store struct {
	path string

	active   string
	networks map[string]json.RawMessage
	extra    map[string]json.RawMessage
}

// NewStore opens (or initializes empty, when missing) the profile store at
// the default ~/.tacopkm location.
func NewStore() (*Store, error) {
	home := file.HomeDir()
	if home == "" {
		return nil, errors.New("could not determine home directory")
	}
	return NewStoreAt(filepath.Join(home, configDirName, FileName))
}

// NewStoreAt opens the profile store at the given path.
func NewStoreAt(path string) (*Store, error) {
	s := &Store{
		path:     path,
		networks: map[string]json.RawMessage{},
		extra:    map[string]json.RawMessage{},
	}
	if !file.FileExists(path) {
		return s, nil
	}
	raw, err := file.ReadFileAsBytes(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read network config %s", path)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "network config %s is not valid JSON", path)
	}
	for k, v := range doc {
		switch k {
		case "activeNetwork":
			// null decodes to the empty string.
			var name *string
			if err := json.Unmarshal(v, &name); err != nil {
				return nil, errors.Wrap(err, "invalid activeNetwork field")
			}
			if name != nil {
				s.active = *name
			}
		case "networks":
			if err := json.Unmarshal(v, &s.networks); err != nil {
				return nil, errors.Wrap(err, "invalid networks field")
			}
		default:
			s.extra[k] = v
		}
	}
	return s, nil
}

// Save writes the store back to disk, pretty-printed with two-space indent.
func (s *Store) Save() error {
	doc := map[string]interface{}{}
	for k, v := range s.extra {
		doc[k] = v
	}
	if s.active == "" {
		doc["activeNetwork"] = nil
	} else {
		doc["activeNetwork"] = s.active
	}
	doc["networks"] = s.networks
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode network config")
	}
	if err := file.MkdirAll(filepath.Dir(s.path)); err != nil {
		return errors.Wrap(err, "could not create config directory")
	}
	return errors.Wrapf(file.WriteFile(s.path, out), "could not write network config %s", s.path)
}

// Add upserts a profile after validating its endpoints, optionally marking
// it active.
func (s *Store) Add(name, rpcURL, contractAddress string, setActive bool) error {
	if strings.TrimSpace(name) == "" {
		return errutil.New(errutil.KindValidation, "network name cannot be empty")
	}
	if err := validateRPCURL(rpcURL); err != nil {
		return err
	}
	if !common.IsHexAddress(contractAddress) {
		return errutil.Newf(errutil.KindValidation, "invalid contract address %q", contractAddress)
	}
	entry, err := json.Marshal(Profile{
		RPCURL:          rpcURL,
		ContractAddress: common.HexToAddress(contractAddress).Hex(),
	})
	if err != nil {
		return errors.Wrap(err, "could not encode profile")
	}
	s.networks[name] = entry
	if setActive {
		s.active = name
	}
	return nil
}

// SetActive selects the named profile as active.
func (s *Store) SetActive(name string) error {
	if _, ok := s.networks[name]; !ok {
		return errutil.Newf(errutil.KindNotFound, "no network profile named %q", name).
			WithHint("run 'tpkm config list' to see configured networks")
	}
	s.active = name
	return nil
}

// Remove deletes the named profile. When it was the active one, the active
// selector is cleared and wasActive is true so callers can warn.
func (s *Store) Remove(name string) (wasActive bool, err error) {
	if _, ok := s.networks[name]; !ok {
		return false, errutil.Newf(errutil.KindNotFound, "no network profile named %q", name)
	}
	delete(s.networks, name)
	if s.active == name {
		s.active = ""
		return true, nil
	}
	return false, nil
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, bool) {
	raw, ok := s.networks[name]
	if !ok {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}

// Names returns the profile names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the active profile name, or "" when none is selected.
func (s *Store) Active() string {
	return s.active
}

// Resolve computes the effective endpoints per the precedence rules: a valid
// active profile wins; otherwise the RPC_URL/CONTRACT_ADDRESS/IPFS_API_URL
// environment variables; otherwise the chain endpoints are missing and the
// command cannot proceed. The IPFS URL alone falls back to a local daemon
// default. A broken active profile logs a warning and falls through rather
// than masking a valid environment.
func (s *Store) Resolve() (Endpoints, error) {
	var env envSettings
	if err := envconfig.Process("", &env); err != nil {
		return Endpoints{}, errors.Wrap(err, "could not read environment")
	}

	if s.active != "" {
		p, ok := s.Get(s.active)
		switch {
		case !ok:
			log.Warnf("Active network %q is not in the profile store, falling back to environment variables", s.active)
		case p.RPCURL == "" || !common.IsHexAddress(p.ContractAddress):
			log.Warnf("Active network %q is missing a valid RPC URL or contract address, falling back to environment variables", s.active)
		default:
			ipfsURL := env.IPFSAPIURL
			if ipfsURL == "" {
				ipfsURL = DefaultIPFSURL
			}
			return Endpoints{
				RPCURL:          p.RPCURL,
				ContractAddress: common.HexToAddress(p.ContractAddress).Hex(),
				IPFSURL:         ipfsURL,
				Source:          "profile " + s.active,
			}, nil
		}
	}

	if env.RPCURL != "" && common.IsHexAddress(env.ContractAddress) {
		ipfsURL := env.IPFSAPIURL
		if ipfsURL == "" {
			ipfsURL = DefaultIPFSURL
		}
		return Endpoints{
			RPCURL:          env.RPCURL,
			ContractAddress: common.HexToAddress(env.ContractAddress).Hex(),
			IPFSURL:         ipfsURL,
			Source:          "environment",
		}, nil
	}

	return Endpoints{}, errutil.New(errutil.KindConfigMissing,
		"no network configured: no active profile and no RPC_URL/CONTRACT_ADDRESS in the environment").
		WithHint("run 'tpkm config add <name> --rpc <url> --contract <address> --set-active' or export RPC_URL and CONTRACT_ADDRESS")
}

func validateRPCURL(rpcURL string) error {
	u, err := url.Parse(rpcURL)
	if err != nil || u.Host == "" || !allowedRPCSchemes[u.Scheme] {
		return errutil.Newf(errutil.KindValidation,
			"invalid RPC URL %q: scheme must be one of http, https, ws, wss", rpcURL)
	}
	return nil
}
