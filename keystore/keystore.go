// Package keystore manages the encrypted local wallet at
// ~/.tacopkm/keystore.json. The file is a standard V3 encrypted JSON
// keystore: the address is readable without the password, the private
// key only with it. The file is written exactly twice in its life, on
// create and on import; everything else is read-only.
package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tacopkm/tpkm/errutil"
	"github.com/tacopkm/tpkm/io/file"
)

// ConfigDirName is the directory under the user's home holding tpkm state.
const ConfigDirName = ".tacopkm"

// FileName is the keystore file name inside ConfigDirName.
const FileName = "keystore.json"

// Store is a handle on one on-disk keystore file.
type Store struct {
	path    string
	scryptN int
	scryptP int
}

// NewStore returns a Store rooted at the default ~/.tacopkm location.
func NewStore() (*Store, error) {
	home := file.HomeDir()
	if home == "" {
		return nil, errors.New("could not determine home directory")
	}
	return NewStoreAt(filepath.Join(home, ConfigDirName, FileName)), nil
}

// NewStoreAt returns a Store using the given keystore file path.
func NewStoreAt(path string) *Store {
	return &Store{
		path:    path,
		scryptN: gethkeystore.StandardScryptN,
		scryptP: gethkeystore.StandardScryptP,
	}
}

// Path returns the keystore file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a keystore file is already present. Callers must
// confirm with the user before a Create or Import that would overwrite it.
func (s *Store) Exists() bool {
	return file.FileExists(s.path)
}

// Create generates a fresh secp256k1 key, encrypts it under password and
// writes the keystore file. The new address is returned.
func (s *Store) Create(password string) (common.Address, error) {
	if err := validatePassword(password); err != nil {
		return common.Address{}, err
	}
	privKey, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, errors.Wrap(err, "could not generate key")
	}
	return s.write(privKey, password)
}

// Import encrypts the given hex-encoded private key (0x prefix optional)
// under password and writes the keystore file.
func (s *Store) Import(hexKey, password string) (common.Address, error) {
	if err := validatePassword(password); err != nil {
		return common.Address{}, err
	}
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return common.Address{}, errutil.Wrap(err, errutil.KindValidation, "invalid private key: expected 64 hex characters")
	}
	return s.write(privKey, password)
}

func (s *Store) write(privKey *ecdsa.PrivateKey, password string) (common.Address, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return common.Address{}, errors.Wrap(err, "could not generate key id")
	}
	key := &gethkeystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(privKey.PublicKey),
		PrivateKey: privKey,
	}
	encrypted, err := gethkeystore.EncryptKey(key, password, s.scryptN, s.scryptP)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "could not encrypt key")
	}
	if err := file.MkdirAll(filepath.Dir(s.path)); err != nil {
		return common.Address{}, errors.Wrap(err, "could not create keystore directory")
	}
	if err := file.WriteFile(s.path, encrypted); err != nil {
		return common.Address{}, errors.Wrap(err, "could not write keystore file")
	}
	return key.Address, nil
}

// Address reads the plain address field of the keystore file without
// touching the encrypted key material, so no password is needed. The
// address is returned in EIP-55 checksum form.
func (s *Store) Address() (common.Address, error) {
	raw, err := s.read()
	if err != nil {
		return common.Address{}, err
	}
	var envelope struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return common.Address{}, errutil.Wrap(err, errutil.KindKeystoreCorrupt, "keystore file is not valid JSON")
	}
	if !common.IsHexAddress(envelope.Address) {
		return common.Address{}, errutil.Newf(errutil.KindKeystoreCorrupt, "keystore file has no valid address field")
	}
	return common.HexToAddress(envelope.Address), nil
}

// Decrypt recovers the private key with the given password and returns a
// Signer. A wrong password surfaces as an AUTH failure.
func (s *Store) Decrypt(password string) (*Signer, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	raw, err := s.read()
	if err != nil {
		return nil, err
	}
	key, err := gethkeystore.DecryptKey(raw, password)
	if err != nil {
		if strings.Contains(err.Error(), "could not decrypt key") {
			return nil, errutil.Wrap(err, errutil.KindAuth, "incorrect wallet password")
		}
		return nil, errutil.Wrap(err, errutil.KindKeystoreCorrupt, "could not decode keystore file")
	}
	return &Signer{key: key}, nil
}

func (s *Store) read() ([]byte, error) {
	if !s.Exists() {
		return nil, errutil.Newf(errutil.KindKeystoreMissing, "no wallet found at %s", s.path).
			WithHint("run 'tpkm wallet create' or 'tpkm wallet import <privateKey>' first")
	}
	raw, err := file.ReadFileAsBytes(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read keystore file %s", s.path)
	}
	return raw, nil
}

func validatePassword(password string) error {
	if password == "" {
		return errutil.New(errutil.KindAuth, "wallet password cannot be empty")
	}
	return nil
}

// Signer wraps a decrypted key and produces transaction signing options.
type Signer struct {
	key *gethkeystore.Key
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.key.Address
}

// TransactOpts returns EIP-155 signing options bound to chainID.
func (s *Signer) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key.PrivateKey, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "could not build transactor")
	}
	return opts, nil
}
