// Package errutil defines the error taxonomy shared by every command and the
// single classifier that translates contract and RPC failures into it.
// Classification happens once, at the chain boundary; everything above works
// with typed errors and decides rendering only.
package errutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/tacopkm/tpkm/contracts/registry"
)

// Kind partitions every failure the tool can surface into a category the
// command layer knows how to render and hint on.
type Kind string

const (
	KindConfigMissing   Kind = "CONFIG_MISSING"
	KindAuth            Kind = "AUTH"
	KindKeystoreMissing Kind = "KEYSTORE_MISSING"
	KindKeystoreCorrupt Kind = "KEYSTORE_CORRUPT"
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindPermission      Kind = "PERMISSION"
	KindPolicy          Kind = "POLICY"
	KindFunds           Kind = "FUNDS"
	KindTx              Kind = "TX"
	KindIPFSNotFound    Kind = "IPFS_NOT_FOUND"
	KindIPFSUnreachable Kind = "IPFS_UNREACHABLE"
	KindRPCUnreachable  Kind = "RPC_UNREACHABLE"
	KindBadRecord       Kind = "BAD_RECORD"
	KindUnknown         Kind = "UNKNOWN"
)

// Error is a classified failure. Message is the single line shown to the
// user; Hint, when set, is rendered on a second line. The wrapped cause is
// kept for DEBUG stack traces.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Cause implements the causer interface used by github.com/pkg/errors.
func (e *Error) Cause() error { return e.cause }

// New returns a classified error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under the given kind, keeping it for DEBUG output.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Wrapf is Wrap with fmt.Sprintf formatting.
func Wrapf(cause error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithHint attaches a one-line suggestion and returns the receiver.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf reports the kind err was classified under, or KindUnknown when err
// carries no classification.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified under kind.
func IsKind(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// classRule maps a lowercase substring of a revert reason or provider message
// to a kind. Rules are checked in order; the first match wins.
type classRule struct {
	substr string
	kind   Kind
}

var classRules = []classRule{
	// Contract revert reasons.
	{"library does not exist", KindNotFound},
	{"library not found", KindNotFound},
	{"version does not exist", KindNotFound},
	{"version not found", KindNotFound},
	{"caller is not the owner", KindPermission},
	{"is not the library owner", KindPermission},
	{"cannot authorize the owner", KindPermission},
	{"cannot revoke the owner", KindPermission},
	{"not authorized", KindPermission},
	{"already registered", KindConflict},
	{"name is already taken", KindConflict},
	{"version already exists", KindConflict},
	{"license already owned", KindConflict},
	{"already owns a license", KindConflict},
	{"library is not private", KindPolicy},
	{"license is not required", KindPolicy},
	{"license not required", KindPolicy},
	{"cannot require a license for a private library", KindPolicy},
	{"cannot delete library with published versions", KindPolicy},
	{"insufficient ether sent", KindFunds},

	// Provider and signer failures.
	{"insufficient funds", KindFunds},
	{"nonce too low", KindTx},
	{"nonce has already been used", KindTx},
	{"replacement transaction underpriced", KindTx},
	{"transaction underpriced", KindTx},
	{"user denied", KindTx},
	{"user rejected", KindTx},
	{"cannot estimate gas", KindTx},
	{"unpredictable gas limit", KindTx},
	{"gas required exceeds allowance", KindTx},
	{"call exception", KindTx},
	{"execution reverted", KindTx},

	// Transport-level failures reaching us before any response.
	{"connection refused", KindRPCUnreachable},
	{"no such host", KindRPCUnreachable},
	{"i/o timeout", KindRPCUnreachable},
	{"connection reset", KindRPCUnreachable},
}

// noisyPrefixes are stripped, repeatedly and case-insensitively, from the
// front of provider messages before classification.
var noisyPrefixes = []string{
	"execution reverted: ",
	"error: ",
	"rpc error: ",
}

// revertSelector is the 4-byte selector of the solidity Error(string) revert.
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// Classify translates an arbitrary failure from the chain boundary into a
// typed Error. Extraction order: the revert reason carried in the error data,
// then an ABI-decoded custom error, then the innermost provider message, then
// the top-level message. Already-classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	if data, ok := revertDataOf(err); ok {
		if bytes.HasPrefix(data, revertSelector) {
			if reason, uerr := abi.UnpackRevert(data); uerr == nil {
				return fromMessage(reason, err)
			}
		}
		if kind, msg, ok := decodeCustomError(data); ok {
			return &Error{Kind: kind, Message: msg, cause: err}
		}
	}

	msg := err.Error()
	if root := rootCause(err); root != err && root.Error() != "" {
		msg = root.Error()
	}
	e := fromMessage(msg, err)
	if e.Kind == KindUnknown {
		if code, ok := rpcCodeOf(err); ok && (code == -32000 || code == -32003) {
			e.Kind = KindTx
		}
	}
	return e
}

func fromMessage(msg string, cause error) *Error {
	cleaned := cleanMessage(msg)
	lower := strings.ToLower(cleaned)
	for _, rule := range classRules {
		if strings.Contains(lower, rule.substr) {
			return &Error{Kind: rule.kind, Message: cleaned, cause: cause}
		}
	}
	return &Error{Kind: KindUnknown, Message: cleaned, cause: cause}
}

func cleanMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	for stripped := true; stripped; {
		stripped = false
		for _, p := range noisyPrefixes {
			if len(msg) > len(p) && strings.EqualFold(msg[:len(p)], p) {
				msg = strings.TrimSpace(msg[len(p):])
				stripped = true
			}
		}
	}
	return msg
}

// revertDataOf walks the error chain for an rpc.DataError carrying raw revert
// bytes, either hex-encoded or already decoded.
func revertDataOf(err error) ([]byte, bool) {
	for e := err; e != nil; e = unwrapOnce(e) {
		de, ok := e.(rpc.DataError)
		if !ok {
			continue
		}
		switch data := de.ErrorData().(type) {
		case string:
			if b, derr := hexutil.Decode(data); derr == nil && len(b) > 0 {
				return b, true
			}
		case []byte:
			if len(data) > 0 {
				return data, true
			}
		}
	}
	return nil, false
}

// decodeCustomError matches the revert selector against the registry's named
// errors and renders the decoded arguments into a readable message.
func decodeCustomError(data []byte) (Kind, string, bool) {
	if len(data) < 4 {
		return KindUnknown, "", false
	}
	for name, abiErr := range registry.ABI().Errors {
		if !bytes.Equal(abiErr.ID.Bytes()[:4], data[:4]) {
			continue
		}
		vals, uerr := abiErr.Inputs.Unpack(data[4:])
		if uerr != nil {
			return KindUnknown, "", false
		}
		switch name {
		case "LibraryNotFound":
			if len(vals) == 1 {
				if libName, ok := vals[0].(string); ok {
					return KindNotFound, fmt.Sprintf("library %q does not exist on this registry", libName), true
				}
			}
		case "NotLibraryOwner":
			if len(vals) == 2 {
				caller, cok := vals[0].(common.Address)
				owner, ook := vals[1].(common.Address)
				if cok && ook {
					return KindPermission, fmt.Sprintf("caller %s is not the library owner (%s)", caller.Hex(), owner.Hex()), true
				}
			}
		}
		return KindUnknown, fmt.Sprintf("contract error %s", name), true
	}
	return KindUnknown, "", false
}

func rpcCodeOf(err error) (int, bool) {
	for e := err; e != nil; e = unwrapOnce(e) {
		if re, ok := e.(rpc.Error); ok {
			return re.ErrorCode(), true
		}
	}
	return 0, false
}

func unwrapOnce(err error) error {
	switch v := err.(type) {
	case interface{ Unwrap() error }:
		return v.Unwrap()
	case interface{ Cause() error }:
		return v.Cause()
	}
	return nil
}

func rootCause(err error) error {
	for {
		next := unwrapOnce(err)
		if next == nil {
			return err
		}
		err = next
	}
}
