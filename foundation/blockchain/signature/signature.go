// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ledgerID is an arbitrary number for signing messages. This will make it
// clear that the signature comes from the provenance ledger.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const ledgerID = 29

// =============================================================================

// Canonical returns the canonical JSON encoding of the value. Object keys are
// sorted at every depth, there is no insignificant whitespace, HTML characters
// are not escaped and numbers keep their exact JSON text. Two values with the
// same field names and values always produce the same bytes, regardless of
// the order fields were declared or inserted.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Decode into generic values so every object becomes a map. The encoder
	// writes maps with sorted keys. UseNumber keeps numeric text untouched.
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var generic any
	if err := d.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	e := json.NewEncoder(&buf)
	e.SetEscapeHTML(false)
	if err := e.Encode(generic); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Hash returns a unique string for the value using the canonical encoding.
// The value must be encodable. Ledger values are validated before they are
// hashed, so a failure here is a programming error.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		panic(fmt.Sprintf("signature: hash of unencodable value: %v", err))
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - ledgerID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address for the account that signed the data.
func FromAddress(value any, v, r, s *big.Int) (string, error) {

	// NOTE: If the same exact data for the given signature is not provided
	// we will get the wrong from address. The public key is being extracted
	// from the data and signature.

	// Prepare the data for public key extraction.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Convert the [R|S|V] format into the original 65 bytes.
	sig := ToSignatureBytes(v, r, s)

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// PublicKeyToAddress converts the public key to an address string.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(pk).String()
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(ToSignatureBytesWithLedgerID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	if len(sigStr) < 2 || sigStr[:2] != "0x" {
		return nil, nil, nil, errors.New("signature missing 0x prefix")
	}

	sig, err := hex.DecodeString(sigStr[2:])
	if err != nil {
		return nil, nil, nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("signature length %d, exp %d", len(sig), crypto.SignatureLength)
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Encode the data canonically so the signer and the verifier always
	// hash the same bytes.
	v, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// Convert the stamp into a slice of bytes. This stamp is
	// used so signatures we produce when signing data
	// are always unique to the provenance ledger.
	stamp := []byte("\x19Provenance Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256(stamp, txHash)

	return data, nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + ledgerID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the ledgerID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])

	sig[64] = byte(v.Uint64() - ledgerID)

	return sig
}

// ToSignatureBytesWithLedgerID converts the r, s, v values into a slice of
// bytes keeping the ledger id.
func ToSignatureBytesWithLedgerID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
