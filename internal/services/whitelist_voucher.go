package services

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// WhitelistVoucher is a free-registration grant issued off-line by the
// sign checker. The secondary name itself is not part of the voucher, only
// its length; the holder picks any available name of that length.
type WhitelistVoucher struct {
	UserAddress         string `json:"user_address"`
	RootName            string `json:"root_name"`
	SecondaryNameLength int64  `json:"secondary_name_length"`
	Nonce               string `json:"nonce"` // single use, hex or decimal uint256
	Duration            int64  `json:"duration"`
	Signature           string `json:"signature"` // 65-byte hex, r || s || v
}

func mustNewType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

var (
	typeBytes32 = mustNewType("bytes32")
	typeAddress = mustNewType("address")
	typeString  = mustNewType("string")
	typeUint256 = mustNewType("uint256")

	voucherTypehash = crypto.Keccak256Hash([]byte(
		"WhitelistRegister(address user,string rootName,uint256 secondaryNameLength,uint256 nonce,uint256 duration)"))
	domainTypehash = crypto.Keccak256Hash([]byte(
		"RegistrationDomain(uint256 chainId,address verifyingController)"))
)

// VoucherVerifier checks whitelist voucher signatures. The digest binds the
// voucher fields to this deployment's chain id and controller identity so
// a voucher cannot be replayed against another environment.
type VoucherVerifier struct {
	chainID         *big.Int
	controllerAddr  common.Address
	domainSeparator common.Hash
}

// NewVoucherVerifier creates a new VoucherVerifier instance
func NewVoucherVerifier(chainID int64, controllerAddress string) (*VoucherVerifier, error) {
	if !common.IsHexAddress(controllerAddress) {
		return nil, fmt.Errorf("invalid controller address %q", controllerAddress)
	}
	v := &VoucherVerifier{
		chainID:        big.NewInt(chainID),
		controllerAddr: common.HexToAddress(controllerAddress),
	}

	packed, err := abi.Arguments{
		{Type: typeBytes32},
		{Type: typeUint256},
		{Type: typeAddress},
	}.Pack(domainTypehash, v.chainID, v.controllerAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to build domain separator: %w", err)
	}
	v.domainSeparator = crypto.Keccak256Hash(packed)
	return v, nil
}

// parseNonce accepts a 0x-prefixed hex or plain decimal uint256.
func parseNonce(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		n, ok := new(big.Int).SetString(raw[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex nonce %q", raw)
		}
		return n, nil
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid nonce %q", raw)
	}
	return n, nil
}

// canonicalNonce reduces a nonce to its padded 32-byte hex form. The
// signing digest binds the numeric value, not the string, so dedup must
// too: "0x0a" and "10" are the same nonce.
func canonicalNonce(raw string) (string, error) {
	n, err := parseNonce(raw)
	if err != nil {
		return "", err
	}
	if n.Sign() < 0 || n.BitLen() > 256 {
		return "", fmt.Errorf("nonce %q outside uint256", raw)
	}
	return common.BigToHash(n).Hex(), nil
}

// Digest computes the signing digest for a voucher:
// keccak256(0x19 || 0x01 || domainSeparator || structHash).
func (v *VoucherVerifier) Digest(voucher *WhitelistVoucher) (common.Hash, error) {
	if !common.IsHexAddress(voucher.UserAddress) {
		return common.Hash{}, ErrInvalidAddress
	}
	nonce, err := parseNonce(voucher.Nonce)
	if err != nil {
		return common.Hash{}, err
	}

	structPacked, err := abi.Arguments{
		{Type: typeBytes32},
		{Type: typeAddress},
		{Type: typeString},
		{Type: typeUint256},
		{Type: typeUint256},
		{Type: typeUint256},
	}.Pack(
		voucherTypehash,
		common.HexToAddress(voucher.UserAddress),
		voucher.RootName,
		big.NewInt(voucher.SecondaryNameLength),
		nonce,
		big.NewInt(voucher.Duration),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack voucher: %w", err)
	}
	structHash := crypto.Keccak256Hash(structPacked)

	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		v.domainSeparator.Bytes(),
		structHash.Bytes(),
	), nil
}

// Verify checks that the voucher signature was produced by signChecker
// over this deployment's digest. Signatures are personal_sign style over
// the digest bytes, with v accepted as 0/1 or 27/28.
func (v *VoucherVerifier) Verify(voucher *WhitelistVoucher, signChecker string) error {
	if !common.IsHexAddress(signChecker) {
		return ErrInvalidSignature
	}

	digest, err := v.Digest(voucher)
	if err != nil {
		return err
	}

	sig, err := hexutil.Decode(voucher.Signature)
	if err != nil || len(sig) != 65 {
		return ErrInvalidSignature
	}
	if sig[64] >= 27 {
		sig = append(append([]byte{}, sig[:64]...), sig[64]-27)
	}

	pub, err := crypto.SigToPub(accounts.TextHash(digest.Bytes()), sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(signChecker) {
		return ErrInvalidSignature
	}
	return nil
}
