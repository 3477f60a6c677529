package services

import (
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func newSignedVoucher(t *testing.T, verifier *VoucherVerifier, key *ecdsa.PrivateKey) *WhitelistVoucher {
	t.Helper()
	voucher := &WhitelistVoucher{
		UserAddress:         testOwnerAddr,
		RootName:            "did",
		SecondaryNameLength: 6,
		Nonce:               "0x01",
		Duration:            365 * 86400,
	}
	digest, err := verifier.Digest(voucher)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	sig, err := crypto.Sign(accounts.TextHash(digest.Bytes()), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	voucher.Signature = hexutil.Encode(sig)
	return voucher
}

func TestVoucherVerify(t *testing.T) {
	verifier, err := NewVoucherVerifier(testChainID, testControllerAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey).Hex()

	voucher := newSignedVoucher(t, verifier, key)
	if err := verifier.Verify(voucher, signer); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// Legacy 27/28 recovery ids are accepted too.
	raw, _ := hexutil.Decode(voucher.Signature)
	raw[64] += 27
	legacy := *voucher
	legacy.Signature = hexutil.Encode(raw)
	if err := verifier.Verify(&legacy, signer); err != nil {
		t.Fatalf("Verify with legacy v: %v", err)
	}
}

func TestVoucherVerifyRejectsTampering(t *testing.T) {
	verifier, err := NewVoucherVerifier(testChainID, testControllerAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey).Hex()

	mutations := []struct {
		name   string
		mutate func(v *WhitelistVoucher)
	}{
		{"user address", func(v *WhitelistVoucher) { v.UserAddress = testOtherAddr }},
		{"root name", func(v *WhitelistVoucher) { v.RootName = "doaverse" }},
		{"name length", func(v *WhitelistVoucher) { v.SecondaryNameLength = 3 }},
		{"nonce", func(v *WhitelistVoucher) { v.Nonce = "0x02" }},
		{"duration", func(v *WhitelistVoucher) { v.Duration = 10 * 365 * 86400 }},
		{"truncated signature", func(v *WhitelistVoucher) { v.Signature = v.Signature[:len(v.Signature)-2] }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			voucher := newSignedVoucher(t, verifier, key)
			tt.mutate(voucher)
			if err := verifier.Verify(voucher, signer); !errors.Is(err, ErrInvalidSignature) {
				t.Errorf("error = %v, want ErrInvalidSignature", err)
			}
		})
	}
}

func TestVoucherVerifyWrongSigner(t *testing.T) {
	verifier, err := NewVoucherVerifier(testChainID, testControllerAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	voucher := newSignedVoucher(t, verifier, key)
	if err := verifier.Verify(voucher, testOtherAddr); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVoucherDigestBindsDeployment(t *testing.T) {
	verifier, err := NewVoucherVerifier(testChainID, testControllerAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}
	otherChain, err := NewVoucherVerifier(testChainID+1, testControllerAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}
	otherController, err := NewVoucherVerifier(testChainID, testOtherAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}

	voucher := &WhitelistVoucher{
		UserAddress:         testOwnerAddr,
		RootName:            "did",
		SecondaryNameLength: 6,
		Nonce:               "7",
		Duration:            86400,
	}
	base, err := verifier.Digest(voucher)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	crossChain, err := otherChain.Digest(voucher)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	crossController, err := otherController.Digest(voucher)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}

	if base == crossChain {
		t.Error("digest does not bind the chain id")
	}
	if base == crossController {
		t.Error("digest does not bind the controller address")
	}
}
