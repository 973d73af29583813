package crypto

import (
	"bytes"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestAddressBech32RoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	addr := key.PubKey().Address()
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(InsPrefix)) {
		t.Fatalf("encoded address %q missing prefix", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip changed address bytes")
	}
	if decoded.Prefix() != InsPrefix {
		t.Fatalf("round trip changed prefix: %s", decoded.Prefix())
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-a-bech32-address"); err == nil {
		t.Fatalf("garbage address decoded")
	}
}

func TestSignRecoverRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	digest := ethcrypto.Keccak256([]byte("payload"))
	sig, err := key.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}
	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		t.Fatalf("RecoverAddress: %v", err)
	}
	var want [20]byte
	copy(want[:], key.PubKey().Address().Bytes())
	if recovered != want {
		t.Fatalf("recovered %x, want %x", recovered, want)
	}
}

func TestRecoverAddressRejectsMalformedInput(t *testing.T) {
	digest := ethcrypto.Keccak256([]byte("payload"))
	if _, err := RecoverAddress(digest[:16], make([]byte, 65)); err == nil {
		t.Fatalf("short digest accepted")
	}
	if _, err := RecoverAddress(digest, make([]byte, 64)); err == nil {
		t.Fatalf("short signature accepted")
	}
}

func TestPrivateKeyBytesRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if !bytes.Equal(restored.PubKey().Address().Bytes(), key.PubKey().Address().Bytes()) {
		t.Fatalf("restored key derives a different address")
	}
}
