package custody

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// Factory provisions one locked custody unit per inscription at a
// deterministic address derived from the inscription id.
type Factory struct{}

// NewFactory returns an escrow factory.
func NewFactory() *Factory { return &Factory{} }

// ProvisionEscrow creates a locked unit owned by the protocol for the given
// inscription.
func (f *Factory) ProvisionEscrow(owner [20]byte, inscriptionID [32]byte) (*Unit, error) {
	return NewUnit(DeriveAddress(inscriptionID), inscriptionID, owner), nil
}

// DeriveAddress computes the custody address for an inscription's unit.
func DeriveAddress(inscriptionID [32]byte) [20]byte {
	digest := ethcrypto.Keccak256([]byte("inscribechain/custody-unit"), inscriptionID[:])
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}
