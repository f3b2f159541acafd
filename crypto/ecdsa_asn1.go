package crypto

import (
	"encoding/asn1"
	"fmt"
	"math/big"
)

// ECDSA signatures are a pair of integers; encoding them as ASN.1 DER
// (rather than a fixed-width concatenation) matches how every ECDSA
// consumer in the Go ecosystem -- crypto/x509, crypto/tls -- represents
// them, so a signature produced here verifies the same way elsewhere.
type ecdsaSignature struct {
	R, S *big.Int
}

func asn1ECDSASignature(r, s *big.Int) []byte {
	enc, err := asn1.Marshal(ecdsaSignature{R: r, S: s})
	if err != nil {
		panic(fmt.Errorf("crypto: ASN.1 encoding ECDSA signature: %w", err))
	}
	return enc
}

func parseASN1ECDSASignature(sig []byte) (*big.Int, *big.Int, error) {
	var parsed ecdsaSignature
	if _, err := asn1.Unmarshal(sig, &parsed); err != nil {
		return nil, nil, fmt.Errorf("crypto: ASN.1 decoding ECDSA signature: %w", err)
	}
	return parsed.R, parsed.S, nil
}
