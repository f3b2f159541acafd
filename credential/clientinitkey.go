package credential

import (
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	mlssyntax "github.com/sylph01/mlspp/syntax"
)

const protocolVersionMLS10 uint8 = 1

// ClientInitKey is the signed bundle a prospective joiner publishes ahead
// of time: the suites it is willing to run the group in, one initial HPKE
// key per suite (so an adder can pick any suite it supports without a
// round trip), and the identity that vouches for all of it.
//
// Each suite's key pair is derived from its own expansion of the holder's
// init secret (see NewClientInitKey), never from the init secret directly,
// so no two suites share key material.
type ClientInitKey struct {
	Version         uint8
	CipherSuites    []mlscrypto.CipherSuite   `tls:"head=1"`
	InitKeys        []mlscrypto.HPKEPublicKey `tls:"head=2"`
	Credential      Credential
	Extensions      ExtensionList
	Signature       []byte                     `tls:"head=2"`
	initPrivateKeys []mlscrypto.HPKEPrivateKey `tls:"omit"`
}

type clientInitKeyTBS struct {
	Version      uint8
	CipherSuites []mlscrypto.CipherSuite   `tls:"head=1"`
	InitKeys     []mlscrypto.HPKEPublicKey `tls:"head=2"`
	Credential   Credential
	Extensions   ExtensionList
}

// NewClientInitKey derives one init key pair per suite in suites from
// initSecret and signs the resulting bundle under cred's private key.
//
// Each suite's key pair comes from its own expanded secret,
// HKDF-Expand-Label(init_secret, suite-name, "", Nh), so compromise of one
// suite's private key reveals nothing about any other suite's.
func NewClientInitKey(initSecret []byte, cred Credential, suites []mlscrypto.CipherSuite) (ClientInitKey, error) {
	cik := ClientInitKey{
		Version:      protocolVersionMLS10,
		CipherSuites: append([]mlscrypto.CipherSuite{}, suites...),
		Credential:   cred.Public(),
	}

	for _, suite := range suites {
		suiteSecret := suite.HkdfExpandLabel(initSecret, suite.String(), []byte{}, suite.Constants().SecretSize)
		priv, err := suite.HPKE().Derive(suiteSecret)
		if err != nil {
			return ClientInitKey{}, fmt.Errorf("credential: deriving init key for suite %s: %w", suite, err)
		}
		cik.InitKeys = append(cik.InitKeys, priv.PublicKey)
		cik.initPrivateKeys = append(cik.initPrivateKeys, priv)
	}

	if err := cik.sign(cred); err != nil {
		return ClientInitKey{}, err
	}

	return cik, nil
}

func (cik *ClientInitKey) sign(cred Credential) error {
	tbs, err := mlssyntax.Marshal(clientInitKeyTBS{
		Version:      cik.Version,
		CipherSuites: cik.CipherSuites,
		InitKeys:     cik.InitKeys,
		Credential:   cik.Credential,
		Extensions:   cik.Extensions,
	})
	if err != nil {
		return fmt.Errorf("credential: marshaling ClientInitKey for signing: %w", err)
	}

	sig, err := cred.Sign(tbs)
	if err != nil {
		return fmt.Errorf("credential: signing ClientInitKey: %w", err)
	}
	cik.Signature = sig
	return nil
}

// Verify checks the ClientInitKey's signature against its own credential.
func (cik ClientInitKey) Verify() bool {
	tbs, err := mlssyntax.Marshal(clientInitKeyTBS{
		Version:      cik.Version,
		CipherSuites: cik.CipherSuites,
		InitKeys:     cik.InitKeys,
		Credential:   cik.Credential,
		Extensions:   cik.Extensions,
	})
	if err != nil {
		return false
	}
	return cik.Credential.Verify(tbs, cik.Signature)
}

// InitKeyFor returns the init public key advertised for suite, and whether
// one was present at all.
func (cik ClientInitKey) InitKeyFor(suite mlscrypto.CipherSuite) (mlscrypto.HPKEPublicKey, bool) {
	for i, s := range cik.CipherSuites {
		if s == suite {
			return cik.InitKeys[i], true
		}
	}
	return mlscrypto.HPKEPublicKey{}, false
}

// InitPrivateKeyFor returns the local, unpublished init private key for
// suite -- only ever populated on a ClientInitKey this member generated
// itself via NewClientInitKey.
func (cik ClientInitKey) InitPrivateKeyFor(suite mlscrypto.CipherSuite) (mlscrypto.HPKEPrivateKey, bool) {
	for i, s := range cik.CipherSuites {
		if s == suite {
			if i >= len(cik.initPrivateKeys) {
				return mlscrypto.HPKEPrivateKey{}, false
			}
			return cik.initPrivateKeys[i], true
		}
	}
	return mlscrypto.HPKEPrivateKey{}, false
}

// Negotiate intersects mine's suites with theirs', in mine's
// preference order, and picks the first match. An empty intersection is
// reported as an InvalidParameter-class failure by the caller.
func Negotiate(mine, theirs ClientInitKey) (mlscrypto.CipherSuite, bool) {
	theirSet := make(map[mlscrypto.CipherSuite]bool, len(theirs.CipherSuites))
	for _, s := range theirs.CipherSuites {
		theirSet[s] = true
	}

	for _, s := range mine.CipherSuites {
		if theirSet[s] {
			return s, true
		}
	}
	return 0, false
}
