package keyschedule

import (
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/treemath"
)

// KeyAndNonce is one generation's AEAD key material.
type KeyAndNonce struct {
	Key   []byte
	Nonce []byte
}

func zeroize(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// hashRatchet is the per-leaf forward-secret chain: leaf_secret[L,g] ->
// (key[L,g], nonce[L,g]) -> leaf_secret[L,g+1]. Past generations are
// cached so out-of-order delivery can still decrypt, but NextSecret itself
// is overwritten and the old value zeroed the moment it's superseded --
// only the current generation's secret is ever live.
type hashRatchet struct {
	suite      mlscrypto.CipherSuite
	nextSecret []byte
	nextGen    uint32
	cache      map[uint32]KeyAndNonce
}

func newHashRatchet(suite mlscrypto.CipherSuite, baseSecret []byte) *hashRatchet {
	return &hashRatchet{
		suite:      suite,
		nextSecret: baseSecret,
		cache:      map[uint32]KeyAndNonce{},
	}
}

// Next derives this generation's key/nonce, then advances leaf_secret:
//
//	key[L,g]           = HKDF-Expand-Label(leaf_secret[L,g], "app key", "", Nk)
//	nonce[L,g]         = HKDF-Expand-Label(leaf_secret[L,g], "app nonce", "", Nn)
//	leaf_secret[L,g+1] = HKDF-Expand-Label(leaf_secret[L,g], "app sender", "", Nh)
func (hr *hashRatchet) Next() (uint32, KeyAndNonce) {
	secret := hr.nextSecret
	key := hr.suite.HkdfExpandLabel(secret, "app key", nil, hr.suite.Constants().KeySize)
	nonce := hr.suite.HkdfExpandLabel(secret, "app nonce", nil, hr.suite.Constants().NonceSize)
	next := hr.suite.HkdfExpandLabel(secret, "app sender", nil, hr.suite.Constants().SecretSize)

	generation := hr.nextGen
	kn := KeyAndNonce{Key: key, Nonce: nonce}
	hr.cache[generation] = kn

	zeroize(hr.nextSecret)
	hr.nextSecret = next
	hr.nextGen++

	return generation, kn
}

// Get returns the key/nonce for generation, deriving forward as needed if
// it hasn't been reached yet. Requesting an already-erased generation is
// an error: that's the forward-secrecy boundary.
func (hr *hashRatchet) Get(generation uint32) (KeyAndNonce, error) {
	if kn, ok := hr.cache[generation]; ok {
		return kn, nil
	}

	if generation < hr.nextGen {
		return KeyAndNonce{}, fmt.Errorf("keyschedule: generation %d already erased", generation)
	}

	var kn KeyAndNonce
	for hr.nextGen <= generation {
		_, kn = hr.Next()
	}
	return kn, nil
}

// Erase deletes a generation's cached key material once it's been
// consumed, so a compromised process state can't replay it.
func (hr *hashRatchet) Erase(generation uint32) {
	if kn, ok := hr.cache[generation]; ok {
		zeroize(kn.Key)
		zeroize(kn.Nonce)
		delete(hr.cache, generation)
	}
}

// ApplicationKeyChain holds one hashRatchet per leaf that has sent an
// application message this epoch, lazily seeded from applicationSecret.
type ApplicationKeyChain struct {
	suite             mlscrypto.CipherSuite
	applicationSecret []byte
	ratchets          map[treemath.LeafIndex]*hashRatchet
}

func NewApplicationKeyChain(suite mlscrypto.CipherSuite, applicationSecret []byte) *ApplicationKeyChain {
	return &ApplicationKeyChain{
		suite:             suite,
		applicationSecret: applicationSecret,
		ratchets:          map[treemath.LeafIndex]*hashRatchet{},
	}
}

func (c *ApplicationKeyChain) ratchetFor(leaf treemath.LeafIndex) *hashRatchet {
	if r, ok := c.ratchets[leaf]; ok {
		return r
	}

	enc, err := mlssyntax.Marshal(leaf)
	if err != nil {
		panic(fmt.Errorf("keyschedule: marshaling leaf index: %w", err))
	}

	// leaf_secret[L,0] = Derive-Secret(application_secret, "app sender", L-as-encoded)
	base := c.suite.DeriveSecret(c.applicationSecret, "app sender", enc)
	r := newHashRatchet(c.suite, base)
	c.ratchets[leaf] = r
	return r
}

// Next returns the next unused generation's key/nonce for leaf, the
// operation a sender calls once per application message.
func (c *ApplicationKeyChain) Next(leaf treemath.LeafIndex) (uint32, KeyAndNonce) {
	return c.ratchetFor(leaf).Next()
}

// Get returns the key/nonce for a specific (leaf, generation), the
// operation a receiver calls to decrypt an inbound application message.
func (c *ApplicationKeyChain) Get(leaf treemath.LeafIndex, generation uint32) (KeyAndNonce, error) {
	return c.ratchetFor(leaf).Get(generation)
}

// Erase drops the cached key material for (leaf, generation) once it's
// been consumed.
func (c *ApplicationKeyChain) Erase(leaf treemath.LeafIndex, generation uint32) {
	if r, ok := c.ratchets[leaf]; ok {
		r.Erase(generation)
	}
}
