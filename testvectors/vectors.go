// Package testvectors generates and checks the golden-value scenarios used
// to pin down this implementation's tree math, ratchet tree, and key
// schedule derivations across runs.
//
// Each vector type is both generatable from a live implementation (Generate)
// and independently checkable against one (Verify), so a golden file
// produced by one build can be replayed against a later one to catch an
// accidental change in derivation order or byte layout.
package testvectors

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/sylph01/mlspp/credential"
	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/keyschedule"
	"github.com/sylph01/mlspp/ratchettree"
	"github.com/sylph01/mlspp/treemath"
)

// hexBytes round-trips through JSON as a hex string, keeping binary fields
// readable in the golden file.
type hexBytes []byte

func (h hexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *hexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("testvectors: decoding hex field: %w", err)
	}
	*h = out
	return nil
}

// TreeMathVector pins Root/Left/Right/Parent/Sibling for every node of a
// fixed-size tree, so a change to the left-balanced index calculus shows up
// as a vector mismatch instead of silently propagating into the ratchet
// tree.
type TreeMathVector struct {
	NLeaves treemath.LeafCount   `json:"n_leaves"`
	Root    treemath.NodeIndex   `json:"root"`
	Left    []treemath.NodeIndex `json:"left"`
	Right   []treemath.NodeIndex `json:"right"`
	Parent  []treemath.NodeIndex `json:"parent"`
	Sibling []treemath.NodeIndex `json:"sibling"`
}

// GenerateTreeMathVector computes a TreeMathVector for a tree of n leaves.
func GenerateTreeMathVector(n treemath.LeafCount) TreeMathVector {
	w := treemath.NodeWidth(n)
	v := TreeMathVector{
		NLeaves: n,
		Root:    treemath.Root(n),
		Left:    make([]treemath.NodeIndex, w),
		Right:   make([]treemath.NodeIndex, w),
		Parent:  make([]treemath.NodeIndex, w),
		Sibling: make([]treemath.NodeIndex, w),
	}
	for x := treemath.NodeIndex(0); x < treemath.NodeIndex(w); x++ {
		v.Left[x] = treemath.Left(x)
		v.Right[x] = treemath.Right(x, n)
		v.Parent[x] = treemath.Parent(x, n)
		v.Sibling[x] = treemath.Sibling(x, n)
	}
	return v
}

// Verify recomputes a TreeMathVector for v.NLeaves and reports whether it
// matches v field-by-field.
func (v TreeMathVector) Verify() error {
	fresh := GenerateTreeMathVector(v.NLeaves)
	if fresh.Root != v.Root {
		return fmt.Errorf("testvectors: root mismatch for n=%d: got %d want %d", v.NLeaves, fresh.Root, v.Root)
	}
	for x := range v.Left {
		if fresh.Left[x] != v.Left[x] {
			return fmt.Errorf("testvectors: left(%d) mismatch for n=%d", x, v.NLeaves)
		}
		if fresh.Right[x] != v.Right[x] {
			return fmt.Errorf("testvectors: right(%d) mismatch for n=%d", x, v.NLeaves)
		}
		if fresh.Parent[x] != v.Parent[x] {
			return fmt.Errorf("testvectors: parent(%d) mismatch for n=%d", x, v.NLeaves)
		}
		if fresh.Sibling[x] != v.Sibling[x] {
			return fmt.Errorf("testvectors: sibling(%d) mismatch for n=%d", x, v.NLeaves)
		}
	}
	return nil
}

// RatchetTreeVector pins the root tree hash and final update secret
// produced by adding a fixed sequence of leaves (by deterministic secret)
// and setting each one's direct path in turn, catching any change to the
// tree-hash or path-secret derivation that produces the same membership
// but different root values.
type RatchetTreeVector struct {
	CipherSuite  mlscrypto.CipherSuite `json:"cipher_suite"`
	LeafSecrets  []hexBytes            `json:"leaf_secrets"`
	UpdateSecret hexBytes              `json:"update_secret"`
	RootHash     hexBytes              `json:"root_hash"`
}

func deterministicSecret(n int, tag byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = tag + byte(n)
	}
	return out
}

// addVectorLeaf installs leaf i of a vector tree and returns the update
// secret its SetPath produced. The signing key is derived from the leaf
// secret itself (not the host RNG) so the credential bytes hashed into the
// tree are identical on every rebuild, and the leaf's initial HPKE key
// follows the same "node" derivation SetPath installs.
func addVectorLeaf(tree *ratchettree.RatchetTree, suite mlscrypto.CipherSuite, i int, secret []byte) ([]byte, error) {
	cred, err := credential.NewBasicCredentialFromSeed([]byte(fmt.Sprintf("member-%d", i)), mlscrypto.Ed25519Scheme, secret)
	if err != nil {
		return nil, err
	}

	nodeSecret := suite.HkdfExpandLabel(secret, "node", []byte{}, suite.Constants().SecretSize)
	priv, err := suite.HPKE().Derive(nodeSecret)
	if err != nil {
		return nil, err
	}

	pubCred := cred.Public()
	if err := tree.AddLeaf(treemath.LeafIndex(i), &priv.PublicKey, &pubCred); err != nil {
		return nil, err
	}
	return tree.SetPath(treemath.LeafIndex(i), secret)
}

// GenerateRatchetTreeVector builds a tree of nLeaves members under suite,
// one leaf and path-set at a time, and records the resulting root hash and
// the last leaf's update secret.
func GenerateRatchetTreeVector(suite mlscrypto.CipherSuite, nLeaves int) (RatchetTreeVector, error) {
	tree := ratchettree.New(suite)
	secrets := make([]hexBytes, nLeaves)
	var updateSecret []byte

	for i := 0; i < nLeaves; i++ {
		secret := deterministicSecret(i, 0x10)
		secrets[i] = secret

		us, err := addVectorLeaf(tree, suite, i, secret)
		if err != nil {
			return RatchetTreeVector{}, err
		}
		updateSecret = us
	}

	return RatchetTreeVector{
		CipherSuite:  suite,
		LeafSecrets:  secrets,
		UpdateSecret: updateSecret,
		RootHash:     tree.RootHash(),
	}, nil
}

// Verify rebuilds the tree from v.LeafSecrets and checks both the root
// hash and the final update secret match the recorded values.
func (v RatchetTreeVector) Verify() error {
	tree := ratchettree.New(v.CipherSuite)
	var updateSecret []byte
	for i, secret := range v.LeafSecrets {
		us, err := addVectorLeaf(tree, v.CipherSuite, i, secret)
		if err != nil {
			return err
		}
		updateSecret = us
	}

	if hex.EncodeToString(updateSecret) != hex.EncodeToString(v.UpdateSecret) {
		return fmt.Errorf("testvectors: ratchet tree update secret mismatch: got %x want %x", updateSecret, v.UpdateSecret)
	}

	got := tree.RootHash()
	if hex.EncodeToString(got) != hex.EncodeToString(v.RootHash) {
		return fmt.Errorf("testvectors: ratchet tree root hash mismatch: got %x want %x", got, v.RootHash)
	}
	return nil
}

// KeyScheduleVector pins one epoch's cascade of derived secrets from a
// fixed (init_secret, update_secret, group_context) triple, and the first
// few application keys a single leaf's hash ratchet produces from the
// resulting application_secret.
type KeyScheduleVector struct {
	CipherSuite       mlscrypto.CipherSuite `json:"cipher_suite"`
	InitSecret        hexBytes              `json:"init_secret"`
	UpdateSecret      hexBytes              `json:"update_secret"`
	GroupContext      hexBytes              `json:"group_context"`
	ConfirmationKey   hexBytes              `json:"confirmation_key"`
	ApplicationSecret hexBytes              `json:"application_secret"`
	ApplicationKeys   []hexBytes            `json:"application_keys"`
}

// GenerateKeyScheduleVector derives one epoch's secrets and the first
// nGenerations application keys for leaf 0.
func GenerateKeyScheduleVector(suite mlscrypto.CipherSuite, initSecret, updateSecret, groupContext []byte, nGenerations int) KeyScheduleVector {
	keys := keyschedule.Next(suite, initSecret, updateSecret, groupContext)
	chain := keyschedule.NewApplicationKeyChain(suite, keys.ApplicationSecret)

	appKeys := make([]hexBytes, nGenerations)
	for i := 0; i < nGenerations; i++ {
		_, kn := chain.Next(treemath.LeafIndex(0))
		appKeys[i] = kn.Key
	}

	return KeyScheduleVector{
		CipherSuite:       suite,
		InitSecret:        initSecret,
		UpdateSecret:      updateSecret,
		GroupContext:      groupContext,
		ConfirmationKey:   keys.ConfirmationKey,
		ApplicationSecret: keys.ApplicationSecret,
		ApplicationKeys:   appKeys,
	}
}

// Verify rederives the cascade from v's inputs and checks every recorded
// output matches.
func (v KeyScheduleVector) Verify() error {
	fresh := GenerateKeyScheduleVector(v.CipherSuite, v.InitSecret, v.UpdateSecret, v.GroupContext, len(v.ApplicationKeys))

	if hex.EncodeToString(fresh.ConfirmationKey) != hex.EncodeToString(v.ConfirmationKey) {
		return fmt.Errorf("testvectors: confirmation_key mismatch")
	}
	if hex.EncodeToString(fresh.ApplicationSecret) != hex.EncodeToString(v.ApplicationSecret) {
		return fmt.Errorf("testvectors: application_secret mismatch")
	}
	for i := range v.ApplicationKeys {
		if hex.EncodeToString(fresh.ApplicationKeys[i]) != hex.EncodeToString(v.ApplicationKeys[i]) {
			return fmt.Errorf("testvectors: application_keys[%d] mismatch", i)
		}
	}
	return nil
}

// Suite bundles one of each vector type, the unit this package's CLI writes
// to and reads from a golden JSON file.
type Suite struct {
	TreeMath    []TreeMathVector    `json:"tree_math"`
	RatchetTree []RatchetTreeVector `json:"ratchet_tree"`
	KeySchedule []KeyScheduleVector `json:"key_schedule"`
}

// Generate builds the standard set of vectors this module ships: tree math
// over a spread of leaf counts, a ratchet tree over a small group, and a key
// schedule cascade with a few generations of application keys.
func Generate() (Suite, error) {
	suite := mlscrypto.X25519_SHA256_AES128GCM

	var s Suite
	for _, n := range []treemath.LeafCount{1, 2, 3, 5, 8, 11} {
		s.TreeMath = append(s.TreeMath, GenerateTreeMathVector(n))
	}

	rt, err := GenerateRatchetTreeVector(suite, 5)
	if err != nil {
		return Suite{}, err
	}
	s.RatchetTree = append(s.RatchetTree, rt)

	// A second tree under P-256 keeps the NIST-curve derivation path
	// pinned too, not just the X25519 one.
	rtP256, err := GenerateRatchetTreeVector(mlscrypto.P256_SHA256_AES128GCM, 4)
	if err != nil {
		return Suite{}, err
	}
	s.RatchetTree = append(s.RatchetTree, rtP256)

	initSecret := deterministicSecret(0, 0x20)
	updateSecret := deterministicSecret(0, 0x30)
	groupContext := []byte("testvectors-group-context")
	s.KeySchedule = append(s.KeySchedule, GenerateKeyScheduleVector(suite, initSecret, updateSecret, groupContext, 4))

	return s, nil
}

// Verify checks every vector in s against a fresh computation, returning the
// first mismatch found.
func (s Suite) Verify() error {
	for i, v := range s.TreeMath {
		if err := v.Verify(); err != nil {
			return fmt.Errorf("tree_math[%d]: %w", i, err)
		}
	}
	for i, v := range s.RatchetTree {
		if err := v.Verify(); err != nil {
			return fmt.Errorf("ratchet_tree[%d]: %w", i, err)
		}
	}
	for i, v := range s.KeySchedule {
		if err := v.Verify(); err != nil {
			return fmt.Errorf("key_schedule[%d]: %w", i, err)
		}
	}
	return nil
}

// Marshal encodes s as indented JSON, the format the golden file is
// checked in under.
func Marshal(s Suite) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal decodes a Suite previously produced by Marshal.
func Unmarshal(data []byte) (Suite, error) {
	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("testvectors: decoding suite: %w", err)
	}
	return s, nil
}
