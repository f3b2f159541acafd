package ratchettree

import (
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/credential"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/treemath"
)

// RatchetTree is the left-balanced binary tree of HPKE key pairs backing
// one group's TreeKEM state. Private keys are kept out of band in
// secrets, never serialized -- only the public structure crosses the wire.
type RatchetTree struct {
	Nodes       []OptionalNode `tls:"head=4"`
	CipherSuite mlscrypto.CipherSuite `tls:"omit"`
	secrets     map[treemath.NodeIndex]mlscrypto.HPKEPrivateKey
}

// New returns an empty tree for suite.
func New(suite mlscrypto.CipherSuite) *RatchetTree {
	return &RatchetTree{
		Nodes:       []OptionalNode{},
		CipherSuite: suite,
		secrets:     map[treemath.NodeIndex]mlscrypto.HPKEPrivateKey{},
	}
}

// NewFromSecrets builds a tree of len(leafSecrets) leaves in one shot: each
// leaf's key pair is HKDF-derived from its own secret, and every path key
// above it is then computed by bottom-up derivation via SetPath.
func NewFromSecrets(suite mlscrypto.CipherSuite, leafSecrets [][]byte, credentials []*credential.Credential) (*RatchetTree, error) {
	if len(leafSecrets) != len(credentials) {
		return nil, fmt.Errorf("ratchettree: %d secrets but %d credentials", len(leafSecrets), len(credentials))
	}

	t := New(suite)
	for i, secret := range leafSecrets {
		priv, err := suite.HPKE().Derive(t.nodeStep(secret))
		if err != nil {
			return nil, fmt.Errorf("ratchettree: deriving leaf %d key pair: %w", i, err)
		}

		if err := t.AddLeaf(treemath.LeafIndex(i), &priv.PublicKey, credentials[i]); err != nil {
			return nil, err
		}

		if _, err := t.SetPath(treemath.LeafIndex(i), secret); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t RatchetTree) MarshalTLS() ([]byte, error) {
	return mlssyntax.Marshal(struct {
		Nodes []OptionalNode `tls:"head=4"`
	}{Nodes: t.Nodes})
}

func (t *RatchetTree) UnmarshalTLS(data []byte) (int, error) {
	var wire struct {
		Nodes []OptionalNode `tls:"head=4"`
	}
	read, err := mlssyntax.Unmarshal(data, &wire)
	if err != nil {
		return 0, fmt.Errorf("ratchettree: unmarshal failed: %w", err)
	}
	t.Nodes = wire.Nodes
	if t.secrets == nil {
		t.secrets = map[treemath.NodeIndex]mlscrypto.HPKEPrivateKey{}
	}

	// The wire encoding carries no suite discriminant. When this tree is a
	// field of a larger struct the containing decoder threads the suite in
	// afterwards via SetSuite, which is also when hashes get computed.
	if t.CipherSuite != 0 {
		t.setHashAll(t.rootIndex())
	}
	return read, nil
}

// SetSuite installs the cipher suite on a tree decoded from the wire and
// recomputes every node hash under it.
func (t *RatchetTree) SetSuite(suite mlscrypto.CipherSuite) {
	t.CipherSuite = suite
	if len(t.Nodes) > 0 {
		t.setHashAll(t.rootIndex())
	}
}

// size is the number of leaves currently provisioned, derived from the
// node slice's length -- see treemath.LeafWidth.
func (t *RatchetTree) size() treemath.LeafCount {
	return treemath.LeafWidth(treemath.NodeCount(len(t.Nodes)))
}

func (t *RatchetTree) rootIndex() treemath.NodeIndex {
	return treemath.Root(t.size())
}

func (t *RatchetTree) occupied(l treemath.LeafIndex) bool {
	n := treemath.ToNodeIndex(l)
	if int(n) >= len(t.Nodes) {
		return false
	}
	return !t.Nodes[n].blank()
}

// Occupied reports whether leaf holds a member, guarding callers that would
// otherwise have to catch Credential's panic on a blank leaf.
func (t *RatchetTree) Occupied(l treemath.LeafIndex) bool {
	return t.occupied(l)
}

// Size is the number of leaf slots currently provisioned in the tree
// (occupied or blanked, but allocated).
func (t *RatchetTree) Size() treemath.LeafCount {
	return t.size()
}

func (t *RatchetTree) setPublic(n treemath.NodeIndex, pub mlscrypto.HPKEPublicKey) {
	t.Nodes[n].Node.PublicKey = &pub
	t.Nodes[n].Node.UnmergedLeaves = []treemath.LeafIndex{}
}

func (t *RatchetTree) getPublic(n treemath.NodeIndex) mlscrypto.HPKEPublicKey {
	return *t.Nodes[n].Node.PublicKey
}

func (t *RatchetTree) setPrivate(n treemath.NodeIndex, priv mlscrypto.HPKEPrivateKey) {
	t.secrets[n] = priv
	t.setPublic(n, priv.PublicKey)
}

func (t *RatchetTree) getPrivate(n treemath.NodeIndex) mlscrypto.HPKEPrivateKey {
	return t.secrets[n]
}

func (t *RatchetTree) hasPrivate(n treemath.NodeIndex) bool {
	_, ok := t.secrets[n]
	return ok
}

func (t *RatchetTree) ensureInit(n treemath.NodeIndex) {
	if t.Nodes[n].Node == nil {
		t.Nodes[n].Node = &Node{UnmergedLeaves: []treemath.LeafIndex{}}
	}
}

// resolve is the resolution of a node: itself plus its unmerged leaves if
// occupied, the empty list if a blank leaf, or the concatenated
// resolutions of its children if a blank internal node.
func (t *RatchetTree) resolve(index treemath.NodeIndex) []treemath.NodeIndex {
	if t.Nodes[index].Node != nil {
		res := []treemath.NodeIndex{index}
		for _, l := range t.Nodes[index].Node.UnmergedLeaves {
			res = append(res, treemath.ToNodeIndex(l))
		}
		return res
	}

	if treemath.Level(index) == 0 {
		return []treemath.NodeIndex{}
	}

	l := t.resolve(treemath.Left(index))
	r := t.resolve(treemath.Right(index, t.size()))
	return append(l, r...)
}

func (t *RatchetTree) setHash(index treemath.NodeIndex) {
	if treemath.Level(index) == 0 {
		t.Nodes[index].setLeafHash(t.CipherSuite)
		return
	}
	l := treemath.Left(index)
	r := treemath.Right(index, t.size())
	t.Nodes[index].setParentHash(t.CipherSuite, t.Nodes[l], t.Nodes[r])
}

// setHashPath recomputes the hash of leaf and everything from its parent
// up to the root -- everything a single leaf mutation can have changed.
func (t *RatchetTree) setHashPath(leaf treemath.LeafIndex) {
	curr := treemath.ToNodeIndex(leaf)
	t.Nodes[curr].setLeafHash(t.CipherSuite)

	size := t.size()
	r := treemath.Root(size)
	for curr != r {
		curr = treemath.Parent(curr, size)
		l := treemath.Left(curr)
		rr := treemath.Right(curr, size)
		t.Nodes[curr].setParentHash(t.CipherSuite, t.Nodes[l], t.Nodes[rr])
	}
}

func (t *RatchetTree) setHashAll(index treemath.NodeIndex) {
	if len(t.Nodes) == 0 {
		return
	}
	if treemath.Level(index) == 0 {
		t.setHash(index)
		return
	}
	l := treemath.Left(index)
	r := treemath.Right(index, t.size())
	t.setHashAll(l)
	t.setHashAll(r)
	t.setHash(index)
}

// RootHash is the hash of the root's subtree under the node hash schema.
func (t *RatchetTree) RootHash() []byte {
	return t.Nodes[t.rootIndex()].Hash
}

// AddLeaf installs a leaf at index. The adder only ever supplies a public
// key; the joiner alone knows the matching private key and installs it
// itself via MergePrivate. Every node from the leaf's
// parent up to the root is blanked, whether or not it was previously
// occupied: none of their existing private keys cover the new leaf, and
// resolve()'s blank-node-recurses-to-children rule is what lets the new
// leaf receive the next Update's or Remove's path secret directly, rather
// than tracking it in an unmerged-leaves set (UnmergedLeaves stays empty
// in this version -- see Node).
func (t *RatchetTree) AddLeaf(index treemath.LeafIndex, key *mlscrypto.HPKEPublicKey, cred *credential.Credential) error {
	n := treemath.ToNodeIndex(index)

	if treemath.LeafCount(index) >= t.size() {
		if len(t.Nodes) == 0 {
			t.Nodes = append(t.Nodes, OptionalNode{})
		}
		for i := treemath.NodeIndex(len(t.Nodes)); i <= n; i++ {
			t.Nodes = append(t.Nodes, OptionalNode{})
		}
	}

	t.Nodes[n] = newLeafNode(key, cred)

	for _, v := range treemath.DirectPath(n, t.size()) {
		t.Nodes[v].Node = nil
		delete(t.secrets, v)
	}

	t.setHashPath(index)
	return nil
}

// BlankPath marks every node from leaf up to (and including) the root as
// blank, optionally sparing the leaf itself. Used when removing a member:
// its own leaf can stay provisioned with a tombstone credential, or be
// cleared entirely, depending on the caller's policy.
func (t *RatchetTree) BlankPath(leaf treemath.LeafIndex, includeLeaf bool) error {
	if len(t.Nodes) == 0 {
		return nil
	}

	size := t.size()
	r := t.rootIndex()
	curr := treemath.ToNodeIndex(leaf)
	first := true

	for curr != r {
		if !(first && !includeLeaf) {
			t.Nodes[curr].Node = nil
		}
		delete(t.secrets, curr)
		first = false
		curr = treemath.Parent(curr, size)
	}

	t.Nodes[r].Node = nil
	delete(t.secrets, r)
	t.setHashPath(leaf)
	return nil
}

// MergePublic installs a public key at an already-occupied leaf, without
// touching its private half -- used when observing another member's
// Update rather than performing one's own.
func (t *RatchetTree) MergePublic(index treemath.LeafIndex, key *mlscrypto.HPKEPublicKey) error {
	curr := treemath.ToNodeIndex(index)
	if t.Nodes[curr].blank() {
		return fmt.Errorf("ratchettree: cannot merge a public key into a blank leaf")
	}
	t.setPublic(curr, *key)
	t.setHashPath(index)
	return nil
}

// MergePrivate installs both halves of a key pair at an occupied leaf --
// used when re-deriving one's own leaf key (e.g. from a PSK-like secret)
// outside the normal SetPath/Encap flow.
func (t *RatchetTree) MergePrivate(index treemath.LeafIndex, priv mlscrypto.HPKEPrivateKey) error {
	curr := treemath.ToNodeIndex(index)
	if t.Nodes[curr].blank() {
		return fmt.Errorf("ratchettree: cannot merge a private key into a blank leaf")
	}
	t.setPrivate(curr, priv)
	t.setHashPath(index)
	return nil
}

func (t *RatchetTree) Credential(index treemath.LeafIndex) *credential.Credential {
	ni := treemath.ToNodeIndex(index)
	if t.Nodes[ni].Node == nil {
		panic(fmt.Errorf("ratchettree: requested credential for a blank leaf"))
	}
	return t.Nodes[ni].Node.Credential
}

func (t *RatchetTree) Equals(o *RatchetTree) bool {
	if len(t.Nodes) != len(o.Nodes) {
		return false
	}
	for i := range t.Nodes {
		if !t.Nodes[i].Equals(o.Nodes[i]) {
			return false
		}
	}
	return true
}

// LeftmostFree returns the lowest-index leaf slot not currently occupied,
// or t.size() if the tree is fully occupied and the caller must extend it.
func (t *RatchetTree) LeftmostFree() treemath.LeafIndex {
	curr := treemath.LeafIndex(0)
	for treemath.LeafCount(curr) < t.size() && t.occupied(curr) {
		curr++
	}
	return curr
}

// Find locates the leaf holding exactly this public key and credential, if
// any -- used to locate a joiner's own leaf once its Add has been merged.
func (t *RatchetTree) Find(pub mlscrypto.HPKEPublicKey, cred credential.Credential) (treemath.LeafIndex, bool) {
	for i := treemath.LeafIndex(0); treemath.LeafCount(i) < t.size(); i++ {
		n := t.Nodes[treemath.ToNodeIndex(i)]
		if n.blank() {
			continue
		}
		if string(n.Node.PublicKey.Raw()) == string(pub.Raw()) && n.Node.Credential.Equals(cred) {
			return i, true
		}
	}
	return 0, false
}

func (t *RatchetTree) clone() *RatchetTree {
	return t.Clone()
}

// Clone deep-copies the tree, including the private keys the caller
// currently holds. Used by the group state machine when deriving a new
// epoch's tree from the previous one without disturbing it.
func (t *RatchetTree) Clone() *RatchetTree {
	nodes := make([]OptionalNode, len(t.Nodes))
	for i, n := range t.Nodes {
		nodes[i] = n.Clone()
	}

	secrets := make(map[treemath.NodeIndex]mlscrypto.HPKEPrivateKey, len(t.secrets))
	for k, v := range t.secrets {
		secrets[k] = v
	}

	return &RatchetTree{Nodes: nodes, CipherSuite: t.CipherSuite, secrets: secrets}
}
