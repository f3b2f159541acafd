// Package ratchettree implements the TreeKEM ratchet tree: a left-balanced
// binary tree of HPKE key pairs where every member holds the private keys
// along its own direct path, letting one encrypted update rekey an entire
// group in O(log n) ciphertexts instead of one-per-member.
package ratchettree

import (
	"bytes"
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/credential"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/treemath"
)

// Node is the provisioned content of a non-blank tree slot: a public HPKE
// key, an unmerged-leaves set that this version of the tree always leaves
// empty (kept for wire-format parity -- see RatchetTree.AddLeaf, which
// blanks rather than populates it), and -- leaves only -- the owning
// member's credential.
type Node struct {
	PublicKey      *mlscrypto.HPKEPublicKey `tls:"optional"`
	UnmergedLeaves []treemath.LeafIndex     `tls:"head=4"`
	Credential     *credential.Credential   `tls:"optional"`
}

func (n Node) Equals(o Node) bool {
	if (n.Credential == nil) != (o.Credential == nil) {
		return false
	}
	if n.Credential != nil && !n.Credential.Equals(*o.Credential) {
		return false
	}

	if (n.PublicKey == nil) != (o.PublicKey == nil) {
		return false
	}
	if n.PublicKey != nil && !bytes.Equal(n.PublicKey.Raw(), o.PublicKey.Raw()) {
		return false
	}

	if len(n.UnmergedLeaves) != len(o.UnmergedLeaves) {
		return false
	}
	for i := range n.UnmergedLeaves {
		if n.UnmergedLeaves[i] != o.UnmergedLeaves[i] {
			return false
		}
	}
	return true
}

func (n Node) Clone() Node {
	cloned := Node{
		Credential:     n.Credential,
		PublicKey:      n.PublicKey,
		UnmergedLeaves: append([]treemath.LeafIndex{}, n.UnmergedLeaves...),
	}
	return cloned
}

// OptionalNode is one slot of the tree: either blank (Node == nil) or
// occupied, plus its cached node hash.
type OptionalNode struct {
	Node *Node  `tls:"optional"`
	Hash []byte `tls:"omit"`
}

func newLeafNode(key *mlscrypto.HPKEPublicKey, cred *credential.Credential) OptionalNode {
	return OptionalNode{
		Node: &Node{
			PublicKey:      key,
			Credential:     cred,
			UnmergedLeaves: []treemath.LeafIndex{},
		},
	}
}

func (n OptionalNode) blank() bool {
	return n.Node == nil
}

func (n OptionalNode) Equals(o OptionalNode) bool {
	if n.blank() != o.blank() {
		return false
	}
	if n.blank() {
		return true
	}
	return n.Node.Equals(*o.Node)
}

func (n OptionalNode) Clone() OptionalNode {
	cloned := OptionalNode{Hash: append([]byte{}, n.Hash...)}
	if !n.blank() {
		node := n.Node.Clone()
		cloned.Node = &node
	}
	return cloned
}

func marshalCredential(cred *credential.Credential) []byte {
	if cred == nil {
		return nil
	}
	enc, err := mlssyntax.Marshal(*cred)
	if err != nil {
		panic(fmt.Errorf("ratchettree: marshaling credential: %w", err))
	}
	return enc
}

func marshalPublicKey(pub *mlscrypto.HPKEPublicKey) []byte {
	if pub == nil {
		return nil
	}
	enc, err := mlssyntax.Marshal(*pub)
	if err != nil {
		panic(fmt.Errorf("ratchettree: marshaling public key: %w", err))
	}
	return enc
}

// setLeafHash implements the leaf hash schema:
// Hash(0x01 || credential-encoding || (public_key-encoding or empty)),
// with an absent leaf hashed as Hash(0x01 || empty-credential || empty).
func (n *OptionalNode) setLeafHash(cs mlscrypto.CipherSuite) {
	var credEnc, pubEnc []byte
	if n.Node != nil {
		if n.Node.Credential == nil {
			panic(fmt.Errorf("ratchettree: leaf node has no credential"))
		}
		credEnc = marshalCredential(n.Node.Credential)
		pubEnc = marshalPublicKey(n.Node.PublicKey)
	}

	input := append([]byte{0x01}, credEnc...)
	input = append(input, pubEnc...)
	n.Hash = cs.Digest(input)
}

// setParentHash implements the parent hash schema:
// Hash(0x02 || (public_key-encoding or empty) || left_hash || right_hash).
func (n *OptionalNode) setParentHash(cs mlscrypto.CipherSuite, l, r OptionalNode) {
	var pubEnc []byte
	if n.Node != nil {
		pubEnc = marshalPublicKey(n.Node.PublicKey)
	}

	input := append([]byte{0x02}, pubEnc...)
	input = append(input, l.Hash...)
	input = append(input, r.Hash...)
	n.Hash = cs.Digest(input)
}
