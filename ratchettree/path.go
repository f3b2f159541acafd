package ratchettree

import (
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/treemath"
)

// DirectPathNode is one entry of an encrypted UpdatePath: the new public
// key installed at that node, plus the node's path secret encrypted once
// per member of its copath sibling's resolution.
type DirectPathNode struct {
	PublicKey            mlscrypto.HPKEPublicKey
	EncryptedPathSecrets []mlscrypto.HPKECiphertext `tls:"head=4"`
}

// DirectPath is an UpdatePath: a DirectPathNode for the sender's own leaf,
// then one per node from the leaf's parent up to the root, in that order.
type DirectPath struct {
	Nodes []DirectPathNode `tls:"head=4"`
}

func (dp *DirectPath) addNode(n DirectPathNode) {
	dp.Nodes = append(dp.Nodes, n)
}

// nodeStep is Derive-Key-Pair's input: HKDF-Expand-Label(ps, "node", "", Nh).
func (t *RatchetTree) nodeStep(pathSecret []byte) []byte {
	return t.CipherSuite.HkdfExpandLabel(pathSecret, "node", []byte{}, t.CipherSuite.Constants().SecretSize)
}

// pathStep is PathSecret[i+1] = HKDF-Expand-Label(PathSecret[i], "path", "", Nh).
func (t *RatchetTree) pathStep(pathSecret []byte) []byte {
	return t.CipherSuite.HkdfExpandLabel(pathSecret, "path", []byte{}, t.CipherSuite.Constants().SecretSize)
}

func (t *RatchetTree) nodePrivateKey(pathSecret []byte) (mlscrypto.HPKEPrivateKey, error) {
	return t.CipherSuite.HPKE().Derive(t.nodeStep(pathSecret))
}

// pathSecrets walks from start up to the root, deriving one path secret
// per node via pathStep, starting from pathSecret at start itself.
func (t *RatchetTree) pathSecrets(start treemath.NodeIndex, pathSecret []byte) map[treemath.NodeIndex][]byte {
	secrets := map[treemath.NodeIndex][]byte{}

	curr := start
	secrets[curr] = append([]byte{}, pathSecret...)

	root := t.rootIndex()
	for curr != root {
		next := treemath.Parent(curr, t.size())
		secrets[next] = t.pathStep(secrets[curr])
		curr = next
	}

	return secrets
}

// SetPath derives the chain of path secrets along direct_path(leaf) from
// leafSecret, installs the resulting key pairs at every node on the path,
// and returns the root path secret as the epoch's update secret. It does
// not produce ciphertexts -- see Encap for the form that's actually sent
// over the wire.
func (t *RatchetTree) SetPath(leaf treemath.LeafIndex, leafSecret []byte) ([]byte, error) {
	leafNode := treemath.ToNodeIndex(leaf)

	priv, err := t.nodePrivateKey(leafSecret)
	if err != nil {
		return nil, fmt.Errorf("ratchettree: deriving leaf key pair: %w", err)
	}
	t.setPrivate(leafNode, priv)

	secrets := t.pathSecrets(leafNode, leafSecret)
	for _, node := range treemath.DirectPath(leafNode, t.size()) {
		priv, err := t.nodePrivateKey(secrets[node])
		if err != nil {
			return nil, fmt.Errorf("ratchettree: deriving path key pair at node %d: %w", node, err)
		}
		t.ensureInit(node)
		t.setPrivate(node, priv)
	}

	t.setHashPath(leaf)
	return secrets[t.rootIndex()], nil
}

// Encap derives the same path secret chain as SetPath, but also encrypts
// each non-leaf path secret once under every public key in the resolution
// of that node's copath sibling, so every other member can recover it.
func (t *RatchetTree) Encap(from treemath.LeafIndex, context, leafSecret []byte) (*DirectPath, []byte, error) {
	dp := &DirectPath{}
	leafNode := treemath.ToNodeIndex(from)

	priv, err := t.nodePrivateKey(leafSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("ratchettree: deriving leaf key pair: %w", err)
	}
	t.setPrivate(leafNode, priv)
	dp.addNode(DirectPathNode{PublicKey: t.getPublic(leafNode)})

	secrets := t.pathSecrets(leafNode, leafSecret)

	for _, sibling := range treemath.Copath(leafNode, t.size()) {
		node := treemath.Parent(sibling, t.size())

		pathSecret := secrets[node]
		priv, err := t.nodePrivateKey(pathSecret)
		if err != nil {
			return nil, nil, fmt.Errorf("ratchettree: deriving path key pair at node %d: %w", node, err)
		}
		t.ensureInit(node)
		t.setPrivate(node, priv)

		pathNode := DirectPathNode{PublicKey: t.getPublic(node)}
		for _, r := range t.resolve(sibling) {
			pk := t.getPublic(r)
			ct, err := t.CipherSuite.HPKE().Encrypt(pk, context, pathSecret)
			if err != nil {
				return nil, nil, fmt.Errorf("ratchettree: encrypting path secret to node %d: %w", r, err)
			}
			pathNode.EncryptedPathSecrets = append(pathNode.EncryptedPathSecrets, ct)
		}
		dp.addNode(pathNode)
	}

	t.setHashPath(from)
	return dp, secrets[t.rootIndex()], nil
}

// decryptPathSecret finds the highest ancestor of the receiver on the
// sender's direct path whose copath-sibling resolution contains a node the
// receiver holds the private key for, decrypts that ciphertext, and
// returns the recovered path secret together with the node it's at.
func (t *RatchetTree) decryptPathSecret(from treemath.LeafIndex, context []byte, path *DirectPath) (treemath.NodeIndex, []byte, error) {
	leafNode := treemath.ToNodeIndex(from)
	cp := treemath.Copath(leafNode, t.size())
	if len(path.Nodes) != len(cp)+1 {
		return 0, nil, fmt.Errorf("ratchettree: malformed direct path: %d entries, expected %d", len(path.Nodes), len(cp)+1)
	}

	for i, sibling := range cp {
		res := t.resolve(sibling)
		pathNode := path.Nodes[i+1]

		if len(pathNode.EncryptedPathSecrets) != len(res) {
			return 0, nil, fmt.Errorf("ratchettree: malformed direct path node %d: %d ciphertexts, expected %d", i, len(pathNode.EncryptedPathSecrets), len(res))
		}

		for idx, r := range res {
			if !t.hasPrivate(r) {
				continue
			}

			priv := t.getPrivate(r)
			pathSecret, err := t.CipherSuite.HPKE().Decrypt(priv, context, pathNode.EncryptedPathSecrets[idx])
			if err != nil {
				return 0, nil, fmt.Errorf("ratchettree: decrypting path secret at node %d: %w", r, err)
			}

			return treemath.Parent(sibling, t.size()), pathSecret, nil
		}
	}

	return 0, nil, fmt.Errorf("ratchettree: %w", ErrMissingNode)
}

// Decap installs the sender's new public keys along its direct path,
// recovers the path secret at the overlap with the receiver's own held
// keys, and re-derives every path secret above it, installing the
// corresponding private keys. It returns the new update secret.
func (t *RatchetTree) Decap(from treemath.LeafIndex, context []byte, path *DirectPath) ([]byte, error) {
	leafNode := treemath.ToNodeIndex(from)
	dp := treemath.DirectPath(leafNode, t.size())
	if len(path.Nodes) != len(dp)+1 {
		return nil, fmt.Errorf("ratchettree: malformed direct path: %d entries, expected %d", len(path.Nodes), len(dp)+1)
	}

	t.ensureInit(leafNode)
	t.setPublic(leafNode, path.Nodes[0].PublicKey)
	for i, node := range dp {
		t.ensureInit(node)
		t.setPublic(node, path.Nodes[i+1].PublicKey)
	}

	overlap, pathSecret, err := t.decryptPathSecret(from, context, path)
	if err != nil {
		return nil, err
	}

	secrets := t.pathSecrets(overlap, pathSecret)
	for node, secret := range secrets {
		priv, err := t.nodePrivateKey(secret)
		if err != nil {
			return nil, fmt.Errorf("ratchettree: re-deriving key pair at node %d: %w", node, err)
		}

		existing := t.getPublic(node)
		if string(existing.Raw()) != string(priv.PublicKey.Raw()) {
			return nil, fmt.Errorf("ratchettree: node %d: %w", node, ErrIncompatibleNodes)
		}

		t.setPrivate(node, priv)
	}

	t.setHashPath(from)
	return secrets[t.rootIndex()], nil
}
