package mls

import (
	"crypto/hmac"
	"fmt"

	"github.com/sylph01/mlspp/credential"
	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/keyschedule"
	"github.com/sylph01/mlspp/message"
	"github.com/sylph01/mlspp/ratchettree"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/treemath"
)

// GroupContext is the TLS-encoded input folded into every epoch's key
// schedule and HPKE path-secret encryption: {group_id, epoch, tree_hash,
// interim_transcript_hash}.
type GroupContext struct {
	GroupID               []byte `tls:"head=1"`
	Epoch                 uint64
	TreeHash              []byte `tls:"head=1"`
	InterimTranscriptHash []byte `tls:"head=1"`
}

func (gc GroupContext) bytes() ([]byte, error) {
	enc, err := mlssyntax.Marshal(gc)
	if err != nil {
		return nil, fmt.Errorf("mls: marshaling group context: %w", err)
	}
	return enc, nil
}

// State is one epoch of a group's life: a ratchet tree, the transcript
// hashes binding every past handshake into the current one, and the key
// schedule secrets derived for this epoch. Every transition -- Add,
// Update, Remove, Handle -- returns a fresh State rather than mutating the
// receiver, so a caller can always keep the previous epoch around (e.g.
// to decrypt a message that crossed the wire just before a commit).
type State struct {
	CipherSuite             mlscrypto.CipherSuite
	GroupID                 []byte
	Epoch                   uint64
	Tree                    *ratchettree.RatchetTree
	ConfirmedTranscriptHash []byte
	InterimTranscriptHash   []byte
	Index                   treemath.LeafIndex
	Credential              credential.Credential
	Keys                    keyschedule.EpochSecrets

	chain         *keyschedule.ApplicationKeyChain
	senderDataKey []byte
}

func (s *State) groupContext() GroupContext {
	return GroupContext{
		GroupID:               s.GroupID,
		Epoch:                 s.Epoch,
		TreeHash:              s.Tree.RootHash(),
		InterimTranscriptHash: s.InterimTranscriptHash,
	}
}

// NewState starts a brand-new one-member group: cred becomes the group's
// sole founding member at leaf 0, with leafSecret seeding both its leaf
// key pair and the root path secret fed into epoch 1's key schedule.
func NewState(groupID []byte, suite mlscrypto.CipherSuite, leafSecret []byte, cred credential.Credential) (*State, error) {
	tree := ratchettree.New(suite)

	nodeSecret := suite.HkdfExpandLabel(leafSecret, "node", []byte{}, suite.Constants().SecretSize)
	priv, err := suite.HPKE().Derive(nodeSecret)
	if err != nil {
		return nil, fmt.Errorf("mls: deriving founding leaf key pair: %w", err)
	}

	pubCred := cred.Public()
	if err := tree.AddLeaf(0, &priv.PublicKey, &pubCred); err != nil {
		return nil, err
	}

	updateSecret, err := tree.SetPath(0, leafSecret)
	if err != nil {
		return nil, err
	}

	s := &State{
		CipherSuite: suite,
		GroupID:     dup(groupID),
		Epoch:       0,
		Tree:        tree,
		Index:       0,
		Credential:  cred,
		Keys:        keyschedule.EpochSecrets{Suite: suite, InitSecret: make([]byte, suite.Constants().SecretSize)},
	}

	gc := GroupContext{GroupID: s.GroupID, Epoch: 1, TreeHash: tree.RootHash(), InterimTranscriptHash: nil}
	gcBytes, err := gc.bytes()
	if err != nil {
		return nil, err
	}

	keys := keyschedule.Next(suite, s.Keys.InitSecret, updateSecret, gcBytes)
	s.Epoch = 1
	s.Keys = keys
	s.chain = keyschedule.NewApplicationKeyChain(suite, keys.ApplicationSecret)
	s.senderDataKey = message.DeriveSenderDataKey(suite, keys.ApplicationSecret)
	return s, nil
}

// computeConfirmedHash derives the epoch secrets for the transition to
// newTree/updateSecret and the resulting confirmed_transcript_hash, from
// pt's content alone (content_type, body -- never confirmation or
// signature, see message.MLSPlaintext.TranscriptContent).
func (s *State) computeConfirmedHash(newTree *ratchettree.RatchetTree, updateSecret []byte, pt *message.MLSPlaintext) ([]byte, keyschedule.EpochSecrets, error) {
	gc := GroupContext{
		GroupID:               s.GroupID,
		Epoch:                 s.Epoch + 1,
		TreeHash:              newTree.RootHash(),
		InterimTranscriptHash: s.InterimTranscriptHash,
	}
	gcBytes, err := gc.bytes()
	if err != nil {
		return nil, keyschedule.EpochSecrets{}, err
	}

	keys := keyschedule.Next(s.CipherSuite, s.Keys.InitSecret, updateSecret, gcBytes)

	tc, err := pt.TranscriptContent()
	if err != nil {
		return nil, keyschedule.EpochSecrets{}, err
	}

	confirmed := s.CipherSuite.Digest(append(dup(s.InterimTranscriptHash), tc...))
	return confirmed, keys, nil
}

func (s *State) interimHash(confirmed []byte, pt *message.MLSPlaintext) ([]byte, error) {
	auth, err := pt.AuthData()
	if err != nil {
		return nil, err
	}
	return s.CipherSuite.Digest(append(dup(confirmed), auth...)), nil
}

func (s *State) nextState(newTree *ratchettree.RatchetTree, keys keyschedule.EpochSecrets, confirmed, interim []byte, index treemath.LeafIndex) *State {
	return &State{
		CipherSuite:             s.CipherSuite,
		GroupID:                 s.GroupID,
		Epoch:                   s.Epoch + 1,
		Tree:                    newTree,
		ConfirmedTranscriptHash: confirmed,
		InterimTranscriptHash:   interim,
		Index:                   index,
		Credential:              s.Credential,
		Keys:                    keys,
		chain:                   keyschedule.NewApplicationKeyChain(s.CipherSuite, keys.ApplicationSecret),
		senderDataKey:           message.DeriveSenderDataKey(s.CipherSuite, keys.ApplicationSecret),
	}
}

// commitOperation is the sender's half of applying a handshake operation:
// it sets pt's confirmation and signature (in that order -- the signature
// covers the confirmation), then advances to the next epoch's State.
func (s *State) commitOperation(pt *message.MLSPlaintext, newTree *ratchettree.RatchetTree, updateSecret []byte, index treemath.LeafIndex) (*State, error) {
	confirmed, keys, err := s.computeConfirmedHash(newTree, updateSecret, pt)
	if err != nil {
		return nil, err
	}

	pt.Confirmation = s.CipherSuite.HMAC(keys.ConfirmationKey, confirmed)
	if err := pt.Sign(s.Credential); err != nil {
		return nil, err
	}

	interim, err := s.interimHash(confirmed, pt)
	if err != nil {
		return nil, err
	}
	return s.nextState(newTree, keys, confirmed, interim, index), nil
}

// applyOperation is a receiver's half: it verifies pt's signature against
// senderCred, recomputes the same confirmation the sender must have
// produced, and rejects the message if it doesn't match -- the check that
// binds the received handshake to the key schedule it claims to commit.
func (s *State) applyOperation(pt *message.MLSPlaintext, newTree *ratchettree.RatchetTree, updateSecret []byte, senderCred credential.Credential, index treemath.LeafIndex) (*State, error) {
	if !pt.Verify(senderCred.PublicKey()) {
		return nil, ErrProtocol
	}

	confirmed, keys, err := s.computeConfirmedHash(newTree, updateSecret, pt)
	if err != nil {
		return nil, err
	}

	expected := s.CipherSuite.HMAC(keys.ConfirmationKey, confirmed)
	if !hmac.Equal(expected, pt.Confirmation) {
		return nil, ErrProtocol
	}

	interim, err := s.interimHash(confirmed, pt)
	if err != nil {
		return nil, err
	}
	return s.nextState(newTree, keys, confirmed, interim, index), nil
}

func (s *State) senderCredential(index treemath.LeafIndex) (credential.Credential, error) {
	if !s.Tree.Occupied(index) {
		return credential.Credential{}, fmt.Errorf("mls: %w: sender leaf %d is blank", ErrInvalidIndex, index)
	}
	return *s.Tree.Credential(index), nil
}

// Add introduces joinerCIK as a new member. It returns the handshake
// message every existing member applies via Handle, a Welcome addressed
// to the joiner alone (carrying the pre-Add group state so the joiner can
// bootstrap via JoinFromWelcome + HandleAsJoiner), and the adder's own
// next-epoch State.
//
// A pure Add does not re-key the tree -- no member's path is encrypted, so
// there is nothing for other members to decrypt and recover an update
// secret from. The update_secret fed into this epoch's key schedule is
// therefore all-zero: forward secrecy for this epoch rests on whatever the
// previous epoch's update already provided, same as if no operation had
// happened at all. A subsequent Update or Remove is what actually
// refreshes key material after an Add.
func (s *State) Add(joinerCIK credential.ClientInitKey) (*message.MLSPlaintext, *Welcome, *State, error) {
	pub, ok := joinerCIK.InitKeyFor(s.CipherSuite)
	if !ok {
		return nil, nil, nil, ErrInvalidParameter
	}
	if !joinerCIK.Verify() {
		return nil, nil, nil, ErrInvalidParameter
	}

	index := s.Tree.LeftmostFree()

	gi := &GroupInfo{
		GroupID:                 dup(s.GroupID),
		Epoch:                   s.Epoch,
		Tree:                    *s.Tree.Clone(),
		ConfirmedTranscriptHash: dup(s.ConfirmedTranscriptHash),
		InterimTranscriptHash:   dup(s.InterimTranscriptHash),
		InitSecret:              dup(s.Keys.InitSecret),
		SignerIndex:             uint32(s.Index),
	}
	if err := gi.Sign(s.Credential); err != nil {
		return nil, nil, nil, err
	}

	giBytes, err := mlssyntax.Marshal(*gi)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mls: marshaling GroupInfo: %w", err)
	}

	// Empty HPKE context: the joiner has no shared state with the group
	// yet, so the welcome's encryption can't be bound to anything beyond
	// the joiner's own init key.
	ct, err := s.CipherSuite.HPKE().Encrypt(pub, []byte{}, giBytes)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mls: encrypting GroupInfo: %w", err)
	}

	cikEnc, err := mlssyntax.Marshal(joinerCIK)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mls: marshaling ClientInitKey: %w", err)
	}
	welcome := &Welcome{
		Version:            1,
		CipherSuite:        s.CipherSuite,
		ClientInitKeyHash:  s.CipherSuite.Digest(cikEnc),
		EncryptedGroupInfo: ct,
	}

	addOp := &AddOperation{
		Index:           uint32(index),
		ClientInitKey:   joinerCIK,
		WelcomeInfoHash: s.CipherSuite.Digest(giBytes),
	}
	body, err := HandshakeOperation{Type: OperationTypeAdd, Add: addOp}.Marshal()
	if err != nil {
		return nil, nil, nil, err
	}

	pt := &message.MLSPlaintext{
		GroupID:     dup(s.GroupID),
		Epoch:       s.Epoch,
		Sender:      message.Sender{Type: message.SenderTypeMember, Leaf: uint32(s.Index)},
		ContentType: message.ContentTypeHandshake,
		Body:        body,
	}

	newTree := s.Tree.Clone()
	leafCred := joinerCIK.Credential
	if err := newTree.AddLeaf(index, &pub, &leafCred); err != nil {
		return nil, nil, nil, err
	}

	updateSecret := make([]byte, s.CipherSuite.Constants().SecretSize)
	next, err := s.commitOperation(pt, newTree, updateSecret, s.Index)
	if err != nil {
		return nil, nil, nil, err
	}
	return pt, welcome, next, nil
}

func (s *State) handleAdd(pt *message.MLSPlaintext, senderIndex treemath.LeafIndex, add *AddOperation) (*State, error) {
	senderCred, err := s.senderCredential(senderIndex)
	if err != nil {
		return nil, err
	}

	pub, ok := add.ClientInitKey.InitKeyFor(s.CipherSuite)
	if !ok {
		return nil, ErrInvalidParameter
	}
	if !add.ClientInitKey.Verify() {
		return nil, ErrInvalidParameter
	}

	newTree := s.Tree.Clone()
	leafCred := add.ClientInitKey.Credential
	if err := newTree.AddLeaf(treemath.LeafIndex(add.Index), &pub, &leafCred); err != nil {
		return nil, err
	}

	updateSecret := make([]byte, s.CipherSuite.Constants().SecretSize)
	return s.applyOperation(pt, newTree, updateSecret, senderCred, s.Index)
}

// Update replaces the sender's own leaf key pair, re-keying the tree along
// its direct path from newLeafSecret and returning both the handshake
// message and the sender's own next-epoch State.
func (s *State) Update(newLeafSecret []byte) (*message.MLSPlaintext, *State, error) {
	newTree := s.Tree.Clone()

	ctx, err := s.groupContext().bytes()
	if err != nil {
		return nil, nil, err
	}

	dp, updateSecret, err := newTree.Encap(s.Index, ctx, newLeafSecret)
	if err != nil {
		return nil, nil, err
	}

	dpBytes, err := mlssyntax.Marshal(*dp)
	if err != nil {
		return nil, nil, fmt.Errorf("mls: marshaling direct path: %w", err)
	}

	body, err := HandshakeOperation{Type: OperationTypeUpdate, Update: &UpdateOperation{Path: dpBytes}}.Marshal()
	if err != nil {
		return nil, nil, err
	}

	pt := &message.MLSPlaintext{
		GroupID:     dup(s.GroupID),
		Epoch:       s.Epoch,
		Sender:      message.Sender{Type: message.SenderTypeMember, Leaf: uint32(s.Index)},
		ContentType: message.ContentTypeHandshake,
		Body:        body,
	}

	next, err := s.commitOperation(pt, newTree, updateSecret, s.Index)
	if err != nil {
		return nil, nil, err
	}
	return pt, next, nil
}

func (s *State) handleUpdate(pt *message.MLSPlaintext, senderIndex treemath.LeafIndex, update *UpdateOperation) (*State, error) {
	senderCred, err := s.senderCredential(senderIndex)
	if err != nil {
		return nil, err
	}

	var dp ratchettree.DirectPath
	if _, err := mlssyntax.Unmarshal(update.Path, &dp); err != nil {
		return nil, fmt.Errorf("mls: unmarshaling direct path: %w", err)
	}

	newTree := s.Tree.Clone()
	ctx, err := s.groupContext().bytes()
	if err != nil {
		return nil, err
	}

	updateSecret, err := newTree.Decap(senderIndex, ctx, &dp)
	if err != nil {
		return nil, err
	}

	return s.applyOperation(pt, newTree, updateSecret, senderCred, s.Index)
}

// Remove excludes the member at target. The remover blanks the removed
// leaf's path and then re-keys its own direct path exactly as Update does,
// so the tree's root secret after a Remove is unrecoverable by the
// excluded member even if it retained every private key it ever held.
func (s *State) Remove(target treemath.LeafIndex, newLeafSecret []byte) (*message.MLSPlaintext, *State, error) {
	newTree := s.Tree.Clone()
	if err := newTree.BlankPath(target, true); err != nil {
		return nil, nil, err
	}

	ctx, err := s.groupContext().bytes()
	if err != nil {
		return nil, nil, err
	}

	dp, updateSecret, err := newTree.Encap(s.Index, ctx, newLeafSecret)
	if err != nil {
		return nil, nil, err
	}

	dpBytes, err := mlssyntax.Marshal(*dp)
	if err != nil {
		return nil, nil, fmt.Errorf("mls: marshaling direct path: %w", err)
	}

	body, err := HandshakeOperation{Type: OperationTypeRemove, Remove: &RemoveOperation{Removed: uint32(target), Path: dpBytes}}.Marshal()
	if err != nil {
		return nil, nil, err
	}

	pt := &message.MLSPlaintext{
		GroupID:     dup(s.GroupID),
		Epoch:       s.Epoch,
		Sender:      message.Sender{Type: message.SenderTypeMember, Leaf: uint32(s.Index)},
		ContentType: message.ContentTypeHandshake,
		Body:        body,
	}

	next, err := s.commitOperation(pt, newTree, updateSecret, s.Index)
	if err != nil {
		return nil, nil, err
	}
	return pt, next, nil
}

func (s *State) handleRemove(pt *message.MLSPlaintext, senderIndex treemath.LeafIndex, remove *RemoveOperation) (*State, error) {
	senderCred, err := s.senderCredential(senderIndex)
	if err != nil {
		return nil, err
	}

	newTree := s.Tree.Clone()
	if err := newTree.BlankPath(treemath.LeafIndex(remove.Removed), true); err != nil {
		return nil, err
	}

	var dp ratchettree.DirectPath
	if _, err := mlssyntax.Unmarshal(remove.Path, &dp); err != nil {
		return nil, fmt.Errorf("mls: unmarshaling direct path: %w", err)
	}

	ctx, err := s.groupContext().bytes()
	if err != nil {
		return nil, err
	}

	updateSecret, err := newTree.Decap(senderIndex, ctx, &dp)
	if err != nil {
		return nil, err
	}

	// The removed member cannot reach this point: with its leaf blanked it
	// appears in no copath resolution, so Decap above fails for it with
	// MissingNode. That failure is the exclusion working as intended.
	return s.applyOperation(pt, newTree, updateSecret, senderCred, s.Index)
}

// Handle applies any incoming handshake message -- Add, Update, or Remove
// -- to s, dispatching on the operation tag encoded in pt.Body.
func (s *State) Handle(pt *message.MLSPlaintext) (*State, error) {
	if string(pt.GroupID) != string(s.GroupID) || pt.Epoch != s.Epoch {
		return nil, ErrWrongEpoch
	}
	if pt.ContentType != message.ContentTypeHandshake {
		return nil, ErrInvalidMessageType
	}
	if pt.Sender.Type != message.SenderTypeMember {
		return nil, ErrInvalidMessageType
	}

	op, err := UnmarshalHandshakeOperation(pt.Body)
	if err != nil {
		return nil, err
	}

	senderIndex := treemath.LeafIndex(pt.Sender.Leaf)
	switch op.Type {
	case OperationTypeAdd:
		return s.handleAdd(pt, senderIndex, op.Add)
	case OperationTypeUpdate:
		return s.handleUpdate(pt, senderIndex, op.Update)
	case OperationTypeRemove:
		return s.handleRemove(pt, senderIndex, op.Remove)
	default:
		return nil, ErrInvalidMessageType
	}
}

// JoinFromWelcome decrypts welcome's GroupInfo under myCIK's matching init
// private key and bootstraps a pre-Add State from it. The returned State
// has no valid Index yet -- the caller must immediately apply the Add
// handshake message that accompanies the Welcome via HandleAsJoiner, which
// both advances the epoch and locates the caller's own new leaf.
func JoinFromWelcome(welcome *Welcome, myCIK credential.ClientInitKey, myCred credential.Credential) (*State, error) {
	priv, ok := myCIK.InitPrivateKeyFor(welcome.CipherSuite)
	if !ok {
		return nil, fmt.Errorf("mls: %w: no init key for suite %s", ErrInvalidParameter, welcome.CipherSuite)
	}

	giBytes, err := welcome.CipherSuite.HPKE().Decrypt(priv, []byte{}, welcome.EncryptedGroupInfo)
	if err != nil {
		return nil, fmt.Errorf("mls: decrypting GroupInfo: %w", err)
	}

	var gi GroupInfo
	if _, err := mlssyntax.Unmarshal(giBytes, &gi); err != nil {
		return nil, fmt.Errorf("mls: unmarshaling GroupInfo: %w", err)
	}
	gi.Tree.SetSuite(welcome.CipherSuite)

	if !gi.Tree.Occupied(treemath.LeafIndex(gi.SignerIndex)) {
		return nil, fmt.Errorf("mls: %w: GroupInfo signer leaf is blank", ErrProtocol)
	}
	signerCred := gi.Tree.Credential(treemath.LeafIndex(gi.SignerIndex))
	if !gi.Verify(signerCred.PublicKey()) {
		return nil, ErrProtocol
	}

	return &State{
		CipherSuite:             welcome.CipherSuite,
		GroupID:                 dup(gi.GroupID),
		Epoch:                   gi.Epoch,
		Tree:                    &gi.Tree,
		ConfirmedTranscriptHash: dup(gi.ConfirmedTranscriptHash),
		InterimTranscriptHash:   dup(gi.InterimTranscriptHash),
		Credential:              myCred,
		Keys:                    keyschedule.EpochSecrets{Suite: welcome.CipherSuite, InitSecret: dup(gi.InitSecret)},
	}, nil
}

// HandleAsJoiner applies the Add handshake message that accompanied a
// Welcome to a bootstrap State from JoinFromWelcome. It runs the same
// transition every existing member applies via Handle, then locates the
// caller's own newly-added leaf and installs its private init key --
// the one piece of this epoch only the joiner itself can supply.
func (s *State) HandleAsJoiner(pt *message.MLSPlaintext, myCIK credential.ClientInitKey) (*State, error) {
	if pt.ContentType != message.ContentTypeHandshake || pt.Sender.Type != message.SenderTypeMember {
		return nil, ErrInvalidMessageType
	}

	op, err := UnmarshalHandshakeOperation(pt.Body)
	if err != nil {
		return nil, err
	}
	if op.Type != OperationTypeAdd || op.Add == nil {
		return nil, ErrInvalidMessageType
	}

	next, err := s.handleAdd(pt, treemath.LeafIndex(pt.Sender.Leaf), op.Add)
	if err != nil {
		return nil, err
	}

	pub, ok := myCIK.InitKeyFor(next.CipherSuite)
	if !ok {
		return nil, ErrInvalidParameter
	}
	priv, ok := myCIK.InitPrivateKeyFor(next.CipherSuite)
	if !ok {
		return nil, ErrInvalidParameter
	}

	leaf, found := next.Tree.Find(pub, myCIK.Credential)
	if !found {
		return nil, ErrMissingNode
	}
	if err := next.Tree.MergePrivate(leaf, priv); err != nil {
		return nil, err
	}
	next.Index = leaf

	return next, nil
}

// Encrypt seals any already-signed MLSPlaintext -- handshake or
// application -- under this epoch's Application Key Chain. Protect is the
// application-message convenience built on top of it; a Session encrypts
// handshake messages the same way when it wants unlinkable delivery.
func (s *State) Encrypt(pt *message.MLSPlaintext) (*message.MLSCiphertext, error) {
	return message.Encrypt(s.CipherSuite, s.chain, s.senderDataKey, s.Index, pt, 0)
}

// Decrypt opens an MLSCiphertext and verifies its signature against the
// sender's current credential, returning the plaintext record.
func (s *State) Decrypt(ct *message.MLSCiphertext) (*message.MLSPlaintext, error) {
	pt, err := message.Decrypt(s.CipherSuite, s.chain, s.senderDataKey, s.GroupID, s.Epoch, ct)
	if err != nil {
		return nil, err
	}

	senderCred, err := s.senderCredential(treemath.LeafIndex(pt.Sender.Leaf))
	if err != nil {
		return nil, err
	}
	if !pt.Verify(senderCred.PublicKey()) {
		return nil, ErrProtocol
	}
	return pt, nil
}

// Protect signs and encrypts an application message under the current
// epoch's Application Key Chain.
func (s *State) Protect(plaintext []byte) (*message.MLSCiphertext, error) {
	pt := &message.MLSPlaintext{
		GroupID:     dup(s.GroupID),
		Epoch:       s.Epoch,
		Sender:      message.Sender{Type: message.SenderTypeMember, Leaf: uint32(s.Index)},
		ContentType: message.ContentTypeApplication,
		Body:        plaintext,
	}
	if err := pt.Sign(s.Credential); err != nil {
		return nil, err
	}
	return s.Encrypt(pt)
}

// Unprotect decrypts and verifies an application message, returning the
// plaintext body and the sender's leaf index.
func (s *State) Unprotect(ct *message.MLSCiphertext) ([]byte, uint32, error) {
	pt, err := s.Decrypt(ct)
	if err != nil {
		return nil, 0, err
	}
	return pt.Body, pt.Sender.Leaf, nil
}

// Equals reports whether two States describe the same epoch of the same
// group -- same membership, same transcript, same epoch secrets.
func (s *State) Equals(o *State) bool {
	return s.CipherSuite == o.CipherSuite &&
		string(s.GroupID) == string(o.GroupID) &&
		s.Epoch == o.Epoch &&
		s.Tree.Equals(o.Tree) &&
		string(s.ConfirmedTranscriptHash) == string(o.ConfirmedTranscriptHash) &&
		string(s.InterimTranscriptHash) == string(o.InterimTranscriptHash) &&
		string(s.Keys.EpochSecret) == string(o.Keys.EpochSecret) &&
		string(s.Keys.ApplicationSecret) == string(o.Keys.ApplicationSecret) &&
		string(s.Keys.ConfirmationKey) == string(o.Keys.ConfirmationKey) &&
		string(s.Keys.InitSecret) == string(o.Keys.InitSecret)
}
