// Package session is the thin bookkeeping layer a client keeps on top of
// the group state machine: one State per epoch it has ever seen, plus
// enough memory of its own last outbound handshake to recognize that
// message coming back over a broadcast delivery service instead of
// re-applying it to itself a second time.
package session

import (
	"bytes"
	"fmt"

	mls "github.com/sylph01/mlspp"
	"github.com/sylph01/mlspp/credential"
	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/message"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/treemath"
)

// outbound remembers the last handshake message this session produced,
// so Handle can recognize its own broadcast echo rather than trying (and
// failing) to re-verify a message signed by this same member.
type outbound struct {
	data []byte
	next *mls.State
}

// Session tracks a member's view of one group across epochs. Every
// Add/Update/Remove/Handle call works against the current epoch's State.
// Add/Update/Remove hold the resulting State until this session's own
// message comes back through Handle; Handle files each resulting State
// under its own epoch number -- old epochs stay reachable so a message delayed in flight from just
// before a commit can still be unprotected.
type Session struct {
	currentEpoch     uint64
	encryptHandshake bool
	outbound         *outbound
	states           map[uint64]*mls.State
}

// Start founds a brand-new single-member group.
func Start(groupID []byte, suite mlscrypto.CipherSuite, leafSecret []byte, cred credential.Credential) (*Session, error) {
	state, err := mls.NewState(groupID, suite, leafSecret, cred)
	if err != nil {
		return nil, err
	}
	s := &Session{states: map[uint64]*mls.State{}}
	s.addState(state)
	return s, nil
}

// StartWithNegotiation founds a group with the first cipher suite both
// ClientInitKeys support, in myCIK's preference order, then immediately
// adds the peer: the one-call creator path yielding the Session, the
// Welcome to deliver to the peer, and the Add to broadcast.
func StartWithNegotiation(groupID []byte, myCIK, peerCIK credential.ClientInitKey, leafSecret []byte, myCred credential.Credential) (*Session, *mls.Welcome, []byte, error) {
	suite, ok := credential.Negotiate(myCIK, peerCIK)
	if !ok {
		return nil, nil, nil, fmt.Errorf("session: %w: no common cipher suite", mls.ErrInvalidParameter)
	}

	s, err := Start(groupID, suite, leafSecret, myCred)
	if err != nil {
		return nil, nil, nil, err
	}

	welcome, add, err := s.Add(peerCIK)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, welcome, add, nil
}

// Join bootstraps a Session from a Welcome and the Add handshake message
// that was broadcast alongside it.
func Join(welcome *mls.Welcome, addMessage *message.MLSPlaintext, myCIK credential.ClientInitKey, myCred credential.Credential) (*Session, error) {
	bootstrap, err := mls.JoinFromWelcome(welcome, myCIK, myCred)
	if err != nil {
		return nil, err
	}
	next, err := bootstrap.HandleAsJoiner(addMessage, myCIK)
	if err != nil {
		return nil, err
	}
	s := &Session{states: map[uint64]*mls.State{}}
	s.addState(next)
	return s, nil
}

// EncryptHandshake toggles whether handshake messages this session sends
// are wrapped as MLSCiphertext (unlinkable on the wire, at the cost of
// recipients needing the current epoch's key material before they can
// even see which operation was performed) rather than sent as plaintext.
func (s *Session) EncryptHandshake(enabled bool) {
	s.encryptHandshake = enabled
}

func (s *Session) currentState() (*mls.State, error) {
	state, ok := s.states[s.currentEpoch]
	if !ok {
		return nil, fmt.Errorf("session: %w: current epoch %d", mls.ErrMissingState, s.currentEpoch)
	}
	return state, nil
}

// addState files state under its own epoch, and adopts it as current if
// it's newer than anything this session has tracked so far.
func (s *Session) addState(state *mls.State) {
	s.states[state.Epoch] = state
	if len(s.states) == 1 || state.Epoch > s.currentEpoch {
		s.currentEpoch = state.Epoch
	}
}

func (s *Session) encodeOutbound(pt *message.MLSPlaintext, state *mls.State) ([]byte, error) {
	if s.encryptHandshake {
		ct, err := state.Encrypt(pt)
		if err != nil {
			return nil, err
		}
		return mlssyntax.Marshal(*ct)
	}
	return mlssyntax.Marshal(*pt)
}

func (s *Session) cacheOutbound(data []byte, next *mls.State) {
	s.outbound = &outbound{data: data, next: next}
}

// Add invites cik into the group. It returns the Welcome to deliver to the
// joiner out of band, and the handshake message to broadcast to every
// other current member (and to the joiner, alongside the Welcome).
func (s *Session) Add(cik credential.ClientInitKey) (*mls.Welcome, []byte, error) {
	state, err := s.currentState()
	if err != nil {
		return nil, nil, err
	}

	pt, welcome, next, err := state.Add(cik)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.encodeOutbound(pt, state)
	if err != nil {
		return nil, nil, err
	}
	s.cacheOutbound(data, next)
	return welcome, data, nil
}

// Update re-keys the caller's own leaf and returns the handshake message
// to broadcast.
func (s *Session) Update(leafSecret []byte) ([]byte, error) {
	state, err := s.currentState()
	if err != nil {
		return nil, err
	}

	pt, next, err := state.Update(leafSecret)
	if err != nil {
		return nil, err
	}

	data, err := s.encodeOutbound(pt, state)
	if err != nil {
		return nil, err
	}
	s.cacheOutbound(data, next)
	return data, nil
}

// Remove excludes the member at index and returns the handshake message
// to broadcast.
func (s *Session) Remove(index uint32, leafSecret []byte) ([]byte, error) {
	state, err := s.currentState()
	if err != nil {
		return nil, err
	}

	pt, next, err := state.Remove(treemath.LeafIndex(index), leafSecret)
	if err != nil {
		return nil, err
	}

	data, err := s.encodeOutbound(pt, state)
	if err != nil {
		return nil, err
	}
	s.cacheOutbound(data, next)
	return data, nil
}

// Handle applies an incoming handshake message -- either this session's
// own broadcast coming back, or another member's operation.
func (s *Session) Handle(handshakeData []byte) error {
	state, err := s.currentState()
	if err != nil {
		return err
	}

	pt, err := s.decodeInbound(state, handshakeData)
	if err != nil {
		return err
	}

	if pt.Sender.Type == message.SenderTypeMember && uint32(state.Index) == pt.Sender.Leaf {
		if s.outbound == nil {
			return fmt.Errorf("session: received own message without a cached outbound send")
		}
		if !bytes.Equal(s.outbound.data, handshakeData) {
			return fmt.Errorf("session: received a different message than the one this session sent")
		}
		s.addState(s.outbound.next)
		s.outbound = nil
		return nil
	}

	next, err := state.Handle(pt)
	if err != nil {
		return err
	}
	s.addState(next)
	return nil
}

func (s *Session) decodeInbound(state *mls.State, data []byte) (*message.MLSPlaintext, error) {
	if s.encryptHandshake {
		var ct message.MLSCiphertext
		if _, err := mlssyntax.Unmarshal(data, &ct); err != nil {
			return nil, fmt.Errorf("session: unmarshaling handshake ciphertext: %w", err)
		}
		return state.Decrypt(&ct)
	}

	var pt message.MLSPlaintext
	if _, err := mlssyntax.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("session: unmarshaling handshake message: %w", err)
	}
	return &pt, nil
}

// Protect signs and encrypts an application message under the current
// epoch's key material.
func (s *Session) Protect(plaintext []byte) ([]byte, error) {
	state, err := s.currentState()
	if err != nil {
		return nil, err
	}
	ct, err := state.Protect(plaintext)
	if err != nil {
		return nil, err
	}
	return mlssyntax.Marshal(*ct)
}

// Unprotect decrypts an application message, looking up whichever epoch's
// State it claims to be from.
func (s *Session) Unprotect(ciphertext []byte) ([]byte, error) {
	var ct message.MLSCiphertext
	if _, err := mlssyntax.Unmarshal(ciphertext, &ct); err != nil {
		return nil, fmt.Errorf("session: unmarshaling ciphertext: %w", err)
	}

	state, ok := s.states[ct.Epoch]
	if !ok {
		return nil, fmt.Errorf("session: %w: epoch %d", mls.ErrMissingState, ct.Epoch)
	}

	plaintext, _, err := state.Unprotect(&ct)
	return plaintext, err
}
