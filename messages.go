package mls

import (
	"fmt"

	"github.com/sylph01/mlspp/credential"
	mlssyntax "github.com/sylph01/mlspp/syntax"
)

// OperationType tags which variant of HandshakeOperation is present. Tagged
// unions replace the old GroupOperationType + optional<Add> + optional<Update>
// + optional<Remove> triple: exactly one of the three operations is ever
// meaningful for a given Type, and the codec only looks at the others when
// Type says to.
type OperationType uint8

const (
	OperationTypeAdd    OperationType = 1
	OperationTypeUpdate OperationType = 2
	OperationTypeRemove OperationType = 3
)

// AddOperation introduces a new member at Index. WelcomeInfoHash binds the
// operation to the specific Welcome the joiner receives out of band: members
// who only see this handshake message (not the Welcome) can still confirm
// both artifacts describe the same join by comparing hashes, even though
// they can't decrypt the Welcome themselves.
type AddOperation struct {
	Index           uint32
	ClientInitKey   credential.ClientInitKey
	WelcomeInfoHash []byte `tls:"head=1"`
}

// UpdateOperation replaces the sender's own leaf key. Path carries the new
// public keys up the sender's direct path, encrypted node-by-node to the
// copath; every recipient re-derives the same set of updated secrets from
// whichever encrypted node they hold a private key under.
type UpdateOperation struct {
	Path []byte `tls:"head=4"` // marshaled ratchettree.DirectPath
}

// RemoveOperation blanks a member's leaf and re-keys the tree along the
// remover's direct path, same as UpdateOperation but targeting another
// member's position.
type RemoveOperation struct {
	Removed uint32
	Path    []byte `tls:"head=4"` // marshaled ratchettree.DirectPath
}

// HandshakeOperation is the body of every MLSPlaintext with ContentType
// Handshake. Unmarshal only populates the field matching Type; the other
// two are left zero.
type HandshakeOperation struct {
	Type   OperationType
	Add    *AddOperation
	Update *UpdateOperation
	Remove *RemoveOperation
}

type rawHandshakeOperation struct {
	Type OperationType
	Body []byte `tls:"head=4"`
}

// Marshal encodes the tag and whichever operation is selected by Type.
func (op HandshakeOperation) Marshal() ([]byte, error) {
	var body []byte
	var err error

	switch op.Type {
	case OperationTypeAdd:
		if op.Add == nil {
			return nil, fmt.Errorf("mls: Add operation missing body")
		}
		body, err = mlssyntax.Marshal(*op.Add)
	case OperationTypeUpdate:
		if op.Update == nil {
			return nil, fmt.Errorf("mls: Update operation missing body")
		}
		body, err = mlssyntax.Marshal(*op.Update)
	case OperationTypeRemove:
		if op.Remove == nil {
			return nil, fmt.Errorf("mls: Remove operation missing body")
		}
		body, err = mlssyntax.Marshal(*op.Remove)
	default:
		return nil, ErrInvalidMessageType
	}
	if err != nil {
		return nil, fmt.Errorf("mls: marshaling handshake operation body: %w", err)
	}

	enc, err := mlssyntax.Marshal(rawHandshakeOperation{Type: op.Type, Body: body})
	if err != nil {
		return nil, fmt.Errorf("mls: marshaling handshake operation: %w", err)
	}
	return enc, nil
}

// UnmarshalHandshakeOperation decodes the tag and dispatches to the matching
// operation type.
func UnmarshalHandshakeOperation(data []byte) (HandshakeOperation, error) {
	var raw rawHandshakeOperation
	if _, err := mlssyntax.Unmarshal(data, &raw); err != nil {
		return HandshakeOperation{}, fmt.Errorf("mls: unmarshaling handshake operation: %w", err)
	}

	op := HandshakeOperation{Type: raw.Type}
	switch raw.Type {
	case OperationTypeAdd:
		var a AddOperation
		if _, err := mlssyntax.Unmarshal(raw.Body, &a); err != nil {
			return HandshakeOperation{}, fmt.Errorf("mls: unmarshaling Add: %w", err)
		}
		op.Add = &a
	case OperationTypeUpdate:
		var u UpdateOperation
		if _, err := mlssyntax.Unmarshal(raw.Body, &u); err != nil {
			return HandshakeOperation{}, fmt.Errorf("mls: unmarshaling Update: %w", err)
		}
		op.Update = &u
	case OperationTypeRemove:
		var r RemoveOperation
		if _, err := mlssyntax.Unmarshal(raw.Body, &r); err != nil {
			return HandshakeOperation{}, fmt.Errorf("mls: unmarshaling Remove: %w", err)
		}
		op.Remove = &r
	default:
		return HandshakeOperation{}, ErrInvalidMessageType
	}
	return op, nil
}
