// Package message implements the two wire-facing framing types --
// MLSPlaintext, the signed but unencrypted handshake/application record,
// and MLSCiphertext, its AEAD-protected form -- along with the padding
// scheme used to hide a plaintext's true length before encryption.
//
// This package knows nothing about group membership or tree state: it
// takes a signer/verifier, an application key chain and a sender-data key
// as arguments rather than reaching into an mls.State, so it can be exercised and tested in
// isolation from the state machine built on top of it.
package message

import (
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	mlssyntax "github.com/sylph01/mlspp/syntax"
)

// ContentType distinguishes a handshake record (carrying a group
// operation, and requiring a confirmation tag) from an application
// record (opaque payload, no confirmation).
type ContentType uint8

const (
	ContentTypeApplication ContentType = 1
	ContentTypeHandshake   ContentType = 2
)

// SenderType is always "member" in this implementation: external or
// preconfigured senders are not exercised by any operation this module
// defines.
type SenderType uint8

const SenderTypeMember SenderType = 1

type Sender struct {
	Type SenderType
	Leaf uint32
}

// plaintextContent is the part of an MLSPlaintext that is encrypted as a
// unit (see encodePadded): everything but group_id/epoch, which travel in
// the MLSCiphertext header and the AEAD additional data, and sender, which
// travels in the encrypted sender data.
type plaintextContent struct {
	ContentType  ContentType
	Body         []byte `tls:"head=4"`
	Confirmation []byte `tls:"head=1"`
}

// plaintextTBS is MLSPlaintext's signing input:
// {group_id, epoch, sender, content_type, body, confirmation?}.
type plaintextTBS struct {
	GroupID      []byte `tls:"head=1"`
	Epoch        uint64
	Sender       Sender
	ContentType  ContentType
	Body         []byte `tls:"head=4"`
	Confirmation []byte `tls:"head=1"`
}

// MLSPlaintext is a signed handshake or application record before
// encryption. Confirmation is only meaningful (non-empty) when
// ContentType is ContentTypeHandshake. The tls tags here are what let a
// whole MLSPlaintext be marshaled directly -- e.g. by a Session sending
// handshake messages unencrypted -- on top of the narrower tagged structs
// (plaintextTBS, plaintextContent) used internally for signing and
// padding.
type MLSPlaintext struct {
	GroupID      []byte `tls:"head=1"`
	Epoch        uint64
	Sender       Sender
	ContentType  ContentType
	Body         []byte `tls:"head=4"`
	Confirmation []byte `tls:"head=1"`
	Signature    []byte `tls:"head=2"`
}

func (pt *MLSPlaintext) tbs() ([]byte, error) {
	enc, err := mlssyntax.Marshal(plaintextTBS{
		GroupID:      pt.GroupID,
		Epoch:        pt.Epoch,
		Sender:       pt.Sender,
		ContentType:  pt.ContentType,
		Body:         pt.Body,
		Confirmation: pt.Confirmation,
	})
	if err != nil {
		return nil, fmt.Errorf("message: marshaling signing input: %w", err)
	}
	return enc, nil
}

// Sign computes and installs pt.Signature over pt's to_be_signed input.
func (pt *MLSPlaintext) Sign(priv interface{ Sign([]byte) ([]byte, error) }) error {
	tbs, err := pt.tbs()
	if err != nil {
		return err
	}
	sig, err := priv.Sign(tbs)
	if err != nil {
		return fmt.Errorf("message: signing: %w", err)
	}
	pt.Signature = sig
	return nil
}

// Verify checks pt.Signature against pub's public key.
func (pt *MLSPlaintext) Verify(pub mlscrypto.SignaturePublicKey) bool {
	tbs, err := pt.tbs()
	if err != nil {
		return false
	}
	return pub.Verify(tbs, pt.Signature)
}

// content marshals the {content_type, body, confirmation} unit that gets
// padded and encrypted as MLSCiphertext's payload.
func (pt *MLSPlaintext) content() ([]byte, error) {
	enc, err := mlssyntax.Marshal(plaintextContent{
		ContentType:  pt.ContentType,
		Body:         pt.Body,
		Confirmation: pt.Confirmation,
	})
	if err != nil {
		return nil, fmt.Errorf("message: marshaling content: %w", err)
	}
	return enc, nil
}

func fromContent(enc []byte) (plaintextContent, error) {
	var c plaintextContent
	_, err := mlssyntax.Unmarshal(enc, &c)
	if err != nil {
		return plaintextContent{}, fmt.Errorf("message: unmarshaling content: %w", err)
	}
	return c, nil
}

// TranscriptContent marshals {content_type, body} -- the "MLSPlaintext.content"
// folded into confirmed_transcript_hash, deliberately excluding confirmation
// and signature (see AuthData, which covers those).
func (pt *MLSPlaintext) TranscriptContent() ([]byte, error) {
	enc, err := mlssyntax.Marshal(struct {
		ContentType ContentType
		Body        []byte `tls:"head=4"`
	}{ContentType: pt.ContentType, Body: pt.Body})
	if err != nil {
		return nil, fmt.Errorf("message: marshaling transcript content: %w", err)
	}
	return enc, nil
}

// AuthData marshals {confirmation, signature} -- the "MLSPlaintext.auth_data"
// folded into interim_transcript_hash.
func (pt *MLSPlaintext) AuthData() ([]byte, error) {
	enc, err := mlssyntax.Marshal(struct {
		Confirmation []byte `tls:"head=1"`
		Signature    []byte `tls:"head=2"`
	}{Confirmation: pt.Confirmation, Signature: pt.Signature})
	if err != nil {
		return nil, fmt.Errorf("message: marshaling auth data: %w", err)
	}
	return enc, nil
}
