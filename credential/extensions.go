package credential

import (
	"fmt"

	mlssyntax "github.com/sylph01/mlspp/syntax"
)

type ExtensionType uint16

const (
	ExtensionTypeParentHash ExtensionType = 0x0001
)

// ExtensionBody is implemented by any typed extension payload that wants
// to ride inside a ClientInitKey's ExtensionList.
type ExtensionBody interface {
	Type() ExtensionType
}

type Extension struct {
	ExtensionType ExtensionType
	ExtensionData []byte `tls:"head=2"`
}

// ExtensionList is a self-describing bag of typed, opaque extensions --
// unknown extensions round-trip untouched, and Find only decodes the one
// the caller actually asked for.
type ExtensionList struct {
	Entries []Extension `tls:"head=2"`
}

func (el *ExtensionList) Add(src ExtensionBody) error {
	data, err := mlssyntax.Marshal(src)
	if err != nil {
		return fmt.Errorf("credential: marshaling extension %d: %w", src.Type(), err)
	}

	for i := range el.Entries {
		if el.Entries[i].ExtensionType == src.Type() {
			el.Entries[i].ExtensionData = data
			return nil
		}
	}

	el.Entries = append(el.Entries, Extension{
		ExtensionType: src.Type(),
		ExtensionData: data,
	})
	return nil
}

// Find decodes the extension of dst's type into dst, reporting whether one
// was present at all.
func (el ExtensionList) Find(dst ExtensionBody) (bool, error) {
	for _, ext := range el.Entries {
		if ext.ExtensionType != dst.Type() {
			continue
		}

		read, err := mlssyntax.Unmarshal(ext.ExtensionData, dst)
		if err != nil {
			return true, fmt.Errorf("credential: decoding extension %d: %w", dst.Type(), err)
		}
		if read != len(ext.ExtensionData) {
			return true, fmt.Errorf("credential: extension %d left %d trailing bytes", dst.Type(), len(ext.ExtensionData)-read)
		}
		return true, nil
	}
	return false, nil
}

// ParentHashExtension carries a parent-hash value in an ExtensionList.
// Nothing in this module computes or checks that value: package
// ratchettree keeps node hashes but no parent-hash chain.
type ParentHashExtension struct {
	ParentHash []byte `tls:"head=1"`
}

func (ParentHashExtension) Type() ExtensionType {
	return ExtensionTypeParentHash
}
