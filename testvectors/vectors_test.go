package testvectors

import (
	"testing"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/stretchr/testify/require"
)

func testSuite() mlscrypto.CipherSuite {
	return mlscrypto.X25519_SHA256_AES128GCM
}

func TestGeneratedSuiteVerifies(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)
	require.NoError(t, s.Verify())
}

func TestSuiteRoundTripsThroughJSON(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	data, err := Marshal(s)
	require.NoError(t, err)

	reloaded, err := Unmarshal(data)
	require.NoError(t, err)
	require.NoError(t, reloaded.Verify())
}

func TestTreeMathVectorCatchesTampering(t *testing.T) {
	v := GenerateTreeMathVector(11)
	v.Root = v.Root + 1
	require.Error(t, v.Verify())
}

func TestRatchetTreeVectorCatchesTampering(t *testing.T) {
	v, err := GenerateRatchetTreeVector(testSuite(), 4)
	require.NoError(t, err)
	v.RootHash[0] ^= 0xFF
	require.Error(t, v.Verify())

	v, err = GenerateRatchetTreeVector(testSuite(), 4)
	require.NoError(t, err)
	v.UpdateSecret[0] ^= 0xFF
	require.Error(t, v.Verify())
}
