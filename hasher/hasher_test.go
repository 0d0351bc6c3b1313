package hasher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		h, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, h.Name())
		assert.True(t, Supported(name))
	}
	_, err := New("md5")
	assert.Error(t, err)
	assert.False(t, Supported("md5"))
	assert.Equal(t, []string{NameKeccak256, NameMiMC7, NameSHA256}, Names())
}

func TestDigestHasher_Framing(t *testing.T) {
	h := NewSHA256()
	got, err := h.Hash(3, "ab", "c")
	require.NoError(t, err)

	// 手工拼接期望输入
	var want []byte
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], 3)
	want = append(want, buf[:]...)
	binary.BigEndian.PutUint64(buf[:], 2)
	want = append(want, buf[:]...)
	want = append(want, "ab"...)
	binary.BigEndian.PutUint64(buf[:], 1)
	want = append(want, buf[:]...)
	want = append(want, "c"...)
	sum := sha256.Sum256(want)
	assert.Equal(t, hex.EncodeToString(sum[:]), got)

	// 长度前缀: ("ab","c") != ("a","bc")
	other, err := h.Hash(3, "a", "bc")
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}

func TestHashers_DomainSeparation(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			h, err := New(name)
			require.NoError(t, err)

			a, err := h.Hash(0, "4", "5")
			require.NoError(t, err)
			b, err := h.Hash(1, "4", "5")
			require.NoError(t, err)
			c, err := h.Hash(0, "5", "4")
			require.NoError(t, err)
			again, err := h.Hash(0, "4", "5")
			require.NoError(t, err)

			assert.NotEqual(t, a, b, "level must separate domains")
			assert.NotEqual(t, a, c, "order matters")
			assert.Equal(t, a, again, "deterministic")

			_, err = h.Hash(-1, "4", "5")
			assert.ErrorIs(t, err, ErrInvalidElement)
		})
	}
}

func TestMiMC7_Elements(t *testing.T) {
	h := NewMiMC7()

	out, err := h.Hash(0, "4", "4")
	require.NoError(t, err)
	// 输出本身必须是合法域元素，才能作为上一层的输入
	_, err = ParseFieldElement(out)
	require.NoError(t, err)
	_, err = h.Hash(1, out, out)
	require.NoError(t, err)

	hexOut, err := h.Hash(0, "0x04", "4")
	require.NoError(t, err)
	assert.Equal(t, out, hexOut)

	_, err = h.Hash(0, "not-a-number", "4")
	assert.ErrorIs(t, err, ErrInvalidElement)

	_, err = h.Hash(0, "4", "21888242871839275222246405745257275088548364400416034343698204186575808495617")
	assert.ErrorIs(t, err, ErrInvalidElement)
}

func TestMiMC7_Constants(t *testing.T) {
	cts := mimc7Constants(mimc7Seed)
	assert.True(t, cts[0].IsZero())
	for i := 1; i < mimc7Rounds; i++ {
		assert.True(t, cts[i].Lt(bn254ScalarField), "constant %d must be reduced", i)
	}
	assert.NotEqual(t, cts[1], cts[2])
}

func TestParseFieldElement(t *testing.T) {
	v, err := ParseFieldElement("0x0")
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = ParseFieldElement("82")
	require.NoError(t, err)
	assert.Equal(t, uint64(82), v.Uint64())

	_, err = ParseFieldElement("")
	assert.ErrorIs(t, err, ErrInvalidElement)
}
