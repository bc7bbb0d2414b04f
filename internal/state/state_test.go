package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectState_RoundTrip(t *testing.T) {
	s := New()
	for _, i := range []int{0, 1, 7, 8, 31, 100} {
		s.SetInt(i, i+1)
		s.SetBool(i, true)
		s.SetFloat(i, float64(i)+0.5)
		s.SetString(i, "v")
		s.SetBytes(i, []byte{byte(i)})

		assert.Equal(t, i+1, s.Int(i))
		assert.True(t, s.Bool(i))
		assert.Equal(t, float64(i)+0.5, s.Float(i))
		assert.Equal(t, "v", s.String(i))
		assert.Equal(t, []byte{byte(i)}, s.Bytes(i))
	}
	assert.Equal(t, 0, s.Int(2000), "unset slot reads as default")
	assert.Equal(t, 0, s.Int(-1))
}

func TestObjectState_GrowInBlocksOfEight(t *testing.T) {
	s := New()
	s.SetInt(0, 1)
	assert.Equal(t, 8, s.Cap().Ints)

	s.SetInt(7, 1)
	assert.Equal(t, 8, s.Cap().Ints)

	s.SetInt(8, 1)
	assert.Equal(t, 16, s.Cap().Ints)

	s.SetInt(100, 1)
	assert.Equal(t, 104, s.Cap().Ints)
}

func TestObjectState_ShrinkAfterHighIndexReset(t *testing.T) {
	s := New()
	s.SetInt(3, 42)
	s.SetInt(100, 7)
	require.Equal(t, 104, s.Cap().Ints)

	s.SetInt(100, 0)
	assert.Equal(t, 8, s.Cap().Ints, "only the block holding index 3 remains")
	assert.Equal(t, 42, s.Int(3))

	s.SetInt(3, 0)
	assert.Equal(t, 0, s.Cap().Ints)
	assert.True(t, s.Empty())
}

func TestObjectState_ShrinkOnlyFromLastBlock(t *testing.T) {
	s := New()
	s.SetString(20, "x")
	s.SetString(2, "y")
	s.SetString(2, "")
	assert.Equal(t, 24, s.Cap().Strings, "writing below the last block does not compact")
}

func TestObjectState_ChangeCount(t *testing.T) {
	s := New()
	s.SetInt(5, 0)
	assert.Equal(t, 0, s.ChangeCount(), "default into a nil array is dropped")

	s.SetInt(5, 1)
	assert.Equal(t, 1, s.ChangeCount())

	s.SetInt(50, 0)
	assert.Equal(t, 2, s.ChangeCount(), "default past the end still counts")
	assert.Equal(t, 8, s.Cap().Ints)

	s.SetBool(1, true)
	s.SetChild(0, New())
	assert.Equal(t, 4, s.ChangeCount())
}

func TestObjectState_CompareAndSwap(t *testing.T) {
	s := New()
	s.SetInt(1, 10)

	assert.Equal(t, 10, s.CompareAndSwapInt(1, 11, 20))
	assert.Equal(t, 10, s.Int(1))

	assert.Equal(t, 10, s.CompareAndSwapInt(1, 10, 20))
	assert.Equal(t, 20, s.Int(1))

	assert.False(t, s.CompareAndSwapBool(3, false, true))
	assert.True(t, s.Bool(3))

	assert.Equal(t, "", s.CompareAndSwapString(0, "", "a"))
	assert.Equal(t, "a", s.String(0))

	assert.Nil(t, s.CompareAndSwapBytes(0, nil, []byte("b")))
	assert.Equal(t, []byte("b"), s.Bytes(0))
}

func TestObjectState_Child(t *testing.T) {
	s := New()
	missing := s.Child(4)
	require.NotNil(t, missing)
	missing.SetInt(0, 1)
	assert.False(t, s.HasChild(4), "a missing child is not attached implicitly")

	c := New()
	c.SetString(2, "door")
	s.SetChild(4, c)
	assert.Same(t, c, s.Child(4))
	assert.Equal(t, "door", s.Child(4).String(2))
}

func TestStates_MarshalUnmarshal(t *testing.T) {
	door := New()
	door.SetBool(0, true)
	door.SetInt(9, 3)
	door.SetFloat(1, 2.25)
	door.SetBytes(2, []byte{0, 1, 2, 255})
	sub := New()
	sub.SetString(0, "locked")
	door.SetChild(1, sub)

	data, err := Marshal(States{7: door, 1_000_000_000: New()})
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Contains(t, got, 7)
	require.Contains(t, got, 1_000_000_000)

	d := got[7]
	assert.True(t, d.Bool(0))
	assert.Equal(t, 3, d.Int(9))
	assert.Equal(t, 2.25, d.Float(1))
	assert.Equal(t, []byte{0, 1, 2, 255}, d.Bytes(2))
	assert.Equal(t, "locked", d.Child(1).String(0))
	assert.Equal(t, door.Cap(), d.Cap())
	assert.True(t, got[1_000_000_000].Empty())
}

func TestUnmarshal_Empty(t *testing.T) {
	got, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
