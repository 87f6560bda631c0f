package operation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestRWCounterIssue(t *testing.T) {
	var c RWCounter
	require.Equal(t, uint64(1), c.Peek())

	prev := uint64(0)
	for i := 0; i < 100; i++ {
		v, err := c.Issue()
		require.NoError(t, err)
		require.Greater(t, v, prev)
		prev = v
	}
	require.Equal(t, uint64(100), prev)
}

func TestRWCounterOverflow(t *testing.T) {
	c := RWCounter{issued: math.MaxUint64 - 1}
	v, err := c.Issue()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, err = c.Issue()
	require.ErrorIs(t, err, ErrCounterOverflow)
}

func TestContainerRejectsOutOfOrder(t *testing.T) {
	c := NewContainer()
	target := Target{Kind: KindStack, ID: 1}

	_, err := c.Insert(NewOperation(2, false, 1, target, *uint256.NewInt(0), *uint256.NewInt(0)))
	require.NoError(t, err)
	_, err = c.Insert(NewOperation(2, true, 1, target, *uint256.NewInt(0), *uint256.NewInt(1)))
	require.ErrorIs(t, err, ErrOutOfOrder)
	_, err = c.Insert(NewOperation(1, true, 1, target, *uint256.NewInt(0), *uint256.NewInt(1)))
	require.ErrorIs(t, err, ErrOutOfOrder)
	require.Equal(t, 1, c.Len())
}

func TestReadKeepsValue(t *testing.T) {
	op := NewOperation(1, false, 1, Target{Kind: KindMemory, ID: 1}, *uint256.NewInt(5), *uint256.NewInt(9))
	require.Equal(t, op.Before, op.After)
}

func TestChronologicalOrder(t *testing.T) {
	c := NewContainer()
	slotA := Target{Kind: KindStorage, Address: common.HexToAddress("0x02"), Key: *uint256.NewInt(1)}
	slotB := Target{Kind: KindStorage, Address: common.HexToAddress("0x01"), Key: *uint256.NewInt(7)}
	stack := Target{Kind: KindStack, ID: 1, Key: *uint256.NewInt(1023)}

	inserts := []Target{slotA, stack, slotB, slotA, stack, slotB}
	for i, target := range inserts {
		_, err := c.Insert(NewOperation(uint64(i+1), i%2 == 1, 1, target, *uint256.NewInt(0), *uint256.NewInt(0)))
		require.NoError(t, err)
	}

	var got []uint64
	for _, i := range c.Chronological() {
		got = append(got, c.At(i).RWC)
	}
	// stack sorts before storage, then storage by address
	require.Equal(t, []uint64{2, 5, 3, 6, 1, 4}, got)
}

func TestKindJSON(t *testing.T) {
	var k Kind
	require.NoError(t, json.Unmarshal([]byte(`"call_context"`), &k))
	require.Equal(t, KindCallContext, k)

	bz, err := json.Marshal(KindStorage)
	require.NoError(t, err)
	require.Equal(t, `"storage"`, string(bz))

	require.Error(t, json.Unmarshal([]byte(`"padding"`), &k))
	require.Error(t, json.Unmarshal([]byte(`"nope"`), &k))
}
