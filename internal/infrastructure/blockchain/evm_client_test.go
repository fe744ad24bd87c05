package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEVMClientDoesNotDial(t *testing.T) {
	prev := dialEVMClient
	defer func() { dialEVMClient = prev }()

	var dialed bool
	dialEVMClient = func(rawurl string) (*ethclient.Client, error) {
		dialed = true
		return nil, errors.New("node down")
	}

	// A worker that never touches the chain must start with no node around.
	c, err := NewEVMClient("http://127.0.0.1:9")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, dialed)
}

func TestNewEVMClientRequiresURL(t *testing.T) {
	_, err := NewEVMClient("")
	assert.Error(t, err)
}

func TestDialFailureSurfacesOnFirstUse(t *testing.T) {
	prev := dialEVMClient
	defer func() { dialEVMClient = prev }()

	dialEVMClient = func(rawurl string) (*ethclient.Client, error) {
		return nil, fmt.Errorf("dial tcp %s: connection refused", rawurl)
	}

	c, err := NewEVMClient("http://127.0.0.1:9")
	require.NoError(t, err)

	_, err = c.TransactionReceipt(context.Background(), "0xabc")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")

	_, err = c.CallView(context.Background(), "0xtoken", nil)
	assert.Error(t, err)
}

func TestHooksBypassConnection(t *testing.T) {
	c := NewEVMClientWithHooks(big.NewInt(1),
		func(ctx context.Context, txHash string) (*types.Receipt, error) {
			return &types.Receipt{Status: 1, GasUsed: 21000, BlockNumber: big.NewInt(7)}, nil
		},
		func(ctx context.Context, to string, data []byte) ([]byte, error) {
			return []byte{0x06}, nil
		},
	)

	receipt, err := c.TransactionReceipt(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), receipt.GasUsed)

	decimals, err := c.TokenDecimals(context.Background(), "0xtoken")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ethereum.NotFound))
	assert.True(t, IsNotFound(fmt.Errorf("receipt: %w", ethereum.NotFound)))
	assert.False(t, IsNotFound(errors.New("rpc timeout")))
	assert.False(t, IsNotFound(nil))
}
