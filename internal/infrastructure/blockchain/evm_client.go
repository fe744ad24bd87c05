package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var dialEVMClient = ethclient.Dial

// EVMClient provides EVM blockchain interaction for the settlement rail:
// ERC-20 transfers out, receipt lookups back. The RPC connection and chain
// ID are established on first use, so a process that never touches the
// chain (simulated mode, no node configured) starts without one.
type EVMClient struct {
	rpcURL string

	mu      sync.Mutex
	client  *ethclient.Client
	chainID *big.Int

	// test hooks; nil outside unit tests
	testReceipt  func(ctx context.Context, txHash string) (*types.Receipt, error)
	testCallView func(ctx context.Context, to string, data []byte) ([]byte, error)
}

// NewEVMClient creates a new EVM client. No network traffic happens here.
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url not configured")
	}
	return &EVMClient{rpcURL: rpcURL}, nil
}

// NewEVMClientWithHooks creates a client backed by injected functions.
// Intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithHooks(
	chainID *big.Int,
	receiptFn func(ctx context.Context, txHash string) (*types.Receipt, error),
	callViewFn func(ctx context.Context, to string, data []byte) ([]byte, error),
) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:      chainID,
		testReceipt:  receiptFn,
		testCallView: callViewFn,
	}
}

// conn returns the dialed RPC client, dialing on the first call.
func (c *EVMClient) conn() (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		client, err := dialEVMClient(c.rpcURL)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.rpcURL, err)
		}
		c.client = client
	}
	return c.client, nil
}

// signerChainID returns the chain ID, asking the node once and caching it.
func (c *EVMClient) signerChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	client, err := c.conn()
	if err != nil {
		return nil, err
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return id, nil
}

// TransactionReceipt returns the receipt for a settlement reference, or
// ethereum.NotFound while the transaction is unmined.
func (c *EVMClient) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if c.testReceipt != nil {
		return c.testReceipt(ctx, txHash)
	}
	client, err := c.conn()
	if err != nil {
		return nil, err
	}
	return client.TransactionReceipt(ctx, common.HexToHash(txHash))
}

// IsNotFound reports whether err means "no receipt yet" rather than an RPC
// failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}

// CallView executes a read-only contract call
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.testCallView != nil {
		return c.testCallView(ctx, to, data)
	}
	client, err := c.conn()
	if err != nil {
		return nil, err
	}
	addr := common.HexToAddress(to)
	msg := ethereum.CallMsg{To: &addr, Data: data}
	return client.CallContract(ctx, msg, nil)
}

// TokenBalance returns the ERC-20 balance of owner at tokenAddress.
func (c *EVMClient) TokenBalance(ctx context.Context, tokenAddress, ownerAddress string) (*big.Int, error) {
	owner := common.HexToAddress(ownerAddress)

	// balanceOf(address) selector: 0x70a08231
	data := append(common.Hex2Bytes("70a08231"), common.LeftPadBytes(owner.Bytes(), 32)...)
	result, err := c.CallView(ctx, tokenAddress, data)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(result), nil
}

// TokenDecimals returns the ERC-20 decimals of tokenAddress.
func (c *EVMClient) TokenDecimals(ctx context.Context, tokenAddress string) (uint8, error) {
	// decimals() selector: 0x313ce567
	result, err := c.CallView(ctx, tokenAddress, common.Hex2Bytes("313ce567"))
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, fmt.Errorf("empty result from decimals() on %s", tokenAddress)
	}
	return uint8(new(big.Int).SetBytes(result).Uint64()), nil
}

// TransferToken signs and submits an ERC-20 transfer(to, amount) from the
// key's address and returns the transaction hash without waiting for it to
// mine. Confirmation is the verification worker's job.
func (c *EVMClient) TransferToken(ctx context.Context, key *ecdsa.PrivateKey, tokenAddress, toAddress string, amount *big.Int) (string, error) {
	client, err := c.conn()
	if err != nil {
		return "", err
	}
	chainID, err := c.signerChainID(ctx)
	if err != nil {
		return "", err
	}

	from := common.HexToAddress(addressFromKey(key))
	token := common.HexToAddress(tokenAddress)
	to := common.HexToAddress(toAddress)

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	// transfer(address,uint256) selector: 0xa9059cbb
	data := append(common.Hex2Bytes("a9059cbb"), common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)

	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &token,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, token, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}
