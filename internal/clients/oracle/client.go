// Package oracle implements domain.OracleSink against an EVM-compatible
// on-chain price oracle contract: dial an RPC endpoint, sign with a
// private key, and call setPriceWithMetals through a bound contract.
package oracle

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/preciousmetals/indexd/internal/domain"
)

var _ domain.OracleSink = (*Client)(nil)

// callTimeout bounds every individual RPC call made to the node.
const callTimeout = 15 * time.Second

// Client is a domain.OracleSink backed by a bound contract on an
// EVM-compatible chain. It dials once at construction and signs writes
// with the configured private key.
type Client struct {
	eth        *ethclient.Client
	contract   *bind.BoundContract
	address    common.Address
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
	log        zerolog.Logger
}

// NewClient dials rpcURL, loads the ABI at abiPath, and derives the signing
// address from the hex-encoded privateKeyHex. abiPath may point either to a
// bare ABI JSON array or a Hardhat-style artifact with a top-level "abi"
// field.
func NewClient(ctx context.Context, rpcURL, contractAddress, abiPath, privateKeyHex string, log zerolog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	parsedABI, err := loadABI(abiPath)
	if err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(trimHexPrefix(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	address := common.HexToAddress(contractAddress)
	contract := bind.NewBoundContract(address, parsedABI, eth, eth, eth)

	return &Client{
		eth:        eth,
		contract:   contract,
		address:    address,
		privateKey: key,
		chainID:    chainID,
		log:        log.With().Str("client", "oracle").Logger(),
	}, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// loadABI accepts either a bare ABI JSON array or a Hardhat artifact
// ({"abi": [...]}), matching the two shapes seen across the pack's
// on-chain example repos.
func loadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read ABI file %s: %w", path, err)
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(data, &artifact); err == nil && len(artifact.ABI) > 0 {
		data = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse ABI file %s: %w", path, err)
	}
	return parsed, nil
}

// SetPriceWithMetals signs and submits a setPriceWithMetals(uint256,
// uint256, uint256, uint256, uint256) transaction and returns its hash.
func (c *Client) SetPriceWithMetals(ctx context.Context, indexE6, xauE6, xagE6, xptE6, xpdE6 uint64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	auth, err := c.transactor(ctx)
	if err != nil {
		return "", err
	}

	tx, err := c.contract.Transact(auth, "setPriceWithMetals",
		new(big.Int).SetUint64(indexE6),
		new(big.Int).SetUint64(xauE6),
		new(big.Int).SetUint64(xagE6),
		new(big.Int).SetUint64(xptE6),
		new(big.Int).SetUint64(xpdE6),
	)
	if err != nil {
		return "", fmt.Errorf("submit setPriceWithMetals: %w", err)
	}
	c.log.Info().Str("tx", tx.Hash().Hex()).Msg("setPriceWithMetals submitted")
	return tx.Hash().Hex(), nil
}

// GetPricePerOzE6 reads the contract's current published price.
func (c *Client) GetPricePerOzE6(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, "getPricePerOzE6")
}

// LastUpdateAt reads the unix timestamp of the contract's last update.
func (c *Client) LastUpdateAt(ctx context.Context) (int64, error) {
	v, err := c.callUint64(ctx, "lastUpdateAt")
	return int64(v), err
}

// MinUpdateInterval reads the contract's configured minimum seconds
// between updates.
func (c *Client) MinUpdateInterval(ctx context.Context) (int64, error) {
	v, err := c.callUint64(ctx, "minUpdateInterval")
	return int64(v), err
}

func (c *Client) callUint64(ctx context.Context, method string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return 0, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("call %s: unexpected output shape %v", method, out)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("call %s: unexpected output type %T", method, out[0])
	}
	return value.Uint64(), nil
}

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, crypto.PubkeyToAddress(c.privateKey.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	auth.Context = ctx
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasPrice = gasPrice
	auth.GasLimit = uint64(300000)
	return auth, nil
}
