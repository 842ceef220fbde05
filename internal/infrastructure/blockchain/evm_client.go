package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"ptradoor.backend/internal/domain/entities"
)

// TransferEventTopic is keccak256("Transfer(address,address,uint256)")
var TransferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// EVMClient reads token activity from an EVM chain
type EVMClient struct {
	client  *ethclient.Client
	chainID *big.Int
	rpcURL  string
}

// NewEVMClient dials the RPC endpoint and resolves its chain id
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetBlockNumber gets the latest block number
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// GetTokenBalance gets the ERC20 token balance of an address
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddress, ownerAddress string) (*big.Int, error) {
	token := common.HexToAddress(tokenAddress)
	owner := common.HexToAddress(ownerAddress)

	// balanceOf(address) selector: 0x70a08231
	data := append(common.Hex2Bytes("70a08231"), common.LeftPadBytes(owner.Bytes(), 32)...)

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(result), nil
}

// FilterTransfers returns the ERC-20 Transfer logs of token in [fromBlock, toBlock]
func (c *EVMClient) FilterTransfers(ctx context.Context, tokenAddress string, fromBlock, toBlock uint64) ([]entities.TokenTransfer, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{common.HexToAddress(tokenAddress)},
		Topics:    [][]common.Hash{{TransferEventTopic}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter transfer logs %d-%d: %w", fromBlock, toBlock, err)
	}

	transfers := make([]entities.TokenTransfer, 0, len(logs))
	for _, l := range logs {
		transfer, ok := decodeTransfer(l)
		if !ok {
			continue
		}
		transfers = append(transfers, transfer)
	}
	return transfers, nil
}

// decodeTransfer skips removed (reorged) logs and non-standard encodings such as ERC-721 transfers
func decodeTransfer(l types.Log) (entities.TokenTransfer, bool) {
	if l.Removed || len(l.Topics) != 3 || l.Topics[0] != TransferEventTopic || len(l.Data) != 32 {
		return entities.TokenTransfer{}, false
	}
	return entities.TokenTransfer{
		TxHash:      l.TxHash.Hex(),
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
		From:        strings.ToLower(common.BytesToAddress(l.Topics[1].Bytes()).Hex()),
		To:          strings.ToLower(common.BytesToAddress(l.Topics[2].Bytes()).Hex()),
		Value:       new(big.Int).SetBytes(l.Data),
	}, true
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
