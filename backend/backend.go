package backend

import (
	"context"
	"log/slog"

	"github.com/gagliardetto/solana-go/rpc"
)

// Backend reads live cluster state over JSON-RPC.
type Backend struct {
	ctx       context.Context
	log       *slog.Logger
	rpcClient *rpc.Client
}

func NewBackend(ctx context.Context, endpoint string, log *slog.Logger) *Backend {
	return &Backend{
		ctx:       ctx,
		log:       log,
		rpcClient: rpc.New(endpoint),
	}
}

func (backend *Backend) RpcClient() *rpc.Client {
	return backend.rpcClient
}
