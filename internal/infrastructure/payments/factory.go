package payments

import (
	"agentmart.backend/internal/config"
	"agentmart.backend/internal/infrastructure/blockchain"
)

// FromConfig selects and builds the executor once at startup. The core
// never branches on mode at request time.
func FromConfig(cfg *config.Config) (Executor, error) {
	if cfg.Payments.Simulated {
		return NewSimulatedExecutor(), nil
	}

	client, err := blockchain.NewEVMClient(cfg.Payments.RPCURL)
	if err != nil {
		return nil, err
	}
	return NewOnchainExecutor(client, cfg.Payments.USDCContract, cfg.Payments.BuyerPrivateKey, cfg.Payments.ExecuteTimeout)
}
