package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/infrastructure/configloader"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

var _ port.ChainClientProvider = (*EVMClientProvider)(nil)

const defaultCustomClientTTL = 10 * time.Minute

// EVMClientProvider implements the port.ChainClientProvider interface.
// Clients for configured network endpoints live as long as the provider. Clients for
// caller-supplied endpoints expire after a period of disuse and are closed on eviction.
// Concurrent first dials for the same endpoint are collapsed.
type EVMClientProvider struct {
	clients  map[string]*EVMClient
	custom   *cache.Cache
	networks port.NetworkDefinitionProvider
	mu       sync.Mutex
	group    singleflight.Group
	opts     ClientOptions
	logger   port.Logger
}

// NewEVMClientProvider creates a new EVMClientProvider. networks decides which endpoints are
// configured ones; with nil networks every endpoint is treated as caller-supplied.
func NewEVMClientProvider(cfg configloader.RpcClientConfig, networks port.NetworkDefinitionProvider, logger port.Logger) *EVMClientProvider {
	ttl := time.Duration(cfg.CustomClientTTLMs) * time.Millisecond
	if ttl <= 0 {
		ttl = defaultCustomClientTTL
	}
	custom := cache.New(ttl, ttl)
	custom.OnEvicted(func(key string, v interface{}) {
		if c, ok := v.(*EVMClient); ok {
			c.Close()
		}
		logger.Debug("Evicted EVM client", "key", key)
	})

	return &EVMClientProvider{
		clients:  make(map[string]*EVMClient),
		custom:   custom,
		networks: networks,
		opts: ClientOptions{
			ConnectionTimeout: time.Duration(cfg.ConnectionTimeoutMs) * time.Millisecond,
			RPCCallTimeout:    time.Duration(cfg.CallTimeoutMs) * time.Millisecond,
			RateLimit:         cfg.RateLimit,
			BurstLimit:        cfg.BurstLimit,
		},
		logger: logger,
	}
}

func clientKey(netDef entity.NetworkDefinition) string {
	return netDef.Identifier + "|" + netDef.PrimaryRPCURL
}

// isConfigured reports whether netDef dials the endpoint its network is configured with.
func (p *EVMClientProvider) isConfigured(netDef entity.NetworkDefinition) bool {
	if p.networks == nil {
		return false
	}
	def, ok := p.networks.GetNetworkDefinitionByName(netDef.Identifier)
	return ok && def.PrimaryRPCURL == netDef.PrimaryRPCURL
}

func (p *EVMClientProvider) lookup(key string, configured bool) (*EVMClient, bool) {
	if !configured {
		v, ok := p.custom.Get(key)
		if !ok {
			return nil, false
		}
		c := v.(*EVMClient)
		// Sliding expiry: a client in use is not evicted under a running scan.
		p.custom.SetDefault(key, c)
		return c, true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[key]
	return c, ok
}

func (p *EVMClientProvider) store(key string, c *EVMClient, configured bool) {
	if !configured {
		// Delete first so an expired entry that was not swept yet is closed.
		p.custom.Delete(key)
		p.custom.SetDefault(key, c)
		return
	}
	p.mu.Lock()
	p.clients[key] = c
	p.mu.Unlock()
}

// GetClient retrieves a chain client for the given network definition.
// It caches clients to avoid reconnecting repeatedly.
func (p *EVMClientProvider) GetClient(ctx context.Context, netDef entity.NetworkDefinition) (port.ChainReader, error) {
	key := clientKey(netDef)
	configured := p.isConfigured(netDef)

	if c, ok := p.lookup(key, configured); ok {
		return c, nil
	}

	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		if c, ok := p.lookup(key, configured); ok {
			return c, nil
		}
		p.logger.Info("Creating new EVM client", "network", netDef.Identifier,
			"rpc_primary", netDef.PrimaryRPCURL, "configured", configured)
		c, err := NewEVMClient(ctx, netDef, p.opts)
		if err != nil {
			return nil, err
		}
		p.store(key, c, configured)
		p.logger.Info("EVM client connected", "network", netDef.Identifier, "rpc", c.RPCURL())
		return c, nil
	})
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", netDef.Identifier, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Identifier, err)
	}
	if shared {
		p.logger.Debug("Reused in-flight EVM dial", "network", netDef.Identifier)
	}
	return v.(*EVMClient), nil
}

// Close closes every cached client.
func (p *EVMClientProvider) Close() {
	p.mu.Lock()
	for key, c := range p.clients {
		c.Close()
		delete(p.clients, key)
	}
	p.mu.Unlock()

	for key := range p.custom.Items() {
		p.custom.Delete(key)
	}
}
