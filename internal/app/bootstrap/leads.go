package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// AWSConfigLoader resolves SDK configuration on first use.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// LeadsProvider hands each request a repository for the configured store.
// Missing settings surface per request as *leads.ConfigError. Pooled clients
// are created once and owned by the provider.
type LeadsProvider struct {
	cfg     *appconfig.Config
	loadAWS AWSConfigLoader
	client  *http.Client
	logger  *logging.Logger

	mu     sync.Mutex
	memory *leads.InMemoryRepository
	pool   *pgxpool.Pool
	dynamo *dynamodb.Client
}

// NewLeadsProvider creates a provider for cfg.LeadsStore.
func NewLeadsProvider(cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) *LeadsProvider {
	if cfg == nil {
		panic("bootstrap: config required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadsProvider{
		cfg:     cfg,
		loadAWS: loadAWS,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		memory:  leads.NewInMemoryRepository(),
	}
}

// Repository implements leads.Provider.
func (p *LeadsProvider) Repository(ctx context.Context) (leads.Repository, error) {
	switch p.cfg.LeadsStore {
	case "memory":
		return p.memory, nil
	case "", "supabase":
		return leads.NewSupabaseRepository(leads.SupabaseConfig{
			URL:            p.cfg.SupabaseURL,
			ServiceRoleKey: p.cfg.SupabaseServiceRoleKey,
			Table:          p.cfg.LeadsTable,
		}, p.client)
	case "postgres":
		pool, err := p.postgresPool(ctx)
		if err != nil {
			return nil, err
		}
		return leads.NewPostgresRepository(pool, p.cfg.LeadsTable), nil
	case "dynamodb":
		client, err := p.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return leads.NewDynamoRepository(client, p.cfg.LeadsTable), nil
	default:
		return nil, &leads.ConfigError{Missing: []string{"a supported LEADS_STORE"}}
	}
}

func (p *LeadsProvider) postgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	if strings.TrimSpace(p.cfg.DatabaseURL) == "" {
		return nil, &leads.ConfigError{Missing: []string{"DATABASE_URL"}}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		return p.pool, nil
	}
	pool, err := pgxpool.New(context.WithoutCancel(ctx), p.cfg.DatabaseURL)
	if err != nil {
		// The parse error can echo the DSN, so only the log sees it.
		p.logger.Error("failed to open postgres pool", "error", err)
		return nil, &leads.ConfigError{Missing: []string{"a valid DATABASE_URL"}}
	}
	p.pool = pool
	return pool, nil
}

func (p *LeadsProvider) dynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	if strings.TrimSpace(p.cfg.LeadsTable) == "" {
		return nil, &leads.ConfigError{Missing: []string{"LEADS_TABLE"}}
	}
	if p.loadAWS == nil {
		return nil, &leads.ConfigError{Missing: []string{"AWS configuration"}}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dynamo != nil {
		return p.dynamo, nil
	}
	awsCfg, err := p.loadAWS(ctx)
	if err != nil {
		p.logger.Error("failed to load AWS config", "error", err)
		return nil, &leads.ConfigError{Missing: []string{"AWS configuration"}}
	}
	p.dynamo = dynamodb.NewFromConfig(awsCfg)
	return p.dynamo, nil
}

// Close releases pooled connections.
func (p *LeadsProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
}

var _ leads.Provider = (*LeadsProvider)(nil)
