package svc

import (
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	zerocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	"github.com/aurisvision/monad-trading-bot-sub003/internal/cache"
	"github.com/aurisvision/monad-trading-bot-sub003/internal/config"
	"github.com/aurisvision/monad-trading-bot-sub003/internal/model"
	"github.com/aurisvision/monad-trading-bot-sub003/internal/repo"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
	exchangepkg "github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange"
	_ "github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange/router"
	_ "github.com/aurisvision/monad-trading-bot-sub003/pkg/exchange/sim"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/journal"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/session"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/wallet"
)

type ServiceContext struct {
	Config config.Config

	ExchangeConfig    *exchangepkg.Config
	ExchangeProviders map[string]exchangepkg.Provider
	DefaultExchange   exchangepkg.Provider

	Wallets wallet.Provider
	Cache   *cache.Store
	Metrics *engine.StatsSink
	Journal *journal.Writer

	// Populated only when Postgres is configured.
	DBConn            sqlx.SqlConn
	AccountsModel     model.AccountsModel
	SettingsModel     model.UserSettingsModel
	TransactionsModel model.TransactionsModel
	SessionsModel     model.SessionsModel
	AccountRepo       *repo.AccountRepo
	SessionRepo       *repo.SessionRepo
	Sessions          *session.Machine
	Engine            *engine.Executor
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config:  c,
		Metrics: engine.NewStatsSink(),
	}

	// Exchange providers
	exchangeCfg := c.Exchange.Value
	if exchangeCfg == nil {
		exchangeCfg = config.MustLoadExchange()
	}
	// Test environment defaults: route every provider to its testnet.
	if c.IsTestEnv() {
		for _, provider := range exchangeCfg.Providers {
			provider.Testnet = true
		}
	}
	providers, err := exchangeCfg.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build exchange providers: %v", err)
	}
	svc.ExchangeConfig = exchangeCfg
	svc.ExchangeProviders = providers
	if exchangeCfg.Default != "" {
		svc.DefaultExchange = providers[exchangeCfg.Default]
	}
	if svc.DefaultExchange == nil {
		log.Fatalf("exchange config: default provider %q not found", exchangeCfg.Default)
	}

	// Wallet keystore
	masterSecret := os.Getenv(c.Wallet.MasterSecretEnv)
	wallets, err := wallet.NewKeystoreProvider(masterSecret)
	if err != nil {
		log.Fatalf("failed to init wallet keystore: %v", err)
	}
	svc.Wallets = wallets

	// Redis-backed cache; absent Redis leaves an inert store and every read
	// goes to the source of truth.
	var backend cache.Backend
	if c.Redis.Host != "" {
		backend = zerocache.New(
			zerocache.CacheConf{{RedisConf: c.Redis, Weight: 100}},
			syncx.NewSingleFlight(),
			zerocache.NewStat(cache.Namespace),
			model.ErrNotFound,
		)
	}
	svc.Cache = cache.NewStore(backend, cache.NewTTLSet(c.TTL))

	if c.Journal.Dir != "" {
		svc.Journal = journal.NewWriter(c.Journal.Dir)
	}

	// Persistence and the engine itself only come up with a database.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.AccountsModel = model.NewAccountsModel(conn)
		svc.SettingsModel = model.NewUserSettingsModel(conn)
		svc.TransactionsModel = model.NewTransactionsModel(conn)
		svc.SessionsModel = model.NewSessionsModel(conn)

		svc.AccountRepo = repo.NewAccountRepo(svc.AccountsModel, svc.SettingsModel, svc.TransactionsModel)
		svc.SessionRepo = repo.NewSessionRepo(svc.SessionsModel, backend)

		machine, err := session.NewMachine(svc.SessionRepo,
			session.WithTTL(time.Duration(c.Session.TTLSeconds)*time.Second))
		if err != nil {
			log.Fatalf("failed to init session machine: %v", err)
		}
		svc.Sessions = machine

		opts := []engine.ExecutorOption{engine.WithMetricsSink(svc.Metrics)}
		if svc.Journal != nil {
			opts = append(opts, engine.WithJournal(svc.Journal))
		}
		executor, err := engine.NewExecutor(svc.AccountRepo, svc.Cache, svc.Wallets, svc.DefaultExchange, opts...)
		if err != nil {
			log.Fatalf("failed to init trade engine: %v", err)
		}
		svc.Engine = executor
	}

	return svc
}
