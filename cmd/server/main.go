package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	achhandler "paperledger/internal/achievement/handler"
	"paperledger/internal/achievement/registry"
	achservice "paperledger/internal/achievement/service"
	authorhandler "paperledger/internal/authorship/handler"
	authorservice "paperledger/internal/authorship/service"
	commercehandler "paperledger/internal/commerce/handler"
	commerceservice "paperledger/internal/commerce/service"
	govhandler "paperledger/internal/governance/handler"
	govservice "paperledger/internal/governance/service"
	idhandler "paperledger/internal/identity/handler"
	idservice "paperledger/internal/identity/service"
	"paperledger/internal/ledger"
	"paperledger/internal/ledger/memory"
	"paperledger/internal/ledger/postgres"
	redisledger "paperledger/internal/ledger/redis"
	"paperledger/internal/platform/config"
	"paperledger/internal/platform/httpserver"
	"paperledger/internal/platform/logger"
	"paperledger/internal/platform/metrics"
	"paperledger/internal/platform/ratelimit"
	"paperledger/internal/platform/redis"
	"paperledger/internal/platform/signer"
	pubhandler "paperledger/internal/publication/handler"
	pubservice "paperledger/internal/publication/service"
	reviewhandler "paperledger/internal/review/handler"
	reviewservice "paperledger/internal/review/service"
	httptransport "paperledger/internal/transport/http"
	treasuryhandler "paperledger/internal/treasury/handler"
	treasuryservice "paperledger/internal/treasury/service"
	"paperledger/pkg/platform/audit/kafka"
	auditpublisher "paperledger/pkg/platform/audit/publisher"
	auditmemory "paperledger/pkg/platform/audit/store/memory"
	"paperledger/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	flags := pflag.NewFlagSet("paperledger", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	addr := flags.String("addr", "", "listen address (overrides config)")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	m := metrics.New(prometheus.DefaultRegisterer)
	opts := httptransport.Options{
		Logger:   log,
		Verifier: signer.NewVerifier(signer.WithLeeway(cfg.Server.SignerLeeway)),
		Metrics:  promhttp.Handler(),
		Timeout:  cfg.Server.RequestTimeout,
	}
	if cfg.Limits.Requests > 0 {
		opts.SignerLimit = ratelimit.PerSigner(infra.limits, cfg.Limits.Requests, cfg.Limits.Window, log)
	}
	router := httptransport.NewRouter(opts, registerModules(cfg, infra, m, log)...)

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting paperledger",
			"addr", cfg.Server.Addr,
			"ledger", cfg.Ledger.Backend,
			"registry", cfg.Registry.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server shut down")
		return nil
	})
	return g.Wait()
}

type infra struct {
	ledger   ledger.Ledger
	registry registry.AssetRegistry
	limits   ratelimit.Store
	audit    *auditpublisher.Publisher
	closers  []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func buildInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *infra, err error) {
	out := &infra{}
	defer func() {
		if err != nil {
			out.close()
		}
	}()

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		out.closers = append(out.closers, func() { _ = client.Close() })
	}

	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(cfg.Ledger.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		out.closers = append(out.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate ledger schema: %w", err)
		}
		out.ledger = postgres.New(db)
	case config.BackendRedis:
		out.ledger = redisledger.New(client.Client,
			redisledger.WithPrefix(cfg.Ledger.KeyPrefix),
			redisledger.WithLockTTL(cfg.Ledger.LockTTL))
	default:
		out.ledger = memory.New()
	}

	if client != nil {
		out.limits = ratelimit.NewRedis(client.Client, "ratelimit:")
	} else {
		out.limits = ratelimit.NewMemory()
	}

	if cfg.Registry.Backend == config.BackendRedis {
		out.registry = registry.NewRedis(client.Client, registry.WithKeyPrefix(cfg.Registry.KeyPrefix))
	} else {
		out.registry = registry.NewInMemory()
	}

	opts := []auditpublisher.Option{auditpublisher.WithLogger(log)}
	if cfg.Audit.Buffer > 0 {
		opts = append(opts, auditpublisher.WithAsyncBuffer(cfg.Audit.Buffer))
	}
	if brokers := cfg.Audit.Brokers(); len(brokers) > 0 {
		sink, err := kafka.NewSink(brokers, cfg.Audit.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("connect audit sink: %w", err)
		}
		out.closers = append(out.closers, sink.Close)
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("audit topic not ensured", "topic", cfg.Audit.KafkaTopic, "error", err)
		}
		opts = append(opts, auditpublisher.WithGuardedSink(sink, circuit.New("audit-kafka")))
	}
	out.audit = auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(auditmemory.WithCapacity(cfg.Audit.Retain)), opts...)
	out.closers = append(out.closers, out.audit.Close)
	return out, nil
}

func registerModules(cfg *config.Config, in *infra, m *metrics.Metrics, log *slog.Logger) []httptransport.Registrar {
	l := in.ledger
	registrars := []httptransport.Registrar{
		govhandler.New(govservice.New(l,
			govservice.WithLogger(log), govservice.WithAuditPublisher(in.audit), govservice.WithMetrics(m)), log),
		idhandler.New(idservice.New(l,
			idservice.WithLogger(log), idservice.WithAuditPublisher(in.audit), idservice.WithMetrics(m)), log),
		pubhandler.New(pubservice.New(l,
			pubservice.WithLogger(log), pubservice.WithAuditPublisher(in.audit), pubservice.WithMetrics(m)), log),
		authorhandler.New(authorservice.New(l,
			authorservice.WithLogger(log), authorservice.WithAuditPublisher(in.audit), authorservice.WithMetrics(m)), log),
		commercehandler.New(commerceservice.New(l,
			commerceservice.WithLogger(log), commerceservice.WithAuditPublisher(in.audit), commerceservice.WithMetrics(m)), log),
		reviewhandler.New(reviewservice.New(l,
			reviewservice.WithLogger(log), reviewservice.WithAuditPublisher(in.audit), reviewservice.WithMetrics(m)), log),
		achhandler.New(achservice.New(l, in.registry,
			achservice.WithLogger(log), achservice.WithAuditPublisher(in.audit), achservice.WithMetrics(m)), log),
		treasuryhandler.New(treasuryservice.New(l,
			treasuryservice.WithLogger(log), treasuryservice.WithAuditPublisher(in.audit), treasuryservice.WithMetrics(m)), log),
	}
	if cfg.Dev.Faucet {
		log.Warn("development faucet enabled")
		registrars = append(registrars, httptransport.NewFaucet(l, log))
	}
	return registrars
}
