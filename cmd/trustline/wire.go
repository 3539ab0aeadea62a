package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	companyHandler "trustline/internal/company/handler"
	companyService "trustline/internal/company/service"
	companyStore "trustline/internal/company/store"
	"trustline/internal/consent"
	consentHandler "trustline/internal/consent/handler"
	"trustline/internal/document/filestore"
	documentHandler "trustline/internal/document/handler"
	documentService "trustline/internal/document/service"
	documentStore "trustline/internal/document/store"
	"trustline/internal/document/verifier"
	employeeHandler "trustline/internal/employee/handler"
	employeeService "trustline/internal/employee/service"
	employeeStore "trustline/internal/employee/store"
	jwttoken "trustline/internal/jwt_token"
	"trustline/internal/notification"
	notificationHandler "trustline/internal/notification/handler"
	notificationStore "trustline/internal/notification/store"
	"trustline/internal/platform/config"
	"trustline/internal/platform/kafka"
	"trustline/internal/platform/metrics"
	"trustline/internal/platform/postgres"
	"trustline/internal/platform/redis"
	reviewHandler "trustline/internal/review/handler"
	reviewService "trustline/internal/review/service"
	reviewStore "trustline/internal/review/store"
	"trustline/internal/scoring"
	"trustline/internal/security"
	securityHandler "trustline/internal/security/handler"
	httptransport "trustline/internal/transport/http"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/audit/anomaly"
	"trustline/pkg/platform/audit/publisher"
	auditMemory "trustline/pkg/platform/audit/store/memory"
	auditPostgres "trustline/pkg/platform/audit/store/postgres"
	"trustline/pkg/platform/audit/stream"
	"trustline/pkg/platform/circuit"
	"trustline/pkg/platform/tx"
)

// infra holds the process-wide connections. Every field is optional; nil
// means the matching in-memory fallback is used.
type infra struct {
	db     *sql.DB
	pool   *pgxpool.Pool
	redis  *redis.Client
	kafka  *kgo.Client
	s3     *s3.Client
	closer []func()
}

func (i *infra) Close() {
	for n := len(i.closer) - 1; n >= 0; n-- {
		i.closer[n]()
	}
}

func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*infra, error) {
	i := &infra{}

	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		i.db = db
		i.closer = append(i.closer, func() { _ = db.Close() })

		if err := postgres.Migrate(ctx, db); err != nil {
			i.Close()
			return nil, err
		}

		pool, err := postgres.ConnectPool(ctx, cfg.Postgres)
		if err != nil {
			i.Close()
			return nil, err
		}
		i.pool = pool
		i.closer = append(i.closer, pool.Close)
		logger.InfoContext(ctx, "postgres connected")
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		i.Close()
		return nil, err
	}
	if rc != nil {
		i.redis = rc
		i.closer = append(i.closer, func() { _ = rc.Close() })
		logger.InfoContext(ctx, "redis connected")
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		i.Close()
		return nil, err
	}
	if producer != nil {
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions); err != nil {
			producer.Close()
			i.Close()
			return nil, err
		}
		i.kafka = producer
		i.closer = append(i.closer, func() {
			_ = producer.Flush(context.Background())
			producer.Close()
		})
		logger.InfoContext(ctx, "audit stream enabled", "topic", cfg.Kafka.AuditTopic)
	}

	if cfg.Storage.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			i.Close()
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		i.s3 = s3.NewFromConfig(awsCfg)
	}

	return i, nil
}

func (i *infra) auditStore() audit.Store {
	if i.pool != nil {
		return auditPostgres.New(i.pool)
	}
	return auditMemory.NewInMemoryStore()
}

// application is the assembled object graph behind the HTTP router.
type application struct {
	router  http.Handler
	auditor *publisher.Publisher
}

func build(cfg *config.Config, i *infra, logger *slog.Logger) (*application, error) {
	reg := prometheus.DefaultRegisterer
	m := metrics.NewWithRegisterer(reg)

	if i.db != nil {
		return assemble(cfg, i, logger, reg, m,
			employeeStore.NewPostgres(i.db),
			companyStore.NewPostgres(i.db),
			reviewStore.NewPostgres(i.db),
			documentStore.NewPostgres(i.db),
			tx.NewPostgresRunner(i.db),
		)
	}
	return assemble(cfg, i, logger, reg, m,
		employeeStore.NewInMemory(),
		companyStore.NewInMemory(),
		reviewStore.NewInMemory(),
		documentStore.NewInMemory(),
		tx.NewMemoryRunner(),
	)
}

// employeeBackend is what the employee store must offer to the services
// that read and update employee rows.
type employeeBackend interface {
	employeeService.Store
	scoring.EmployeeStore
	documentService.EmployeeStore
	consent.EmployeeStore
}

type companyBackend interface {
	companyService.Store
	scoring.CompanyStore
}

type reviewBackend interface {
	reviewService.Store
	scoring.ReviewReader
}

func assemble(
	cfg *config.Config,
	i *infra,
	logger *slog.Logger,
	reg prometheus.Registerer,
	m *metrics.Metrics,
	employees employeeBackend,
	companies companyBackend,
	reviews reviewBackend,
	documents documentService.Store,
	runner tx.Runner,
) (*application, error) {
	auditStore := i.auditStore()
	pubOpts := []publisher.Option{
		publisher.WithLogger(logger),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
		publisher.WithRetention(cfg.Audit.Retention),
		publisher.WithBreaker(circuit.New("audit-store",
			circuit.WithFailureThreshold(cfg.Audit.BreakerThreshold),
			circuit.WithCooldown(cfg.Audit.BreakerCooldown),
		)),
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
	}
	if i.kafka != nil {
		pubOpts = append(pubOpts, publisher.WithSink(stream.NewKafkaSink(i.kafka, cfg.Kafka.AuditTopic, logger)))
	}
	auditor := publisher.NewPublisher(auditStore, pubOpts...)

	var inbox notification.Store
	if i.redis != nil {
		inbox = notificationStore.NewRedis(i.redis.Client, int(cfg.Redis.InboxLimit))
	} else {
		inbox = notificationStore.NewInMemory(int(cfg.Redis.InboxLimit))
	}
	notifier := notification.NewService(inbox,
		notification.WithLogger(logger),
		notification.WithMetrics(m),
	)

	var files documentService.FileStore
	if i.s3 != nil {
		files = filestore.NewS3(i.s3, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
	} else {
		files = filestore.NewMemory(cfg.Storage.S3Prefix)
	}

	scorer := scoring.NewService(reviews, employees, companies,
		scoring.WithLogger(logger),
		scoring.WithMetrics(m),
		scoring.WithRecencyWindow(cfg.Engine.ReputationRecencyWindow),
	)

	companySvc, err := companyService.New(companies, scorer, runner,
		companyService.WithLogger(logger),
		companyService.WithAuditPublisher(auditor),
		companyService.WithNotifier(notifier),
	)
	if err != nil {
		return nil, err
	}

	reviewSvc, err := reviewService.New(reviews, companies, employees, scorer, runner,
		reviewService.WithLogger(logger),
		reviewService.WithMetrics(m),
		reviewService.WithAuditPublisher(auditor),
		reviewService.WithNotifier(notifier),
		reviewService.WithReviewWindow(cfg.Engine.ReviewWindow),
	)
	if err != nil {
		return nil, err
	}

	documentSvc, err := documentService.New(documents, employees, files,
		verifier.New(verifier.WithThreshold(cfg.Engine.AutoVerifyThreshold)), runner,
		documentService.WithLogger(logger),
		documentService.WithMetrics(m),
		documentService.WithAuditPublisher(auditor),
		documentService.WithNotifier(notifier),
		documentService.WithNumberHasher(audit.NewHasher(cfg.Audit.HashKey)),
		documentService.WithBadgeThreshold(cfg.Engine.VerifiedBadgeThreshold),
	)
	if err != nil {
		return nil, err
	}

	employeeSvc, err := employeeService.New(employees, scorer, documentSvc,
		employeeService.WithLogger(logger),
		employeeService.WithAuditPublisher(auditor),
	)
	if err != nil {
		return nil, err
	}

	consentSvc, err := consent.NewService(employees,
		consent.WithLogger(logger),
		consent.WithAuditPublisher(auditor),
	)
	if err != nil {
		return nil, err
	}

	securitySvc, err := security.NewService(anomaly.New(auditStore), auditor,
		security.WithLogger(logger),
		security.WithAuditPublisher(auditor),
	)
	if err != nil {
		return nil, err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	checks := map[string]httptransport.HealthCheck{}
	if i.db != nil {
		checks["postgres"] = i.db.PingContext
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Health
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    logger,
		Principal: jwttoken.NewPrincipalProvider(jwtService),
		Auditor:   auditor,
		Handlers: []httptransport.RouteRegistrar{
			employeeHandler.New(employeeSvc, logger),
			companyHandler.New(companySvc, logger),
			reviewHandler.New(reviewSvc, logger),
			documentHandler.New(documentSvc, logger, documentHandler.WithMaxUploadBytes(cfg.Server.MaxUploadBytes)),
			notificationHandler.New(notifier, logger),
			securityHandler.New(securitySvc, logger),
		},
		EmployeeHandlers: []httptransport.RouteRegistrar{
			consentHandler.New(consentSvc, logger),
		},
		HealthChecks: checks,
	})

	return &application{router: router, auditor: auditor}, nil
}
