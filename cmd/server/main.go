package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yuriscavalcante/rh360/internal/api"
	"github.com/yuriscavalcante/rh360/internal/audit"
	auditrepo "github.com/yuriscavalcante/rh360/internal/audit/repository"
	"github.com/yuriscavalcante/rh360/internal/config"
	credrepo "github.com/yuriscavalcante/rh360/internal/credential/repository"
	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/db"
	handoffservice "github.com/yuriscavalcante/rh360/internal/handoff/service"
	healthhandler "github.com/yuriscavalcante/rh360/internal/health/handler"
	identityrepo "github.com/yuriscavalcante/rh360/internal/identity/repository"
	identityservice "github.com/yuriscavalcante/rh360/internal/identity/service"
	"github.com/yuriscavalcante/rh360/internal/logging"
	policyengine "github.com/yuriscavalcante/rh360/internal/policy/engine"
	"github.com/yuriscavalcante/rh360/internal/security"
	"github.com/yuriscavalcante/rh360/internal/server"
	sessionservice "github.com/yuriscavalcante/rh360/internal/session/service"
	"github.com/yuriscavalcante/rh360/internal/telemetry"
	otelsetup "github.com/yuriscavalcante/rh360/internal/telemetry/otel"
	"github.com/yuriscavalcante/rh360/internal/telemetry/producer"
	userrepo "github.com/yuriscavalcante/rh360/internal/user/repository"
	userservice "github.com/yuriscavalcante/rh360/internal/user/service"
)

const serviceName = "rh360-auth"

func main() {
	log := logging.Log()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		log.WithError(err).Fatal("otel")
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewCredentialMetrics(providers.MeterProvider)
	if err != nil {
		log.WithError(err).Fatal("metrics")
	}

	emitters := []telemetry.EventEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	var stream producer.Producer
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SecurityEventsTopic); kp != nil {
		stream = kp
		emitters = append(emitters, stream)
		log.WithField("topic", cfg.SecurityEventsTopic).Info("streaming security events to kafka")
	}
	events := telemetry.Fanout(emitters...)

	conn, dialect, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	defer conn.Close()

	codec, err := security.NewCodec(security.CodecConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	if err != nil {
		log.WithError(err).Fatal("codec")
	}
	policy, err := policyengine.NewOPAEvaluator(ctx, "")
	if err != nil {
		log.WithError(err).Fatal("policy")
	}

	auditLog := audit.NewLogger(auditrepo.NewSQLRepository(conn, dialect), nil)
	users := userrepo.NewSQLRepository(conn, dialect)
	obs := credservice.Observers{Audit: auditLog, Events: events, Metrics: metrics}

	verifier := credservice.NewVerifier(codec, credrepo.NewSQLRepository(conn, dialect), cfg.LedgerTimeout(), obs)
	sessions := sessionservice.NewAuthority(verifier, cfg.SessionTTL(), obs)
	handoffs := handoffservice.NewAuthority(verifier, users, policy, handoffservice.Config{
		TTL:         cfg.HandoffTTL(),
		FrontendURL: cfg.FrontendURL,
		QRWidth:     cfg.QRCodeWidth,
	}, obs)
	auth := identityservice.NewAuthService(users, identityrepo.NewSQLRepository(conn, dialect),
		security.NewHasher(cfg.BcryptCost), sessions, policy, auditLog)
	checker := healthhandler.NewChecker(conn, policy)

	httpSrv, err := api.New(api.Deps{
		Addr:     cfg.HTTPAddr,
		Auth:     auth,
		Sessions: sessions,
		Handoffs: handoffs,
		Users:    userservice.NewService(users, auditLog),
		Health:   checker,
	})
	if err != nil {
		log.WithError(err).Fatal("api")
	}
	httpSrv.Start()

	grpcSrv, healthSrv := server.NewServer(server.Deps{
		Sessions: sessions,
		Audit:    auditLog,
		Events:   events,
		Health:   checker,
	})
	go server.RunHealth(ctx, healthSrv, checker)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		if err := grpcSrv.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC serve")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	healthSrv.Shutdown()
	grpcSrv.GracefulStop()
	if err := httpSrv.Close(context.Background()); err != nil {
		log.WithError(err).Warn("http shutdown")
	}

	// Let in-flight async emits finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if stream != nil {
		if err := stream.Close(); err != nil {
			log.WithError(err).Warn("kafka close")
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("otel shutdown")
	}
	log.Info("stopped")
}
