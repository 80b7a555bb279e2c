package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"clinica/internal/affiliation"
	affiliationhandler "clinica/internal/affiliation/handler"
	"clinica/internal/appointment"
	appointmenthandler "clinica/internal/appointment/handler"
	"clinica/internal/audit"
	"clinica/internal/consultation"
	consultationhandler "clinica/internal/consultation/handler"
	"clinica/internal/notification"
	"clinica/internal/platform/config"
	"clinica/internal/platform/httpserver"
	"clinica/internal/platform/logger"
	"clinica/internal/platform/metrics"
	"clinica/internal/platform/postgres"
	"clinica/internal/platform/redis"
	"clinica/internal/platform/txrunner"
	"clinica/internal/principal"
	"clinica/internal/subject"
	"clinica/internal/token"
	httptransport "clinica/internal/transport/http"
)

// main wires storage, services and the HTTP surface, then supervises the
// server and the audit mirror until shutdown. Business rules live in the
// internal services; nothing here makes domain decisions.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("opening postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	m := metrics.New()

	var (
		principals principal.Store
		appts      appointment.Store
		consults   consultation.Store
		affs       affiliation.Store
		auditStore audit.Store
		notifStore notification.Store
		runner     txrunner.Runner
	)
	if db != nil {
		principals = principal.NewPostgres(db)
		appts = appointment.NewPostgres(db)
		consults = consultation.NewPostgres(db)
		affs = affiliation.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		notifStore = notification.NewPostgres(db)
		runner = txrunner.NewPostgres(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		memPrincipals := principal.NewInMemory()
		principal.SeedBootstrapPrincipals(memPrincipals)
		principals = memPrincipals
		appts = appointment.NewInMemory()
		consults = consultation.NewInMemory()
		affs = affiliation.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		notifStore = notification.NewInMemoryStore()
		runner = txrunner.NewDirect()
	}

	mirror, err := audit.NewKafkaMirror(cfg.Kafka, log, m)
	if err != nil {
		log.Error("connecting to kafka", "error", err)
		os.Exit(1)
	}

	publisherOpts := []audit.Option{audit.WithLogger(log), audit.WithMetrics(m)}
	if mirror != nil {
		publisherOpts = append(publisherOpts, audit.WithMirror(mirror))
	}
	auditor := audit.NewPublisher(auditStore, publisherOpts...)

	admins := notification.NewCachedAdminSource(cache, principals, log)
	dispatcher := notification.NewDispatcher(notifStore, admins,
		notification.WithLogger(log), notification.WithMetrics(m))
	defer dispatcher.Close()

	subjects := subject.NewResolver()
	subjects.Register(subject.KindPatient, subject.PrincipalLookup(principals, principal.RolePatient))
	subjects.Register(subject.KindDoctor, subject.PrincipalLookup(principals, principal.RoleDoctor))
	subjects.Register(subject.KindCompany, affiliation.CompanyLookup(affs))

	appointmentSvc := appointment.New(appts, principals, subjects, runner,
		appointment.WithLogger(log),
		appointment.WithAuditSink(auditor),
		appointment.WithNotificationSink(dispatcher),
		appointment.WithMetrics(m))
	consultationSvc := consultation.New(consults, principals, subjects, principals, runner,
		consultation.WithLogger(log),
		consultation.WithAuditSink(auditor),
		consultation.WithNotificationSink(dispatcher),
		consultation.WithMetrics(m))
	affiliationSvc := affiliation.New(affs, principals, subjects, runner,
		affiliation.WithLogger(log),
		affiliation.WithAuditSink(auditor),
		affiliation.WithNotificationSink(dispatcher),
		affiliation.WithMetrics(m))

	tokens := token.NewService(cfg.Server.JWTSigningKey)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: tokens,
		DB:        db,
		Handlers: []httptransport.Registrar{
			appointmenthandler.New(appointmentSvc, log),
			consultationhandler.New(consultationSvc, log),
			affiliationhandler.New(affiliationSvc, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if mirror != nil {
		g.Go(func() error {
			if err := mirror.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if mirror != nil {
			mirror.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
