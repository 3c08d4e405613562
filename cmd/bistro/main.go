package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"github.com/golden-fork/bistro/client"
	"github.com/golden-fork/bistro/internal/config"
	"github.com/golden-fork/bistro/internal/domain"
	"github.com/golden-fork/bistro/internal/infra/database"
	"github.com/golden-fork/bistro/internal/infra/repository"
	"github.com/golden-fork/bistro/internal/present/rest"
	"github.com/golden-fork/bistro/internal/service"
	"github.com/golden-fork/bistro/internal/usecase"
)

func main() {
	configPath := os.Getenv("BISTRO_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	domainConf := domain.Config{
		SiteName:       conf.Site.Name,
		PublicOrigin:   conf.Site.PublicOrigin,
		InternalOrigin: conf.Backend.InternalOrigin,
		AdminToken:     conf.Server.AdminToken,
	}

	fmt.Println("Content backend endpoint:", conf.Backend.Endpoint)

	cl := client.New(conf.Backend.Endpoint)
	if conf.Backend.QueryTimeout > 0 {
		cl.SetTimeout(time.Duration(conf.Backend.QueryTimeout) * time.Second)
	}
	if conf.Server.MemcachedAddr != "" {
		cl.UseMemcached(database.NewMemcached(conf.Server.MemcachedAddr))
	}

	var snapshots usecase.SnapshotRepository
	if conf.Server.PostgresDsn != "" {
		db, err := database.NewPostgres(conf.Server.PostgresDsn)
		if err != nil {
			panic("failed to connect database")
		}
		if err := database.MigratePostgres(db); err != nil {
			panic("failed to migrate database")
		}
		snapshots = repository.NewSnapshotRepository(db)
	}

	var signal *service.SignalService
	var broadcast usecase.PurgeBroadcaster
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
		signal = service.NewSignalService(rdb)
		broadcast = signal

		// Every process drops its own cache tags when any process
		// publishes a purge.
		go signal.Subscribe(context.Background(), func(event service.Event) {
			if event.Type != service.EventTypePurge {
				return
			}
			for _, tag := range event.Tags {
				cl.InvalidateTag(tag)
			}
		})
	}

	content := usecase.NewContentUsecase(cl, snapshots, broadcast, domainConf)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(conf.Server.TraceEndpoint, "bistro")
		if err != nil {
			panic(fmt.Sprintf("failed to set up trace provider: %v", err))
		}
		defer cleanup()
		e.Use(otelecho.Middleware("bistro"))
	}

	handler := rest.NewHandler(domainConf, content, signal)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTraceProvider(endpoint string, serviceName string) (func(), error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			fmt.Println("failed to shutdown trace provider:", err)
		}
	}
	return cleanup, nil
}
