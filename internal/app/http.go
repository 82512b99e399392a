package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/avelichko/go-taskboard/internal/config"
	"github.com/avelichko/go-taskboard/internal/delivery/graphql"
	"github.com/avelichko/go-taskboard/internal/pubsub"
	"github.com/avelichko/go-taskboard/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Block until an interrupt arrives, then drain in-flight
	// requests within the configured shutdown timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	broker := pubsub.NewBroker(globalLogger)
	taskService := services.NewTaskService(globalLogger, globalDB, broker)
	handler := graphql.New(globalLogger, taskService, broker)

	// Queries, mutations and the upgraded notification
	// connection all share the single /graphql path.
	router.POST("/graphql", handler.HandleQuery)
	router.GET("/graphql", handler.HandleSubscription)

	clientDir := config.Global().HTTP.ClientDir
	router.StaticFile("/", filepath.Join(clientDir, "index.html"))
	router.StaticFile("/app.js", filepath.Join(clientDir, "app.js"))
	router.StaticFile("/style.css", filepath.Join(clientDir, "style.css"))
}
