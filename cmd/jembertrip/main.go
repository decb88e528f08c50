// Package main 旅游目的地推荐服务入口
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/jembertrip/config"
	_ "github.com/rushteam/jembertrip/config/builders"
	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/corpus"
	"github.com/rushteam/jembertrip/model"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/tracer"
	"github.com/rushteam/jembertrip/recommend"
	"github.com/rushteam/jembertrip/server"
	"github.com/rushteam/jembertrip/server/handler"
	"github.com/rushteam/jembertrip/store"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = Version
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting jembertrip",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 缓存：启用 Redis 时多实例共享，否则使用进程内存
	var cache core.Store
	deps := map[string]handler.Pinger{}
	if cfg.Cache.Redis.Enabled {
		rs, err := store.NewRedisStore(ctx, cfg.Cache.Redis.StoreConfig())
		if err != nil {
			logger.Fatal(ctx, "failed to connect redis", err)
		}
		defer rs.Close()
		cache = rs
		deps["redis"] = rs
	} else {
		ms := store.NewMemoryStore()
		defer ms.Close()
		cache = ms
	}

	// 先启动 HTTP 服务，推荐服务就绪前推荐路由返回 503
	holder := handler.NewServiceHolder()
	router := server.NewRouter(cfg, holder, deps)
	srv := &http.Server{
		Addr:         cfg.Server.HTTP.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}
	go func() {
		log.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "http server error", err)
		}
	}()

	startCtx, cancelStart := context.WithCancel(ctx)
	defer cancelStart()
	go func() {
		svc, err := bootstrap(startCtx, cfg, cache)
		if err != nil {
			logger.Fatal(ctx, "startup failed", err)
		}
		holder.Install(svc)
		logger.Info(ctx, "recommender ready",
			"destinations", svc.Corpus().Len(),
			"dimension", svc.Corpus().Dimension(),
		)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancelStart()

	timeout := cfg.Server.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}

// bootstrap 并发加载语料与初始化编码器，校验维度后构建推荐服务。
func bootstrap(ctx context.Context, cfg *config.Config, cache core.Store) (*recommend.Service, error) {
	var (
		c   *corpus.Corpus
		enc core.TextEncoder
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loader, closeFn, err := newCorpusLoader(gctx, cfg, cache)
		if err != nil {
			return err
		}
		defer closeFn()
		c, err = corpus.Load(gctx, loader)
		return err
	})
	g.Go(func() error {
		var err error
		enc, err = model.NewEncoder(cfg.Embedding.EncoderConfig(), cache)
		if err != nil {
			return err
		}
		if in, ok := enc.(core.Initializer); ok {
			return in.Init(gctx)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := store.NewMemoryVectorService()
	if err := c.Index(ctx, vectors, cfg.Corpus.Collection); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}

	feed, err := config.BuildFeedPipeline(&config.Env{
		Catalog:    c,
		Vectors:    vectors,
		Encoder:    enc,
		Store:      cache,
		Collection: cfg.Corpus.Collection,
		Recommend:  cfg.Recommend,
	}, cfg.Recommend)
	if err != nil {
		return nil, fmt.Errorf("build feed pipeline: %w", err)
	}

	return recommend.New(ctx, recommend.Options{
		Corpus:     c,
		Encoder:    enc,
		Vectors:    vectors,
		Collection: cfg.Corpus.Collection,
		Feed:       feed,
		Config:     cfg.Recommend,
	})
}

func newCorpusLoader(ctx context.Context, cfg *config.Config, cache core.Store) (corpus.Loader, func(), error) {
	var (
		loader  corpus.Loader
		closeFn = func() {}
	)
	switch cfg.Corpus.Source {
	case config.CorpusSourcePostgres:
		pg, err := corpus.NewPostgresLoader(ctx, cfg.Corpus.Postgres.LoaderConfig())
		if err != nil {
			return nil, nil, err
		}
		loader = pg
		closeFn = func() { _ = pg.Close() }
	default:
		loader = &corpus.FileLoader{Path: cfg.Corpus.Path}
	}

	if cfg.Cache.Redis.Enabled && cfg.Corpus.CacheTTL > 0 {
		loader = &corpus.CachedLoader{
			Loader: loader,
			Store:  cache,
			TTL:    int(cfg.Corpus.CacheTTL.Seconds()),
		}
	}
	return loader, closeFn, nil
}
