package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"cliphub/internal/catalog"
	"cliphub/internal/dedup"
	"cliphub/internal/ingest"
	"cliphub/internal/live"
	"cliphub/internal/media"
	"cliphub/internal/notify"
	"cliphub/internal/relevance"
	"cliphub/internal/source"
	"cliphub/pkg/config"
	"cliphub/pkg/database"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config yaml (defaults to $CLIPHUB_CONFIG)")
		once       = flag.Bool("once", false, "run one harvest cycle and exit")
		liveAddr   = flag.String("live-addr", ":7071", "live event TCP listen address")
		notifyAddr = flag.String("notify-addr", ":9090", "UDP monitor registration address")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if len(cfg.Sources) == 0 {
		log.Fatal("no sources configured; set sources in the config file")
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := catalog.NewRepo(db)
	hub := live.NewHub()
	registry := notify.NewRegistry()
	udpSrv := notify.NewServer(*notifyAddr, registry, log.Default())

	orch := ingest.NewOrchestrator(ingest.Deps{
		Sources:  buildSources(cfg.Sources),
		Filter:   relevance.New(cfg.Relevance),
		Resolver: dedup.NewResolver(repo, cfg.Dedup),
		Catalog:  repo,
		Thumbs:   media.NewThumbnails(),
		Hub:      hub,
		Notify:   udpSrv,
		Cfg:      cfg.Ingest,
		Retry: source.RetryConfig{
			MaxAttempts: cfg.Ingest.MaxAttempts,
		},
	})

	reval := ingest.NewRevalidator(repo, media.NewChecker(), cfg.Ingest.RevalidateBatch)

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := orch.RunCycle(ctx); err != nil {
			log.Fatalf("cycle failed: %v", err)
		}
		if _, _, err := reval.Sweep(ctx); err != nil {
			log.Printf("revalidate sweep failed: %v", err)
		}
		return
	}

	// daemon mode: event servers plus scheduled cycles
	go func() {
		if err := live.NewServer(*liveAddr, hub).Run(); err != nil {
			log.Printf("live server stopped: %v", err)
		}
	}()
	go func() {
		if err := udpSrv.Run(); err != nil {
			log.Printf("notify server stopped: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expr := cfg.Ingest.CronExpression
	if expr == "" {
		expr = "*/30 * * * *"
	}

	sched := cron.New()
	if _, err := sched.AddFunc(expr, func() {
		if _, err := orch.RunCycle(ctx); err != nil && err != ingest.ErrCycleRunning {
			log.Printf("scheduled cycle failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("bad cron expression %q: %v", expr, err)
	}
	if _, err := sched.AddFunc("@hourly", func() {
		if _, _, err := reval.Sweep(ctx); err != nil {
			log.Printf("revalidate sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("revalidate schedule: %v", err)
	}

	sched.Start()
	log.Printf("ingest daemon running (cycles: %s, revalidation: hourly)", expr)

	// first cycle right away; the schedule covers the rest
	go func() {
		if _, err := orch.RunCycle(ctx); err != nil && err != ingest.ErrCycleRunning {
			log.Printf("initial cycle failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("shutdown signal received: %s", sig)

	cancel()
	stopCtx := sched.Stop()
	<-stopCtx.Done()
	log.Println("ingest daemon stopped")
}

func buildSources(configs []config.SourceConfig) []source.Client {
	var out []source.Client
	for _, sc := range configs {
		switch sc.Kind {
		case "rss":
			out = append(out, source.NewRSS(sc.Name, sc.BaseURL, sc.Trusted))
		case "clipper", "":
			c := source.NewClipper(sc.Name, sc.BaseURL, sc.Trusted)
			if sc.Limit > 0 {
				c.Limit = sc.Limit
			}
			out = append(out, c)
		default:
			log.Printf("unknown source kind %q for %s, skipping", sc.Kind, sc.Name)
		}
	}
	return out
}
