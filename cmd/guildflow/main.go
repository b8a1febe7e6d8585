package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/guildops/guildflow/internal/analytics"
	"github.com/guildops/guildflow/internal/bronze"
	"github.com/guildops/guildflow/internal/config"
	"github.com/guildops/guildflow/internal/cron"
	"github.com/guildops/guildflow/internal/crontab"
	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/gameapi"
	"github.com/guildops/guildflow/internal/metrics"
	"github.com/guildops/guildflow/internal/notify"
	"github.com/guildops/guildflow/internal/pipeline"
	"github.com/guildops/guildflow/internal/planner"
	"github.com/guildops/guildflow/internal/silver"
	"github.com/guildops/guildflow/internal/storage"
	"github.com/guildops/guildflow/internal/store/postgres"
	"github.com/guildops/guildflow/internal/summary"
	"github.com/guildops/guildflow/internal/transport/channel"

	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "bronze-calendar":
		os.Exit(runBronzeCalendar())
	case "bronze-guild":
		os.Exit(runBronzeGuild())
	case "bronze-leaderboard":
		os.Exit(runBronzeLeaderboard(args))
	case "silver-guild":
		os.Exit(runSilverGuild())
	case "silver-leaderboard":
		os.Exit(runSilverLeaderboard(args))
	case "notify":
		os.Exit(runNotify(args))
	case "schedule":
		os.Exit(runSchedule())
	case "pipeline":
		os.Exit(runPipeline(args))
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`guildflow - scheduled guild data pipeline

Usage:
  guildflow <command> [flags]

Commands:
  bronze-calendar            Fetch and stage the event calendar
  bronze-guild               Fetch and stage the guild roster and player payloads
  bronze-leaderboard -kind   Fetch and stage a war/battle leaderboard
  silver-guild               Promote today's staged roster into the warehouse
  silver-leaderboard -kind   Promote the latest staged leaderboard
  notify -kind               Send the narrated leaderboard report to the webhook
  schedule                   Re-arm the event-driven crontab entries from the calendar
  pipeline <name>            Run a named staged pipeline (guild-daily, war-leaderboard,
                             battle-leaderboard, calendar-refresh)
  validate                   Validate configuration (no connections made)
  config                     Print effective configuration as JSON (secrets masked)
  version                    Print version information

Environment Variables:
  GAME_API_BASE_URL       Game-data API base URL (bronze commands)
  GAME_API_KEY            Game-data API key (bronze commands)
  ALLY_CODE               Ally code the API is queried as (bronze commands)
  GUILD_ID                Guild identifier (required)
  BLOB_ROOT               Bronze blob storage root directory (required)

  WAREHOUSE_URL           PostgreSQL connection string (silver and notify commands)
  WAREHOUSE_SCHEMA        Warehouse schema for silver tables (default: "silver")

  WEBHOOK_URL             Chat webhook URL (notify command)
  OPENAI_API_KEY          OpenAI API key (notify command)
  SUMMARY_MODEL           Chat completion model (default: "gpt-4o-mini")

  BIN_PATH                Binary path written into crontab entries (default: this binary)
  LEAD_MINUTES            Minutes subtracted from event end when arming jobs (default: "1")
  CRONTAB_COMMAND         Crontab binary to invoke (default: "crontab")

  HTTP_TIMEOUT            Outbound HTTP timeout (default: "30s")
  REDIS_ADDR              Redis address for run analytics (optional)
  ANALYTICS_RETENTION     Retention for per-day run counters (default: "720h")
  METRICS_ENABLED         Enable Prometheus metrics (default: "false")
  METRICS_ADDR            Metrics server address during pipeline runs (default: ":9090")
  EVENTBUS_BUFFER_SIZE    Stage event channel buffer (default: "100")`)
}

// loadConfig loads and validates the shared configuration, then checks the
// command-specific required settings.
func loadConfig(required func(config.Config) map[string]string) (config.Config, int) {
	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return cfg, exitInvalidConfig
	}
	if required != nil {
		if err := config.Require(required(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			return cfg, exitInvalidConfig
		}
	}
	return cfg, exitSuccess
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func parseKind(name string, args []string) (string, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	kind := fs.String("kind", domain.LeaderboardKindWar, "leaderboard kind (war or battle)")
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	if *kind != domain.LeaderboardKindWar && *kind != domain.LeaderboardKindBattle {
		fmt.Fprintf(os.Stderr, "unknown leaderboard kind %q (want war or battle)\n", *kind)
		return "", false
	}
	return *kind, true
}

func apiRequired(cfg config.Config) map[string]string {
	return map[string]string{
		"GAME_API_BASE_URL": cfg.GameAPIBaseURL,
		"GAME_API_KEY":      cfg.GameAPIKey,
		"ALLY_CODE":         cfg.AllyCode,
	}
}

func newStore(cfg config.Config) (*storage.FSStore, error) {
	return storage.NewFSStore(cfg.BlobRoot)
}

// skipRecorder returns the metrics sink for skip counting when metrics are
// enabled.
func skipRecorder(cfg config.Config) bronze.SkipRecorder {
	if !cfg.MetricsEnabled {
		return nil
	}
	return metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
}

func runBronzeCalendar() int {
	cfg, code := loadConfig(apiRequired)
	if code != exitSuccess {
		return code
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		return exitRuntimeError
	}
	client := gameapi.New(cfg.GameAPIBaseURL, cfg.GameAPIKey, cfg.AllyCode, cfg.HTTPTimeout)

	ctx, cancel := signalContext()
	defer cancel()

	if err := bronze.NewCalendarJob(client, store).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bronze-calendar: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

func runBronzeGuild() int {
	cfg, code := loadConfig(apiRequired)
	if code != exitSuccess {
		return code
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		return exitRuntimeError
	}
	client := gameapi.New(cfg.GameAPIBaseURL, cfg.GameAPIKey, cfg.AllyCode, cfg.HTTPTimeout)

	job := bronze.NewGuildJob(client, store, cfg.GuildID)
	if skips := skipRecorder(cfg); skips != nil {
		job = job.WithSkipRecorder(skips)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := job.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bronze-guild: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

func runBronzeLeaderboard(args []string) int {
	kind, ok := parseKind("bronze-leaderboard", args)
	if !ok {
		return exitInvalidConfig
	}

	cfg, code := loadConfig(apiRequired)
	if code != exitSuccess {
		return code
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		return exitRuntimeError
	}
	client := gameapi.New(cfg.GameAPIBaseURL, cfg.GameAPIKey, cfg.AllyCode, cfg.HTTPTimeout)

	ctx, cancel := signalContext()
	defer cancel()

	if err := bronze.NewLeaderboardJob(client, store, cfg.GuildID).Run(ctx, kind); err != nil {
		fmt.Fprintf(os.Stderr, "bronze-leaderboard: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

func openWarehouse(ctx context.Context, cfg config.Config) (*sql.DB, *postgres.Store, error) {
	db, err := sql.Open("postgres", cfg.WarehouseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open warehouse: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect to warehouse: %w", err)
	}

	store := postgres.New(db, cfg.WarehouseSchema)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

func warehouseRequired(cfg config.Config) map[string]string {
	return map[string]string{"WAREHOUSE_URL": cfg.WarehouseURL}
}

func runSilverGuild() int {
	cfg, code := loadConfig(warehouseRequired)
	if code != exitSuccess {
		return code
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		return exitRuntimeError
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, warehouse, err := openWarehouse(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warehouse error: %v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	if err := silver.NewGuildTransform(store, warehouse, warehouse, cfg.GuildID).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "silver-guild: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

func runSilverLeaderboard(args []string) int {
	kind, ok := parseKind("silver-leaderboard", args)
	if !ok {
		return exitInvalidConfig
	}

	cfg, code := loadConfig(warehouseRequired)
	if code != exitSuccess {
		return code
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		return exitRuntimeError
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, warehouse, err := openWarehouse(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warehouse error: %v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	if err := silver.NewLeaderboardTransform(store, warehouse, warehouse, cfg.GuildID).Run(ctx, kind); err != nil {
		fmt.Fprintf(os.Stderr, "silver-leaderboard: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

func runNotify(args []string) int {
	kind, ok := parseKind("notify", args)
	if !ok {
		return exitInvalidConfig
	}

	cfg, code := loadConfig(func(cfg config.Config) map[string]string {
		return map[string]string{
			"WAREHOUSE_URL":  cfg.WarehouseURL,
			"WEBHOOK_URL":    cfg.WebhookURL,
			"OPENAI_API_KEY": cfg.OpenAIAPIKey,
		}
	})
	if code != exitSuccess {
		return code
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, warehouse, err := openWarehouse(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warehouse error: %v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	gen := summary.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.SummaryModel)
	sender := notify.NewHTTPWebhookSender(cfg.WebhookURL, cfg.HTTPTimeout)

	if err := notify.New(warehouse, gen, sender).Run(ctx, kind); err != nil {
		fmt.Fprintf(os.Stderr, "notify: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

// armedJobTable wraps the crontab editor with a metric per armed job.
type armedJobTable struct {
	editor *crontab.Editor
	sink   *metrics.PrometheusSink
}

func (t *armedJobTable) Upsert(ctx context.Context, job domain.ScheduledJob) error {
	if err := t.editor.Upsert(ctx, job); err != nil {
		return err
	}
	if t.sink != nil {
		t.sink.JobArmed(job.Identity)
	}
	return nil
}

func runSchedule() int {
	cfg, code := loadConfig(nil)
	if code != exitSuccess {
		return code
	}

	store, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage error: %v\n", err)
		return exitRuntimeError
	}

	editor := crontab.NewEditor(crontab.NewSystemRunner(cfg.CrontabCommand), cron.NewValidator())
	table := &armedJobTable{editor: editor}
	if cfg.MetricsEnabled {
		table.sink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
	}

	defs := []planner.JobDefinition{
		{
			EventType: domain.EventTypeTerritoryWar,
			Identity:  "TW_EVENT",
			Command:   fmt.Sprintf("%s pipeline war-leaderboard", cfg.BinPath),
		},
		{
			EventType: domain.EventTypeTerritoryBattle,
			Identity:  "TB_EVENT",
			Command:   fmt.Sprintf("%s pipeline battle-leaderboard", cfg.BinPath),
		},
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := planner.New(bronze.NewCalendarStore(store), table, cfg.LeadMinutes)
	if err := p.Rearm(ctx, defs); err != nil {
		fmt.Fprintf(os.Stderr, "schedule: %v\n", err)
		return exitRuntimeError
	}
	return exitSuccess
}

func runPipeline(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: guildflow pipeline <name>\n")
		return exitRuntimeError
	}
	name := args[0]

	cfg, code := loadConfig(nil)
	if code != exitSuccess {
		return code
	}

	stages, err := pipeline.Definition(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		return exitRuntimeError
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := pipeline.New(name, stages, pipeline.NewSubprocessRunner(cfg.BinPath))

	// Metrics server lives only for the duration of the run; long enough for
	// a scrape when runs are minutes, harmless when they are seconds.
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		sink := metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		p = p.WithMetrics(sink)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.Printf("guildflow: metrics server listening on %s", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("guildflow: metrics server error: %v", err)
			}
		}()
	}

	// Wire analytics if Redis is configured.
	var recorderDone chan struct{}
	var bus *channel.EventBus
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sink := analytics.NewRedisSink(redisClient, cfg.AnalyticsRetention)

		bus = channel.NewEventBus(cfg.EventBusBufferSize)
		p = p.WithEmitter(bus)

		recorderDone = make(chan struct{})
		go func() {
			defer close(recorderDone)
			pipeline.RecordEvents(context.Background(), bus.Channel(), sink)
		}()
		log.Printf("guildflow: analytics enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("guildflow: REDIS_ADDR not set; analytics disabled")
	}

	_, runErr := p.Run(ctx)

	if bus != nil {
		bus.Close()
		<-recorderDone
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("guildflow: metrics server shutdown error: %v", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", runErr)
		return exitRuntimeError
	}
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("guildflow version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
