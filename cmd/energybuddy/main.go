package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lcrivelli/energybuddy/internal/aggregate"
	"github.com/lcrivelli/energybuddy/internal/api"
	"github.com/lcrivelli/energybuddy/internal/ingest"
	"github.com/lcrivelli/energybuddy/internal/models"
	"github.com/lcrivelli/energybuddy/internal/portal"
	"github.com/lcrivelli/energybuddy/internal/pricing"
	"github.com/lcrivelli/energybuddy/internal/store"
)

var cli struct {
	Email    string `env:"ENERGYBUDDY_EMAIL" required:"" help:"Portal login email."`
	Password string `env:"ENERGYBUDDY_PASSWORD" required:"" help:"Portal login password."`

	DB   string `default:"data/energybuddy.db" help:"Path to SQLite database."`
	Port string `default:"8080" help:"HTTP server port."`

	UpdateInterval  time.Duration `default:"1h" help:"How often to poll the portal."`
	FetchWindowDays int           `default:"5" help:"Lookback window of a regular update cycle."`
	BackfillDays    int           `default:"90" help:"Historical window fetched on first run."`
	ChunkDays       int           `default:"4" help:"Chunk size for the backfill walk."`

	DayStartHour   int  `default:"7" help:"Hour the day tariff begins."`
	NightStartHour int  `default:"0" help:"Hour the night tariff begins."`
	ClassifyByHour bool `help:"Reclassify readings by hour-of-day instead of the portal's tariff split."`

	Once     bool `help:"Run a single update cycle and exit."`
	Backfill bool `help:"Force a historical backfill and exit."`
	NoPoll   bool `help:"Disable polling (server only, for local dev)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("energybuddy"),
		kong.Description("Polls the AIL EnergyBuddy portal and maintains hourly consumption statistics."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	client := portal.NewClient(cli.Email, cli.Password)
	window := models.TariffWindow{DayStartHour: cli.DayStartHour, NightStartHour: cli.NightStartHour}
	agg := &aggregate.Aggregator{
		TariffWindow:   window,
		ClassifyByHour: cli.ClassifyByHour,
	}
	schedule := pricing.Schedule{TariffWindow: window}

	cfg := ingest.Config{
		UpdateInterval:  cli.UpdateInterval,
		FetchWindowDays: cli.FetchWindowDays,
		BackfillDays:    cli.BackfillDays,
		ChunkDays:       cli.ChunkDays,
	}
	scheduler := ingest.NewScheduler(st, client, agg, cfg)
	server := api.NewServer(st, scheduler, schedule, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cli.Backfill {
		log.Printf("backfilling %d days of history", cli.BackfillDays)
		if err := client.Login(ctx); err != nil {
			log.Fatalf("login: %v", err)
		}
		if err := scheduler.Backfill(ctx); err != nil {
			log.Fatalf("backfill: %v", err)
		}
		log.Println("done")
		return
	}

	if cli.Once {
		log.Println("running single update cycle")
		if _, err := scheduler.RunCycle(ctx); err != nil {
			log.Fatalf("cycle: %v", err)
		}
		log.Println("done")
		return
	}

	if !cli.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
