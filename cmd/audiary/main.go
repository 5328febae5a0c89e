package main

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/audio"
	"github.com/audiary/audiary/internal/pkg/filer"
	"github.com/audiary/audiary/internal/pkg/lifecycle"
	"github.com/audiary/audiary/internal/pkg/postgres"
	"github.com/audiary/audiary/internal/pkg/provider/summarizer"
	"github.com/audiary/audiary/internal/pkg/provider/tagger"
	"github.com/audiary/audiary/internal/pkg/provider/transcriber"
	"github.com/audiary/audiary/internal/pkg/service"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	ctx := context.Background()

	dbURL := cfg.GetString("db.url")
	if err := postgres.RunMigrations(ctx, dbURL); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't run migrations")
	}

	dbConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	fl, err := filer.NewFiler(ctx, filer.Options{Bucket: cfg.GetString("filer.bucket"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"),
		Key: cfg.GetString("filer.key"), Secure: cfg.GetBool("filer.secure")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}

	converter, err := audio.NewConverter(cfg.GetString("ffmpeg.bin"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init converter")
	}

	trProvider, err := transcriber.NewProvider(converter)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcriber")
	}
	smProvider, err := summarizer.NewProvider()
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init summarizer")
	}
	tgProvider, err := tagger.NewProvider()
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init tagger")
	}

	resolver, err := settings.NewResolver(db)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init settings resolver")
	}

	wsHandler := service.NewWSConnKeeper()

	ctrl, err := lifecycle.NewController(lifecycle.Params{DB: db, Filer: fl,
		Transcriber: trProvider, Summarizer: smProvider, Tagger: tgProvider,
		Config: resolver, Events: service.NewStatusNotifier(wsHandler),
		AllowRestart: allowRestart(cfg)})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init controller")
	}

	data := &service.Data{}
	data.Port = cfg.GetInt("port")
	data.AuthSecret = cfg.GetString("auth.secret")
	data.MaxUploadSize = maxUploadSize(cfg)
	data.DB = db
	data.Ctrl = ctrl
	data.Config = resolver
	data.WSHandler = wsHandler

	goapp.Log.Info().Msg("starting web service")
	if err := service.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("exit web service. Bye")
}

func allowRestart(cfg *viper.Viper) bool {
	if !cfg.IsSet("processing.allowRestart") {
		return true
	}
	return cfg.GetBool("processing.allowRestart")
}

func maxUploadSize(cfg *viper.Viper) int64 {
	if res := cfg.GetInt64("upload.maxSize"); res > 0 {
		return res
	}
	return 50 << 20
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                     __ _
  ____ ___  ______  / /(_)___ ________  __
 / __ ` + "`" + `/ / / / __ \/ / / __ ` + "`" + `/ ___/ / / /
/ /_/ / /_/ / /_/ / / / /_/ / /  / /_/ /
\__,_/\__,_/\____/_/_/\__,_/_/   \__, /
                                /____/    v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("voice diary backend"))
}
