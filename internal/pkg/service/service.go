package service

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/pkg/errors"

	"github.com/audiary/audiary/internal/pkg/auth"
	"github.com/audiary/audiary/internal/pkg/lifecycle"
	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/audiary/audiary/internal/pkg/utils"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type (
	// DB provides diary read and update access
	DB interface {
		LoadEntry(ctx context.Context, id string) (*persistence.Entry, error)
		ListEntries(ctx context.Context, limit, offset int) ([]*persistence.Entry, int, error)
		ListEntriesByTag(ctx context.Context, tag string, limit, offset int) ([]*persistence.Entry, int, error)
		SearchEntries(ctx context.Context, query string, limit, offset int) ([]*persistence.Entry, int, error)
		UpdateEntry(ctx context.Context, id string, upd *persistence.EntryUpdate) (*persistence.Entry, error)
		LoadTagCounts(ctx context.Context) ([]persistence.TagCount, error)
		Live(ctx context.Context) error
	}

	// Ctrl drives entry processing
	Ctrl interface {
		CreateUpload(ctx context.Context, fileID, fileName string, r io.Reader, size int64) (*persistence.Entry, error)
		CreateEntry(ctx context.Context, entry *persistence.Entry) (*persistence.Entry, error)
		StartTranscription(ctx context.Context, fileID string) (string, error)
		FetchTranscription(ctx context.Context, taskID string) (*lifecycle.TranscriptionState, error)
		StartSummary(ctx context.Context, entryID string) (string, error)
		FetchSummary(ctx context.Context, taskID string) (*lifecycle.SummaryState, error)
		Delete(ctx context.Context, id string) error
	}

	// Config provides provider settings access
	Config interface {
		Snapshot(ctx context.Context) (*settings.Snapshot, error)
		Save(ctx context.Context, values map[string]string) error
		Issues(ctx context.Context) ([]string, *settings.Snapshot, error)
	}

	// WSConnHandler is websocket connection wrapper
	WSConnHandler interface {
		HandleConnection(WsConn) error
		GetConnections(id string) ([]WsConn, bool)
	}
)

// Data keeps data required for service work
type Data struct {
	Port          int
	AuthSecret    string
	MaxUploadSize int64

	DB        DB
	Ctrl      Ctrl
	Config    Config
	WSHandler WSConnHandler
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP audiary service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	// provider calls run within the request, keep write timeout long
	e.Server.WriteTimeout = 180 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return errors.New("no DB")
	}
	if data.Ctrl == nil {
		return errors.New("no Ctrl")
	}
	if data.Config == nil {
		return errors.New("no Config")
	}
	if data.WSHandler == nil {
		return errors.New("no WSHandler")
	}
	if data.MaxUploadSize <= 0 {
		return errors.New("no MaxUploadSize")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("audiary", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/live", live(data))
	e.GET("/subscribe", subscribeHandler(data))

	api := e.Group("/api", auth.Middleware(data.AuthSecret))
	api.GET("/health", health(data))

	api.POST("/audio/upload", uploadHandler(data))
	api.POST("/transcribe", transcribeStartHandler(data))
	api.GET("/transcribe/:task_id", transcribeResultHandler(data))
	api.POST("/summarize", summaryStartHandler(data))
	api.GET("/summarize/:task_id", summaryResultHandler(data))

	api.POST("/diary/", diaryCreateHandler(data))
	api.GET("/diary/", diaryListHandler(data))
	api.GET("/diary/by-tag/:tag", diaryByTagHandler(data))
	api.GET("/diary/:id", diaryGetHandler(data))
	api.PUT("/diary/:id", diaryUpdateHandler(data))
	api.DELETE("/diary/:id", diaryDeleteHandler(data))
	api.GET("/search", searchHandler(data))
	api.GET("/tags", tagsHandler(data))

	api.GET("/settings", settingsGetHandler(data))
	api.POST("/settings", settingsSaveHandler(data))
	api.GET("/settings/validate", settingsValidateHandler(data))
	api.GET("/settings/models", settingsModelsHandler(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func health(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.DB.Live(c.Request().Context()); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusServiceUnavailable, "DB not ready")
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// processErr maps domain failures to http codes
func processErr(err error, msg string) error {
	var eErr *echo.HTTPError
	if errors.As(err, &eErr) {
		return err
	}
	goapp.Log.Error().Err(err).Send()
	var cfgErr *utils.ErrConfig
	var prErr *utils.ErrProvider
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, utils.ErrNoTranscription):
		return echo.NewHTTPError(http.StatusBadRequest, "No transcription yet")
	case errors.Is(err, utils.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, "Still processing")
	case errors.As(err, &cfgErr):
		return echo.NewHTTPError(http.StatusBadRequest, cfgErr.Msg)
	case errors.As(err, &prErr):
		return echo.NewHTTPError(http.StatusInternalServerError, msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
}
