package service

import (
	"net/http"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/labstack/echo/v4"
)

type (
	settingsPayload struct {
		TranscribeAPI   string `json:"transcribe_api"`
		TranscribeModel string `json:"transcribe_model"`
		SummaryAPI      string `json:"summary_api"`
		SummaryModel    string `json:"summary_model"`
	}
	validateResponse struct {
		Valid         bool              `json:"valid"`
		Issues        []string          `json:"issues"`
		CurrentConfig map[string]string `json:"current_config"`
	}
)

func settingsGetHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("settings get method")()

		sn, err := data.Config.Snapshot(c.Request().Context())
		if err != nil {
			return processErr(err, "Can't load settings")
		}
		return c.JSON(http.StatusOK, settingsPayload{TranscribeAPI: sn.TranscribeAPI,
			TranscribeModel: sn.TranscribeModel, SummaryAPI: sn.SummaryAPI,
			SummaryModel: sn.SummaryModel})
	}
}

func settingsSaveHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("settings save method")()

		var req settingsPayload
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong input")
		}
		values := map[string]string{}
		add := func(key, value string) {
			if value != "" {
				values[key] = value
			}
		}
		add(settings.KeyTranscribeAPI, req.TranscribeAPI)
		add(settings.KeyTranscribeModel, req.TranscribeModel)
		add(settings.KeySummaryAPI, req.SummaryAPI)
		add(settings.KeySummaryModel, req.SummaryModel)
		if len(values) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "No settings")
		}
		if err := data.Config.Save(c.Request().Context(), values); err != nil {
			return processErr(err, "Can't save settings")
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "設定を保存しました"})
	}
}

func settingsValidateHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("settings validate method")()

		issues, sn, err := data.Config.Issues(c.Request().Context())
		if err != nil {
			return processErr(err, "Can't check settings")
		}
		if issues == nil {
			issues = []string{}
		}
		return c.JSON(http.StatusOK, validateResponse{Valid: len(issues) == 0, Issues: issues,
			CurrentConfig: map[string]string{"transcribe_api": sn.TranscribeAPI,
				"summary_api": sn.SummaryAPI}})
	}
}

func settingsModelsHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("settings models method")()

		return c.JSON(http.StatusOK, settings.Models())
	}
}
