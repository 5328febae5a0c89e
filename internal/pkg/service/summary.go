package service

import (
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/status"
	"github.com/labstack/echo/v4"
)

type (
	summarizeRequest struct {
		Text    string `json:"text"`
		EntryID string `json:"entry_id"`
	}
	summarizeResponse struct {
		TaskID  string `json:"task_id"`
		Text    string `json:"text"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	summarizeResult struct {
		TaskID      string     `json:"task_id"`
		Status      string     `json:"status"`
		Summary     *string    `json:"summary,omitempty"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
	}
)

func summaryStartHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("summarize start method")()

		var req summarizeRequest
		if err := c.Bind(&req); err != nil || req.Text == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No text")
		}
		taskID, err := data.Ctrl.StartSummary(c.Request().Context(), req.EntryID)
		if err != nil {
			return processErr(err, "Can't start summarization")
		}
		return c.JSON(http.StatusOK, summarizeResponse{TaskID: taskID, Text: req.Text,
			Status: status.Processing.String(), Message: "要約処理を開始しました"})
	}
}

func summaryResultHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("summarize result method")()

		taskID := c.Param("task_id")
		if taskID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No task_id")
		}
		st, err := data.Ctrl.FetchSummary(c.Request().Context(), taskID)
		if err != nil {
			return processErr(err, "Summarization failed")
		}
		res := summarizeResult{TaskID: st.TaskID, Status: st.Status.String()}
		if st.Summary != "" {
			res.Summary = &st.Summary
		}
		if !st.CompletedAt.IsZero() && st.Status.Terminal() {
			res.CompletedAt = &st.CompletedAt
		}
		return c.JSON(http.StatusOK, res)
	}
}
