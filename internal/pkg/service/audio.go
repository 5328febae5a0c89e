package service

import (
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/status"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type uploadResponse struct {
	FileID     string    `json:"file_id"`
	EntryID    string    `json:"entry_id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	UploadTime time.Time `json:"upload_time"`
	Message    string    `json:"message"`
}

func uploadHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("upload method")()

		fh, err := c.FormFile("file")
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "No file")
		}
		if !utils.SupportAudioContentType(fh.Header.Get(echo.HeaderContentType)) {
			return echo.NewHTTPError(http.StatusBadRequest, "Not an audio file")
		}
		if fh.Size > data.MaxUploadSize {
			return echo.NewHTTPError(http.StatusBadRequest, "File too large")
		}
		src, err := fh.Open()
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "Can't read file")
		}
		defer src.Close()

		fileID := uuid.NewString()
		entry, err := data.Ctrl.CreateUpload(c.Request().Context(), fileID,
			goapp.Sanitize(fh.Filename), src, fh.Size)
		if err != nil {
			return processErr(err, "Can't save upload")
		}
		return c.JSON(http.StatusOK, uploadResponse{FileID: fileID, EntryID: entry.ID,
			Filename: fh.Filename, FileSize: fh.Size, UploadTime: entry.Created,
			Message: "音声ファイルのアップロードが完了しました"})
	}
}

type (
	transcribeRequest struct {
		FileID string `json:"file_id"`
	}
	transcribeResponse struct {
		TaskID  string `json:"task_id"`
		FileID  string `json:"file_id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	transcribeResult struct {
		TaskID        string     `json:"task_id"`
		Status        string     `json:"status"`
		Transcription *string    `json:"transcription,omitempty"`
		Confidence    float64    `json:"confidence"`
		CompletedAt   *time.Time `json:"completed_at,omitempty"`
	}
)

func transcribeStartHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("transcribe start method")()

		var req transcribeRequest
		if err := c.Bind(&req); err != nil || req.FileID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No file_id")
		}
		taskID, err := data.Ctrl.StartTranscription(c.Request().Context(), req.FileID)
		if err != nil {
			return processErr(err, "Can't start transcription")
		}
		return c.JSON(http.StatusOK, transcribeResponse{TaskID: taskID, FileID: req.FileID,
			Status: status.Processing.String(), Message: "文字起こし処理を開始しました"})
	}
}

func transcribeResultHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("transcribe result method")()

		taskID := c.Param("task_id")
		if taskID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No task_id")
		}
		st, err := data.Ctrl.FetchTranscription(c.Request().Context(), taskID)
		if err != nil {
			return processErr(err, "Transcription failed")
		}
		res := transcribeResult{TaskID: st.TaskID, Status: st.Status.String(),
			Confidence: st.Confidence}
		if st.Transcription != "" {
			res.Transcription = &st.Transcription
		}
		if !st.CompletedAt.IsZero() && st.Status.Terminal() {
			res.CompletedAt = &st.CompletedAt
		}
		return c.JSON(http.StatusOK, res)
	}
}
