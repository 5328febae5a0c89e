package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/audiary/audiary/internal/pkg/lifecycle"
	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/audiary/audiary/internal/pkg/status"
	"github.com/audiary/audiary/internal/pkg/test"
	"github.com/audiary/audiary/internal/pkg/test/mocks"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCtrl struct{ mock.Mock }

func (m *mockCtrl) CreateUpload(ctx context.Context, fileID, fileName string, r io.Reader, size int64) (*persistence.Entry, error) {
	args := m.Called(ctx, fileID, fileName, r, size)
	return toT[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *mockCtrl) CreateEntry(ctx context.Context, entry *persistence.Entry) (*persistence.Entry, error) {
	args := m.Called(ctx, entry)
	return toT[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *mockCtrl) StartTranscription(ctx context.Context, fileID string) (string, error) {
	args := m.Called(ctx, fileID)
	return args.String(0), args.Error(1)
}

func (m *mockCtrl) FetchTranscription(ctx context.Context, taskID string) (*lifecycle.TranscriptionState, error) {
	args := m.Called(ctx, taskID)
	return toT[*lifecycle.TranscriptionState](args.Get(0)), args.Error(1)
}

func (m *mockCtrl) StartSummary(ctx context.Context, entryID string) (string, error) {
	args := m.Called(ctx, entryID)
	return args.String(0), args.Error(1)
}

func (m *mockCtrl) FetchSummary(ctx context.Context, taskID string) (*lifecycle.SummaryState, error) {
	args := m.Called(ctx, taskID)
	return toT[*lifecycle.SummaryState](args.Get(0)), args.Error(1)
}

func (m *mockCtrl) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockWSConnHandler struct{ mock.Mock }

func (m *mockWSConnHandler) HandleConnection(conn WsConn) error {
	args := m.Called(conn)
	return args.Error(0)
}

func (m *mockWSConnHandler) GetConnections(id string) ([]WsConn, bool) {
	args := m.Called(id)
	return toT[[]WsConn](args.Get(0)), args.Bool(1)
}

func toT[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}

var (
	dbMock    *mocks.DB
	ctrlMock  *mockCtrl
	cfgMock   *mocks.Config
	wsMock    *mockWSConnHandler
	tData     *Data
	tEcho     *echo.Echo
	tResp     *httptest.ResponseRecorder
)

func initTest(t *testing.T) {
	dbMock = &mocks.DB{}
	ctrlMock = &mockCtrl{}
	cfgMock = &mocks.Config{}
	wsMock = &mockWSConnHandler{}
	tData = &Data{MaxUploadSize: 50 << 20}
	tData.DB = dbMock
	tData.Ctrl = ctrlMock
	tData.Config = cfgMock
	tData.WSHandler = wsMock
	tEcho = initRoutes(tData)
	tResp = httptest.NewRecorder()
}

func testCode(t *testing.T, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	tEcho.ServeHTTP(tResp, req)
	require.Equal(t, code, tResp.Code)
	return tResp
}

func TestWrongPath(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/invalid", nil)
	testCode(t, req, 404)
}

func TestWrongMethod(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPut, "/api/transcribe", nil)
	testCode(t, req, 405)
}

func TestLive(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	testCode(t, req, 200)
}

func TestHealth(t *testing.T) {
	initTest(t)
	dbMock.On("Live", mock.Anything).Return(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	testCode(t, req, 200)
}

func TestHealth_Fail(t *testing.T) {
	initTest(t)
	dbMock.On("Live", mock.Anything).Return(fmt.Errorf("olia"))
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	testCode(t, req, 503)
}

func newUploadRequest(t *testing.T, fileName, contentType string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)}
	h["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(h)
	require.Nil(t, err)
	_, err = part.Write([]byte("audio data"))
	require.Nil(t, err)
	require.Nil(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/audio/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	initTest(t)
	ctrlMock.On("CreateUpload", mock.Anything, mock.Anything, "a.webm", mock.Anything,
		mock.Anything).Return(&persistence.Entry{ID: "e1", Created: time.Now()}, nil)

	resp := testCode(t, newUploadRequest(t, "a.webm", "audio/webm"), 200)
	res := test.Decode[uploadResponse](t, resp.Result())
	assert.Equal(t, "e1", res.EntryID)
	assert.NotEmpty(t, res.FileID)
	assert.Equal(t, "a.webm", res.Filename)
}

func TestUpload_FailContentType(t *testing.T) {
	initTest(t)
	testCode(t, newUploadRequest(t, "a.txt", "text/plain"), 400)
	ctrlMock.AssertNotCalled(t, "CreateUpload", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything)
}

func TestUpload_FailNoFile(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/api/audio/upload", nil)
	testCode(t, req, 400)
}

func TestUpload_FailTooLarge(t *testing.T) {
	initTest(t)
	tData.MaxUploadSize = 5
	testCode(t, newUploadRequest(t, "a.webm", "audio/webm"), 400)
}

func TestTranscribeStart(t *testing.T) {
	initTest(t)
	ctrlMock.On("StartTranscription", mock.Anything, "fid").Return("t1", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe",
		strings.NewReader(`{"file_id":"fid"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp := testCode(t, req, 200)
	res := test.Decode[transcribeResponse](t, resp.Result())
	assert.Equal(t, "t1", res.TaskID)
	assert.Equal(t, "fid", res.FileID)
	assert.Equal(t, "processing", res.Status)
}

func TestTranscribeStart_FailInput(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 400)
}

func TestTranscribeStart_FailNotFound(t *testing.T) {
	initTest(t)
	ctrlMock.On("StartTranscription", mock.Anything, "fid").Return("",
		fmt.Errorf("olia: %w", utils.ErrNotFound))
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe",
		strings.NewReader(`{"file_id":"fid"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 404)
}

func TestTranscribeStart_FailBusy(t *testing.T) {
	initTest(t)
	ctrlMock.On("StartTranscription", mock.Anything, "fid").Return("",
		fmt.Errorf("olia: %w", utils.ErrBusy))
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe",
		strings.NewReader(`{"file_id":"fid"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 409)
}

func TestTranscribeResult(t *testing.T) {
	initTest(t)
	now := time.Now()
	ctrlMock.On("FetchTranscription", mock.Anything, "t1").Return(
		&lifecycle.TranscriptionState{TaskID: "t1", Status: status.Completed,
			Transcription: "olia", Confidence: 0.95, CompletedAt: now}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/transcribe/t1", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[transcribeResult](t, resp.Result())
	assert.Equal(t, "completed", res.Status)
	require.NotNil(t, res.Transcription)
	assert.Equal(t, "olia", *res.Transcription)
	assert.NotNil(t, res.CompletedAt)
}

func TestTranscribeResult_Pending(t *testing.T) {
	initTest(t)
	ctrlMock.On("FetchTranscription", mock.Anything, "t1").Return(
		&lifecycle.TranscriptionState{TaskID: "t1", Status: status.Pending}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/transcribe/t1", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[transcribeResult](t, resp.Result())
	assert.Equal(t, "pending", res.Status)
	assert.Nil(t, res.Transcription)
	assert.Nil(t, res.CompletedAt)
}

func TestTranscribeResult_FailProvider(t *testing.T) {
	initTest(t)
	ctrlMock.On("FetchTranscription", mock.Anything, "t1").Return(nil,
		utils.NewErrProvider(fmt.Errorf("olia")))
	req := httptest.NewRequest(http.MethodGet, "/api/transcribe/t1", nil)
	testCode(t, req, 500)
}

func TestTranscribeResult_FailNotFound(t *testing.T) {
	initTest(t)
	ctrlMock.On("FetchTranscription", mock.Anything, "t1").Return(nil,
		fmt.Errorf("olia: %w", utils.ErrNotFound))
	req := httptest.NewRequest(http.MethodGet, "/api/transcribe/t1", nil)
	testCode(t, req, 404)
}

func TestSummarizeStart(t *testing.T) {
	initTest(t)
	ctrlMock.On("StartSummary", mock.Anything, "e1").Return("s1", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/summarize",
		strings.NewReader(`{"text":"olia","entry_id":"e1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp := testCode(t, req, 200)
	res := test.Decode[summarizeResponse](t, resp.Result())
	assert.Equal(t, "s1", res.TaskID)
	assert.Equal(t, "olia", res.Text)
}

func TestSummarizeStart_FailNoText(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 400)
}

func TestSummarizeResult(t *testing.T) {
	initTest(t)
	now := time.Now()
	ctrlMock.On("FetchSummary", mock.Anything, "s1").Return(
		&lifecycle.SummaryState{TaskID: "s1", Status: status.Completed,
			Summary: "sum", CompletedAt: now}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/summarize/s1", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[summarizeResult](t, resp.Result())
	assert.Equal(t, "completed", res.Status)
	require.NotNil(t, res.Summary)
	assert.Equal(t, "sum", *res.Summary)
}

func TestSummarizeResult_FailPrerequisite(t *testing.T) {
	initTest(t)
	ctrlMock.On("FetchSummary", mock.Anything, "s1").Return(nil,
		fmt.Errorf("olia: %w", utils.ErrNoTranscription))
	req := httptest.NewRequest(http.MethodGet, "/api/summarize/s1", nil)
	testCode(t, req, 400)
}

func TestDiaryCreate(t *testing.T) {
	initTest(t)
	ctrlMock.On("CreateEntry", mock.Anything, mock.Anything).Return(
		&persistence.Entry{ID: "e1", Title: utils.ToSQLStr("olia"),
			TranscriptionStatus: "pending", SummaryStatus: "pending"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/diary/",
		strings.NewReader(`{"title":"olia","file_id":"fid","tags":["仕事"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp := testCode(t, req, 200)
	res := test.Decode[entryResponse](t, resp.Result())
	assert.Equal(t, "e1", res.ID)
	require.NotNil(t, res.Title)
	assert.Equal(t, "olia", *res.Title)
}

func TestDiaryList(t *testing.T) {
	initTest(t)
	dbMock.On("ListEntries", mock.Anything, 10, 0).Return(
		[]*persistence.Entry{{ID: "e1"}, {ID: "e2"}}, 12, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/diary/", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[entryListResponse](t, resp.Result())
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 10, res.Size)
	assert.True(t, res.HasNext)
}

func TestDiaryList_Page(t *testing.T) {
	initTest(t)
	dbMock.On("ListEntries", mock.Anything, 5, 5).Return([]*persistence.Entry{}, 7, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/diary/?page=2&size=5", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[entryListResponse](t, resp.Result())
	assert.Equal(t, 2, res.Page)
	assert.False(t, res.HasNext)
}

func TestDiaryGet(t *testing.T) {
	initTest(t)
	dbMock.On("LoadEntry", mock.Anything, "e1").Return(&persistence.Entry{ID: "e1"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/diary/e1", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[entryResponse](t, resp.Result())
	assert.Equal(t, "e1", res.ID)
}

func TestDiaryGet_FailNotFound(t *testing.T) {
	initTest(t)
	dbMock.On("LoadEntry", mock.Anything, "e1").Return(nil, fmt.Errorf("olia: %w", utils.ErrNotFound))
	req := httptest.NewRequest(http.MethodGet, "/api/diary/e1", nil)
	testCode(t, req, 404)
}

func TestDiaryUpdate(t *testing.T) {
	initTest(t)
	dbMock.On("UpdateEntry", mock.Anything, "e1", mock.Anything).Return(
		&persistence.Entry{ID: "e1", Title: utils.ToSQLStr("new")}, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/diary/e1",
		strings.NewReader(`{"title":"new"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp := testCode(t, req, 200)
	res := test.Decode[entryResponse](t, resp.Result())
	require.NotNil(t, res.Title)
	assert.Equal(t, "new", *res.Title)
	dbMock.AssertCalled(t, "UpdateEntry", mock.Anything, "e1",
		mock.MatchedBy(func(u *persistence.EntryUpdate) bool {
			return u.Title != nil && *u.Title == "new" && u.Transcription == nil
		}))
}

func TestDiaryUpdate_FailLongTitle(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPut, "/api/diary/e1",
		strings.NewReader(`{"title":"`+strings.Repeat("あ", 201)+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 400)
	dbMock.AssertNotCalled(t, "UpdateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func TestDiaryCreate_FailLongTitle(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/api/diary/",
		strings.NewReader(`{"title":"`+strings.Repeat("あ", 201)+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 400)
	ctrlMock.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
}

func Test_validTitle(t *testing.T) {
	assert.True(t, validTitle(""))
	assert.True(t, validTitle(strings.Repeat("あ", 200)))
	assert.False(t, validTitle(strings.Repeat("あ", 201)))
}

func TestDiaryDelete(t *testing.T) {
	initTest(t)
	ctrlMock.On("Delete", mock.Anything, "e1").Return(nil)
	req := httptest.NewRequest(http.MethodDelete, "/api/diary/e1", nil)
	testCode(t, req, 200)
}

func TestDiaryDelete_FailNotFound(t *testing.T) {
	initTest(t)
	ctrlMock.On("Delete", mock.Anything, "e1").Return(fmt.Errorf("olia: %w", utils.ErrNotFound))
	req := httptest.NewRequest(http.MethodDelete, "/api/diary/e1", nil)
	testCode(t, req, 404)
}

func TestDiaryByTag(t *testing.T) {
	initTest(t)
	dbMock.On("ListEntriesByTag", mock.Anything, "仕事", 10, 0).Return(
		[]*persistence.Entry{{ID: "e1"}}, 1, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/diary/by-tag/"+
		"%E4%BB%95%E4%BA%8B", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[entryListResponse](t, resp.Result())
	assert.Len(t, res.Entries, 1)
	assert.Equal(t, "仕事", res.Tag)
}

func TestSearch(t *testing.T) {
	initTest(t)
	dbMock.On("SearchEntries", mock.Anything, "olia", 10, 0).Return(
		[]*persistence.Entry{{ID: "e1"}}, 1, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=olia", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[entryListResponse](t, resp.Result())
	assert.Len(t, res.Entries, 1)
	assert.Equal(t, "olia", res.Query)
}

func TestSearch_FailNoQuery(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	testCode(t, req, 400)
}

func TestTags(t *testing.T) {
	initTest(t)
	dbMock.On("LoadTagCounts", mock.Anything).Return(
		[]persistence.TagCount{{Name: "仕事", Count: 3}, {Name: "散歩", Count: 1}}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[tagsResponse](t, resp.Result())
	require.Len(t, res.Tags, 2)
	assert.Equal(t, tagInfo{Name: "仕事", Count: 3}, res.Tags[0])
}

func TestSettingsGet(t *testing.T) {
	initTest(t)
	cfgMock.On("Snapshot", mock.Anything).Return(&settings.Snapshot{TranscribeAPI: "mock",
		TranscribeModel: "mock-whisper-v1", SummaryAPI: "mock", SummaryModel: "mock-gpt-4o-mini"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[settingsPayload](t, resp.Result())
	assert.Equal(t, "mock", res.TranscribeAPI)
	assert.Equal(t, "mock-gpt-4o-mini", res.SummaryModel)
}

func TestSettingsSave(t *testing.T) {
	initTest(t)
	cfgMock.On("Save", mock.Anything, map[string]string{"summary_api": "openai"}).Return(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/settings",
		strings.NewReader(`{"summary_api":"openai"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 200)
}

func TestSettingsSave_FailConfig(t *testing.T) {
	initTest(t)
	cfgMock.On("Save", mock.Anything, mock.Anything).Return(
		utils.NewErrConfig("openai summary requires OPENAI_API_KEY"))
	req := httptest.NewRequest(http.MethodPost, "/api/settings",
		strings.NewReader(`{"summary_api":"openai"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 400)
}

func TestSettingsSave_FailEmpty(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	testCode(t, req, 400)
}

func TestSettingsValidate(t *testing.T) {
	initTest(t)
	cfgMock.On("Issues", mock.Anything).Return([]string{"openai summary: OPENAI_API_KEY is not set"},
		&settings.Snapshot{TranscribeAPI: "mock", SummaryAPI: "openai"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/settings/validate", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[validateResponse](t, resp.Result())
	assert.False(t, res.Valid)
	assert.Len(t, res.Issues, 1)
	assert.Equal(t, "openai", res.CurrentConfig["summary_api"])
}

func TestSettingsModels(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/api/settings/models", nil)
	resp := testCode(t, req, 200)
	res := test.Decode[settings.ModelCatalog](t, resp.Result())
	assert.NotEmpty(t, res.TranscribeModels["openai"])
	assert.NotEmpty(t, res.SummaryModels["claude"])
}

func TestAuth_Protects(t *testing.T) {
	initTest(t)
	tData.AuthSecret = "secret"
	tEcho = initRoutes(tData)
	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	testCode(t, req, 401)
}

func Test_validate(t *testing.T) {
	initTest(t)
	assert.Nil(t, validate(tData))
	tests := []struct {
		name   string
		breakF func(*Data)
	}{
		{name: "DB", breakF: func(d *Data) { d.DB = nil }},
		{name: "Ctrl", breakF: func(d *Data) { d.Ctrl = nil }},
		{name: "Config", breakF: func(d *Data) { d.Config = nil }},
		{name: "WSHandler", breakF: func(d *Data) { d.WSHandler = nil }},
		{name: "MaxUploadSize", breakF: func(d *Data) { d.MaxUploadSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			tt.breakF(tData)
			assert.NotNil(t, validate(tData))
		})
	}
}
