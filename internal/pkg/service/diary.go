package service

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/labstack/echo/v4"
)

type (
	createEntryRequest struct {
		Title  string   `json:"title"`
		FileID string   `json:"file_id"`
		Tags   []string `json:"tags"`
	}
	updateEntryRequest struct {
		Title         *string  `json:"title"`
		Transcription *string  `json:"transcription"`
		Summary       *string  `json:"summary"`
		Tags          []string `json:"tags"`
	}
	tagsResponse struct {
		Tags []tagInfo `json:"tags"`
	}
	tagInfo struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
)

// titles land in a varchar(200) column, reject earlier with a clear code
const maxTitleLen = 200

func validTitle(title string) bool {
	return utf8.RuneCountInString(title) <= maxTitleLen
}

func diaryCreateHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("diary create method")()

		var req createEntryRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong input")
		}
		if !validTitle(req.Title) {
			return echo.NewHTTPError(http.StatusBadRequest, "Title too long")
		}
		entry := &persistence.Entry{Title: utils.ToSQLStr(req.Title),
			FileID: utils.ToSQLStr(req.FileID), Tags: req.Tags}
		entry, err := data.Ctrl.CreateEntry(c.Request().Context(), entry)
		if err != nil {
			return processErr(err, "Can't create entry")
		}
		return c.JSON(http.StatusOK, mapEntry(entry))
	}
}

func pageParams(c echo.Context) (page, size, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size, (page - 1) * size
}

func diaryListHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("diary list method")()

		page, size, offset := pageParams(c)
		entries, total, err := data.DB.ListEntries(c.Request().Context(), size, offset)
		if err != nil {
			return processErr(err, "Can't list entries")
		}
		return c.JSON(http.StatusOK, entryListResponse{Entries: mapEntries(entries),
			Total: total, Page: page, Size: size, HasNext: offset+size < total})
	}
}

func diaryByTagHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("diary by tag method")()

		tag := c.Param("tag")
		if tag == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No tag")
		}
		page, size, offset := pageParams(c)
		entries, total, err := data.DB.ListEntriesByTag(c.Request().Context(), tag, size, offset)
		if err != nil {
			return processErr(err, "Can't list entries")
		}
		return c.JSON(http.StatusOK, entryListResponse{Entries: mapEntries(entries),
			Total: total, Page: page, Size: size, HasNext: offset+size < total, Tag: tag})
	}
}

func searchHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("search method")()

		query := c.QueryParam("q")
		if query == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No query")
		}
		page, size, offset := pageParams(c)
		entries, total, err := data.DB.SearchEntries(c.Request().Context(), query, size, offset)
		if err != nil {
			return processErr(err, "Can't search entries")
		}
		return c.JSON(http.StatusOK, entryListResponse{Entries: mapEntries(entries),
			Total: total, Page: page, Size: size, HasNext: offset+size < total, Query: query})
	}
}

func diaryGetHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("diary get method")()

		entry, err := data.DB.LoadEntry(c.Request().Context(), c.Param("id"))
		if err != nil {
			return processErr(err, "Can't load entry")
		}
		return c.JSON(http.StatusOK, mapEntry(entry))
	}
}

func diaryUpdateHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("diary update method")()

		var req updateEntryRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong input")
		}
		if req.Title != nil && !validTitle(*req.Title) {
			return echo.NewHTTPError(http.StatusBadRequest, "Title too long")
		}
		upd := &persistence.EntryUpdate{Title: req.Title, Transcription: req.Transcription,
			Summary: req.Summary, Tags: req.Tags}
		entry, err := data.DB.UpdateEntry(c.Request().Context(), c.Param("id"), upd)
		if err != nil {
			return processErr(err, "Can't update entry")
		}
		return c.JSON(http.StatusOK, mapEntry(entry))
	}
}

func diaryDeleteHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("diary delete method")()

		if err := data.Ctrl.Delete(c.Request().Context(), c.Param("id")); err != nil {
			return processErr(err, "Can't delete entry")
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "日記エントリを削除しました"})
	}
}

func tagsHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("tags method")()

		counts, err := data.DB.LoadTagCounts(c.Request().Context())
		if err != nil {
			return processErr(err, "Can't load tags")
		}
		res := tagsResponse{Tags: []tagInfo{}}
		for _, tc := range counts {
			res.Tags = append(res.Tags, tagInfo{Name: tc.Name, Count: tc.Count})
		}
		return c.JSON(http.StatusOK, res)
	}
}
