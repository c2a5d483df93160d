package server

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/mahesh-hegde/hsrdict/app/common"
	"github.com/mahesh-hegde/hsrdict/app/dictionary"
)

const apiVersion = "v1"

type HsrDictController struct {
	ds *dictionary.DictionaryService
}

func NewHsrDictController(ds *dictionary.DictionaryService) *HsrDictController {
	return &HsrDictController{ds: ds}
}

type searchRequest struct {
	Version  string `param:"version"`
	Query    string `param:"query"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"required,min=1,max_page_size"`
}

func (h *HsrDictController) SearchTranslations(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Version != apiVersion {
		return common.NewUserVisibleError(http.StatusNotFound, "API version invalid.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	// echo leaves params escaped when the path held escapes like %2F
	if c.Request().URL.RawPath != "" {
		query, err := url.PathUnescape(req.Query)
		if err != nil {
			return common.NewUserVisibleError(http.StatusBadRequest, "invalid query")
		}
		req.Query = query
	}

	results, err := h.ds.Search(c.Request().Context(), dictionary.SearchParams{
		Term:     req.Query,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}
