package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// 管理画面のテーブル用
type TableResponse struct {
	Data interface{} `json:"data"`
}

func success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{Success: false, Message: message})
}

// HTTPErrorはそのまま、それ以外は500（詳細はログだけ）
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	he, isHTTP := usecase.AsHTTPError(err)
	if !isHTTP {
		he = &usecase.HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Err: err}
	}
	if he.Status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", he.Status),
			zap.Error(err),
		)
	}
	return fail(c, he.Status, he.Message)
}

// AuthJWTが入れたユーザーID
func currentUserID(c echo.Context) (int64, bool) {
	id, found := middleware.IdentityFrom(c.Request().Context())
	if !found {
		return 0, false
	}
	return id.UserID, true
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 空ならnil
func queryInt64(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &x, true
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return x, true
}

func queryBool(c echo.Context, name string) (*bool, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, false
	}
	return &b, true
}

// multipartのファイルを読む。上限+1まで読んでサイズ超過はusecaseで弾く
func readFile(fh *multipart.FileHeader, maxBytes int64) (usecase.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return usecase.UploadedFile{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return usecase.UploadedFile{}, err
	}
	return usecase.UploadedFile{FileName: fh.Filename, Data: data}, nil
}
