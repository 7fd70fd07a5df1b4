package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "storefront/internal/repository"
)

// usecaseから外に出るエラーはこれだけ
type HTTPError struct {
	Status  int
	Message string
	// ログ用（レスポンスには出さない）
	Err error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 500。原因はErrに残す
func internalError(err error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Err: err}
}

// ErrNotFoundなら404、それ以外は500
func notFoundOr500(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return internalError(err)
}

// WithinTxの中で返したHTTPErrorはそのまま、それ以外は500
func passOr500(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return internalError(err)
}
