package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

type ApiError struct {
	Err        error  `json:"-"`
	StatusCode int    `json:"-"`
	StatusText string `json:"statusText"`
	Message    string `json:"message"`
}

var (
	ApiErrRoomNotFound = &ApiError{
		StatusCode: http.StatusNotFound,
		StatusText: "room not found",
		Message:    "check the room id and try again",
	}
	ApiErrInvalidUserID = &ApiError{
		StatusCode: http.StatusBadRequest,
		StatusText: "invalid user id",
		Message:    "the user id must be a uuid",
	}
	ApiErrInvalidPage = &ApiError{
		StatusCode: http.StatusBadRequest,
		StatusText: "invalid page",
		Message:    "page and size must be positive integers",
	}
)

func ApiErrUnexpected(err error) *ApiError {
	return &ApiError{
		Err:        err,
		StatusCode: http.StatusInternalServerError,
		StatusText: "unexpected error",
		Message:    "unexpected error",
	}
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%d %s %s err: %v", e.StatusCode, e.StatusText, e.Message, e.Err)
}

func (e *ApiError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}
