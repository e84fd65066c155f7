package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

// ErrPasteNotFound covers unknown, expired and view-exhausted pastes alike.
var (
	ErrPasteNotFound      = NewErr("PASTE_NOT_FOUND", "paste not found", http.StatusNotFound)
	ErrInvalidInput       = NewErr("INVALID_INPUT", "invalid input", http.StatusBadRequest)
	ErrPasteTooLarge      = NewErr("PASTE_TOO_LARGE", "paste too large", http.StatusRequestEntityTooLarge)
	ErrUnsupportedMedia   = NewErr("UNSUPPORTED_MEDIA_TYPE", "expected Content-Type: application/json", http.StatusUnsupportedMediaType)
	ErrInternalServer     = NewErr("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
	ErrIDGenerationFailed = NewErr("ID_GENERATION_FAILED", "id generation failed", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }
func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

type ErrResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func ToResp(err error) ErrResp {
	if e, ok := asErr(err); ok {
		if e.Status >= 500 {
			return ErrResp{Error: "internal server error", Code: e.Code}
		}
		return ErrResp{Error: e.Msg, Code: e.Code}
	}
	return ErrResp{Error: "internal server error", Code: ErrInternalServer.Code}
}
func Status(err error) int {
	if e, ok := asErr(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
func asErr(err error) (*Err, bool) {
	if e, ok := err.(*Err); ok {
		return e, true
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e, true
	}
	return nil, false
}
