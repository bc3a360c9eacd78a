package handlers

import (
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// статус и сообщение для ошибки сервиса; внутренние подробности наружу не уходят
func errorResponse(err error) response.APIResponse {
	switch {
	case errors.Is(err, service.ErrValidation):
		return response.Fail(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return response.Fail(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return response.Fail(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		return response.Fail(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAuth):
		return response.Fail(http.StatusUnauthorized, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return response.Fail(http.StatusServiceUnavailable, "request timed out")
	default:
		return response.Fail(http.StatusInternalServerError, "internal server error")
	}
}

// writeError пишет ответ по ошибке сервиса, серверные сбои логируются.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	resp := errorResponse(err)
	if resp.StatusCode() >= http.StatusInternalServerError {
		logger.Errorw(op+": service error", "error", err)
	} else {
		logger.Debugw(op+": rejected", "status", resp.StatusCode(), "error", err)
	}
	resp.Write(w)
}

func badRequest(w http.ResponseWriter, msg string) {
	response.Fail(http.StatusBadRequest, msg).Write(w)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// pageParams читает page, page_size и search из строки запроса.
func pageParams(r *http.Request, defaultSize int) (page, size int, search string, err error) {
	q := r.URL.Query()
	page, size = 1, defaultSize
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, "", fmt.Errorf("invalid page %q", v)
		}
	}
	if v := q.Get("page_size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return 0, 0, "", fmt.Errorf("invalid page_size %q", v)
		}
	}
	return page, size, strings.TrimSpace(q.Get("search")), nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart ограничивает тело запроса и разбирает форму.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxMB int) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxMB)<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return fmt.Errorf("request body exceeds %d MB", maxMB)
		}
		return fmt.Errorf("invalid multipart form: %v", err)
	}
	return nil
}

// openedFiles закрывает все файлы формы, открытые хендлером.
type openedFiles []multipart.File

func (o *openedFiles) open(fh *multipart.FileHeader) (service.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileUpload{}, err
	}
	*o = append(*o, f)
	return service.FileUpload{Name: fh.Filename, Reader: f}, nil
}

func (o openedFiles) Close() {
	for _, f := range o {
		_ = f.Close()
	}
}

// formFile возвращает первый файл поля формы или nil.
func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if fhs := form.File[key]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}
