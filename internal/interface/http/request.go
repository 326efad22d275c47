package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	domain_task "github.com/hijjiri/tasklist/internal/domain/task"
)

const maxBodyBytes = 1 << 20

// ErrInvalidInput はリクエストボディが型どおりに読めなかったことを表す。
var ErrInvalidInput = errors.New("invalid input")

// RequestError は入力不正の詳細を持つ。errors.Is(err, ErrInvalidInput) で判定する。
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrInvalidInput.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), e.Msg)
}

func (e *RequestError) Unwrap() error { return ErrInvalidInput }

func invalidf(format string, args ...any) error {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}

// ---- request bodies ----

// nil は「指定なし」。
type createTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type updateTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

func (req createTaskRequest) title() string {
	if req.Title == nil {
		return ""
	}
	return *req.Title
}

func (req createTaskRequest) completed() bool {
	return req.Completed != nil && *req.Completed
}

func (req updateTaskRequest) toPatch() domain_task.Patch {
	return domain_task.Patch{
		Title:     req.Title,
		Completed: req.Completed,
	}
}

// decodeJSON は未知のフィールドや型違いを拒否する。空ボディは {} とみなす。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeError(err)
	}

	// 2 つ目の値が続いていたら不正
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidf("request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return invalidf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return invalidf("malformed JSON")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return invalidf("request body must be a JSON object")
		}
		return invalidf("field %q must be a %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &maxBytesErr):
		return invalidf("request body must not exceed %d bytes", maxBytesErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return invalidf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return invalidf("%v", err)
	}
}

// parseID は :id を緩く解釈する。先頭の数字だけを読み（"12abc" → 12）、
// 数字が無ければ 0 を返す。0 以下はどのタスクにも一致しないので 404 になる。
func parseID(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
