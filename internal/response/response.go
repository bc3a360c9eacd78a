package response

import (
	"encoding/json"
	"net/http"
)

// APIResponse — неизменяемый результат запроса. Создаётся один раз на исход и только читается.
type APIResponse struct {
	isSuccess  bool
	statusCode int
	messages   []string
	result     any
}

// OK — успешный ответ с результатом.
func OK(status int, result any) APIResponse {
	return APIResponse{isSuccess: true, statusCode: status, result: result}
}

// Fail — неуспешный ответ с сообщениями.
func Fail(status int, messages ...string) APIResponse {
	return APIResponse{statusCode: status, messages: append([]string(nil), messages...)}
}

func (r APIResponse) IsSuccess() bool { return r.isSuccess }
func (r APIResponse) StatusCode() int { return r.statusCode }
func (r APIResponse) Result() any { return r.result }
func (r APIResponse) Messages() []string { return append([]string(nil), r.messages...) }

type wire struct {
	IsSuccess  bool     `json:"isSuccess"`
	StatusCode int      `json:"statusCode"`
	Messages   []string `json:"errorMessages"`
	Result     any      `json:"result"`
}

func (r APIResponse) MarshalJSON() ([]byte, error) {
	msgs := r.messages
	if msgs == nil {
		msgs = []string{}
	}
	return json.Marshal(wire{IsSuccess: r.isSuccess, StatusCode: r.statusCode, Messages: msgs, Result: r.result})
}

// Write отправляет ответ клиенту.
func (r APIResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.statusCode)
	_ = json.NewEncoder(w).Encode(r)
}
