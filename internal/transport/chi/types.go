package chi

import (
	catalogsvc "github.com/kailas-cloud/sitekit/internal/usecase/catalog"
)

// errorCode is the machine readable error code in error responses.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeUnauthorized     errorCode = "unauthorized"
	codeValidationFailed errorCode = "validation_failed"
	codeNotFound         errorCode = "not_found"
	codeBatchTooLarge    errorCode = "batch_too_large"
	codeInternalError    errorCode = "internal_error"
)

// Tagged completion statuses.
const (
	statusOK    = "ok"
	statusError = "error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

type legacyCompletionResponse struct {
	Result string `json:"result"`
}

type categoryResponse struct {
	Name  string `json:"name"`
	Field string `json:"field"`
}

type categoryListResponse struct {
	Items []categoryResponse `json:"items"`
}

type importRequest struct {
	Items []catalogsvc.ItemInput `json:"items"`
}

type batchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *errorResponse `json:"error,omitempty"`
}

type importResponse struct {
	Items     []batchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type itemResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SKUs        string `json:"skUs"`
	Description string `json:"itemDetailedDescription"`
	MfgPartNos  string `json:"mfgPartNos"`
}

type filterResponse struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// viewResponse is a committed result set. A nil filter means every item passes.
type viewResponse struct {
	Filter   *filterResponse `json:"filter"`
	Items    []itemResponse  `json:"items"`
	Total    int             `json:"total"`
	Revision uint64          `json:"revision"`
}

type pageResponse struct {
	ID       string       `json:"id"`
	Input    string       `json:"input"`
	Category string       `json:"category"`
	Options  []string     `json:"options"`
	View     viewResponse `json:"view"`
}

type eventRequest struct {
	Type     string  `json:"type"`
	Key      string  `json:"key,omitempty"`
	Input    *string `json:"input,omitempty"`
	Category *string `json:"category,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
