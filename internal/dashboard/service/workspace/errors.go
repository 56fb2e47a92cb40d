package workspace

import (
	"context"
	"errors"

	"github.com/qiniu/zabbixboard/internal/dashboard/client"
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
)

var (
	ErrInsufficientRole = errors.New("insufficient role")
	ErrNoCompany        = errors.New("no company selected")
	ErrNoHost           = errors.New("no host selected")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrInvalidSelection = errors.New("invalid selection")
)

const (
	msgSessionExpired   = "Your session has expired, please log in again."
	msgInsufficientRole = "Your role does not allow this action."
	msgAIRole           = "You are not allowed to use the AI assistant. Operator role or higher is required."
	msgBackend          = "Failed to load data from the monitoring backend."
	msgTimeout          = "The monitoring backend did not answer in time."
)

// Describe turns an error into the message shown next to the affected panel.
func Describe(err error) model.ErrorDetail {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return model.ErrorDetail{}
	case errors.Is(err, client.ErrUnauthorized):
		return model.ErrorDetail{Code: model.CodeUnauthenticated, Message: msgSessionExpired}
	case errors.Is(err, client.ErrForbidden), errors.Is(err, ErrInsufficientRole):
		return model.ErrorDetail{Code: model.CodeInsufficientRole, Message: msgInsufficientRole}
	case errors.Is(err, ErrNoCompany):
		return model.ErrorDetail{Code: model.CodeInvalidParameter, Message: err.Error(), Parameter: "companyId"}
	case errors.Is(err, ErrNoHost):
		return model.ErrorDetail{Code: model.CodeInvalidParameter, Message: err.Error(), Parameter: "hostId"}
	case errors.Is(err, ErrInvalidSelection):
		return model.ErrorDetail{Code: model.CodeInvalidParameter, Message: err.Error()}
	case errors.Is(err, ErrAlertNotFound):
		return model.ErrorDetail{Code: model.CodeNotFound, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return model.ErrorDetail{Code: model.CodeBackendError, Message: msgTimeout}
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return model.ErrorDetail{Code: model.CodeBackendError, Message: apiErr.Detail}
	default:
		return model.ErrorDetail{Code: model.CodeBackendError, Message: msgBackend}
	}
}

// describeAI is Describe with the assistant specific role message.
func describeAI(err error) model.ErrorDetail {
	d := Describe(err)
	if d.Code == model.CodeInsufficientRole {
		d.Message = msgAIRole
	}
	return d
}
