package utils

import (
	"encoding/json"
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	"github.com/cxtrack/sms-consent-api/internal/system/error/apierror"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
)

func DecodeJSONBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// StatusCodeFor maps a service error to the HTTP status code it should be
// surfaced with. The token states get distinct codes because the public
// confirmation page renders different copy for each.
func StatusCodeFor(err *serviceerror.ServiceError) int {
	if err.Type == serviceerror.ServerErrorType {
		if err.Code == serviceerror.ExternalFailureError.Code {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}

	switch err.Code {
	case serviceerror.ResourceNotFoundError.Code:
		return http.StatusNotFound
	case serviceerror.ConflictError.Code, serviceerror.TokenUsedError.Code:
		return http.StatusConflict
	case serviceerror.TokenExpiredError.Code:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

// SendError writes a ServiceError as an HTTP response with appropriate status code
func SendError(w http.ResponseWriter, err *serviceerror.ServiceError) {
	errorResponse := apierror.ErrorResponse{
		Code:        err.Error,
		Description: err.ErrorDescription,
	}

	w.Header().Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	w.WriteHeader(StatusCodeFor(err))
	json.NewEncoder(w).Encode(errorResponse)
}
