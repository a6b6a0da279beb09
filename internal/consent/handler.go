package consent

import (
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/consent/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

type consentHandler struct {
	service ConsentService
}

func newConsentHandler(service ConsentService) *consentHandler {
	return &consentHandler{
		service: service,
	}
}

// optOut handles POST /sms-opt-out, the public unsubscribe-link endpoint.
func (h *consentHandler) optOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.OptOutRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.SendError(w, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	method := req.Method
	if method == "" {
		method = model.MethodLink
	}

	resp, svcErr := h.service.OptOut(ctx, req.CustomerID, req.OrganizationID, method, nil)
	if svcErr != nil {
		utils.SendError(w, svcErr)
		return
	}
	utils.JSONResponse(w, http.StatusOK, resp)
}

// confirmReopt handles POST /process-reopt-confirmation, reached from the
// emailed confirmation link.
func (h *consentHandler) confirmReopt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ConfirmRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.SendError(w, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	resp, svcErr := h.service.ConfirmReoptIn(ctx, req.Token)
	if svcErr != nil {
		utils.SendError(w, svcErr)
		return
	}
	utils.JSONResponse(w, http.StatusOK, resp)
}
