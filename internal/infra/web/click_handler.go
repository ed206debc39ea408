package web

import (
	"net/http"
	"strconv"

	"telegram-subscription-payments/internal/gateway/click"
)

// handleClick terminates the Click form-encoded webhook. The raw amount
// string is kept verbatim because the signature was computed over it.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusOK, click.Errf(click.BadRequest, "Error in request from click"))
		return
	}

	req, err := parseClickForm(r)
	if err != nil {
		writeJSON(w, http.StatusOK, click.Errf(click.BadRequest, "Error in request from click"))
		return
	}

	resp := s.clickUC.Handle(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

func parseClickForm(r *http.Request) (*click.Request, error) {
	clickTransID, err := strconv.ParseInt(r.PostFormValue("click_trans_id"), 10, 64)
	if err != nil {
		return nil, err
	}
	serviceID, err := strconv.ParseInt(r.PostFormValue("service_id"), 10, 64)
	if err != nil {
		return nil, err
	}
	action, err := strconv.Atoi(r.PostFormValue("action"))
	if err != nil {
		return nil, err
	}
	amountRaw := r.PostFormValue("amount")
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		return nil, err
	}

	// Optional fields: absent on prepare or on success callbacks.
	paydocID, _ := strconv.ParseInt(r.PostFormValue("click_paydoc_id"), 10, 64)
	prepareID, _ := strconv.ParseInt(r.PostFormValue("merchant_prepare_id"), 10, 64)
	clickErr, _ := strconv.Atoi(r.PostFormValue("error"))

	return &click.Request{
		ClickTransID:      clickTransID,
		ServiceID:         serviceID,
		ClickPaydocID:     paydocID,
		MerchantTransID:   r.PostFormValue("merchant_trans_id"),
		MerchantPrepareID: prepareID,
		Amount:            amount,
		AmountRaw:         amountRaw,
		Action:            click.Action(action),
		Error:             clickErr,
		ErrorNote:         r.PostFormValue("error_note"),
		SignTime:          r.PostFormValue("sign_time"),
		SignString:        r.PostFormValue("sign_string"),
		Param2:            r.PostFormValue("additional_param3"),
	}, nil
}
