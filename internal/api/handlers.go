/**
 * @description
 * This file contains the HTTP handlers for the card point endpoints. Handlers
 * validate the card identifier, call the application service and map its
 * result onto the response envelope callers already depend on.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/prometheus/client_golang: Request metrics.
 * - internal/domain: The card query and lookup result models.
 */
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/transfa/card-point-service/internal/domain"
)

// Envelope messages. Callers match on these strings, so they stay in Turkish.
const (
	businessFailureMessage  = "API İş Mantığı Hatası"
	transportFailureMessage = "İletişim/Ağ Hatası"

	queryValidationMessage = "Hata: Geçerli bir 'kart_no' URL parametresi sağlanmalıdır (örnek: ?kart_no=...)."
	queryValidationHint    = "URL parametresi eksik veya hatalı."
	bodyValidationMessage  = "Hata: Geçerli bir 'kart_no' body alanı sağlanmalıdır."

	infoText = "API çalışıyor. Sorgulama için POST /api/check veya GET /api/check-url?kart_no=... adreslerini kullanın."
)

const cardNumberField = "kart_no"

// PointChecker runs a single card point lookup.
type PointChecker interface {
	CheckCardPoints(ctx context.Context, query domain.CardQuery) domain.PointResult
}

// PointHandlers holds the application service that handlers will use.
type PointHandlers struct {
	service PointChecker
}

// NewPointHandlers creates a new instance of PointHandlers.
func NewPointHandlers(service PointChecker) *PointHandlers {
	return &PointHandlers{service: service}
}

type checkSuccessResponse struct {
	Success       bool   `json:"success"`
	CardNumber    string `json:"kart_no"`
	HasValue      bool   `json:"puan_var"`
	AmountDisplay string `json:"puan_miktar"`
}

type checkFailureResponse struct {
	Success        bool   `json:"success"`
	CardNumber     string `json:"kart_no"`
	ErrorMessage   string `json:"hata_mesaji"`
	Detail         string `json:"detay"`
	UpstreamStatus int    `json:"http_status,omitempty"`
}

type validationErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Hint    string `json:"tip,omitempty"`
}

// CheckByQueryHandler handles GET /api/check-url?kart_no=...
func (h *PointHandlers) CheckByQueryHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/check-url"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	// A repeated parameter is not a single string value.
	values := r.URL.Query()[cardNumberField]
	if len(values) != 1 {
		h.writeValidationError(w, r, endpoint, queryValidationMessage, queryValidationHint)
		return
	}
	query, err := domain.NewCardQuery(values[0])
	if err != nil {
		h.writeValidationError(w, r, endpoint, queryValidationMessage, queryValidationHint)
		return
	}

	log.Printf("level=info component=api endpoint=check_url msg=\"lookup requested\" card=%s", query.Masked())
	h.respondWithResult(w, r, endpoint, query)
}

// CheckByBodyHandler handles POST /api/check with {"kart_no": "..."}.
func (h *PointHandlers) CheckByBodyHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/check"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeValidationError(w, r, endpoint, bodyValidationMessage, "")
		return
	}

	var cardNumber string
	raw, ok := body[cardNumberField]
	if !ok || json.Unmarshal(raw, &cardNumber) != nil {
		h.writeValidationError(w, r, endpoint, bodyValidationMessage, "")
		return
	}
	query, err := domain.NewCardQuery(cardNumber)
	if err != nil {
		h.writeValidationError(w, r, endpoint, bodyValidationMessage, "")
		return
	}

	log.Printf("level=info component=api endpoint=check msg=\"lookup requested\" card=%s", query.Masked())
	h.respondWithResult(w, r, endpoint, query)
}

// InfoHandler answers GET / with a short usage text.
func (h *PointHandlers) InfoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(infoText))
}

func (h *PointHandlers) respondWithResult(w http.ResponseWriter, r *http.Request, endpoint string, query domain.CardQuery) {
	result := h.service.CheckCardPoints(r.Context(), query)
	upstreamResults.WithLabelValues(result.Outcome()).Inc()

	if result.Success {
		h.writeJSON(w, r, endpoint, http.StatusOK, checkSuccessResponse{
			Success:       true,
			CardNumber:    query.CardNumber,
			HasValue:      result.HasValue,
			AmountDisplay: result.AmountDisplay,
		})
		return
	}

	resp := checkFailureResponse{
		Success:    false,
		CardNumber: query.CardNumber,
		Detail:     result.Detail,
	}
	if result.FailureKind == domain.FailureBusiness {
		resp.ErrorMessage = businessFailureMessage
		resp.UpstreamStatus = result.UpstreamStatus
	} else {
		resp.ErrorMessage = transportFailureMessage
	}
	h.writeJSON(w, r, endpoint, http.StatusInternalServerError, resp)
}

func (h *PointHandlers) writeValidationError(w http.ResponseWriter, r *http.Request, endpoint, message, hint string) {
	h.writeJSON(w, r, endpoint, http.StatusBadRequest, validationErrorResponse{
		Success: false,
		Message: message,
		Hint:    hint,
	})
}

// writeJSON is a helper for writing JSON responses.
func (h *PointHandlers) writeJSON(w http.ResponseWriter, r *http.Request, endpoint string, status int, data interface{}) {
	httpReqTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
