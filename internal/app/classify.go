package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/transfa/card-point-service/internal/domain"
	"github.com/transfa/card-point-service/pkg/pointclient"
)

// Defaults applied when the upstream omits a field.
const (
	DefaultAmountDisplay   = "0,00 TL"
	DefaultBusinessMessage = "Bilinmeyen API hatası"
)

// Transport failure details returned to callers.
const (
	DetailTimeout      = "Zaman Aşımı"
	DetailNetworkError = "Ağ Bağlantı Hatası"
)

// pointResponse is the upstream body. Loosely typed fields stay raw so that
// an unexpected type falls back to the documented default instead of failing
// the whole decode. Only a body that is not a JSON object fails to decode.
type pointResponse struct {
	Success json.RawMessage `json:"success"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// pointBlock is data.point.
type pointBlock struct {
	Value       json.RawMessage `json:"value"`
	ValueString json.RawMessage `json:"valueString"`
}

// Classify turns the outcome of one upstream exchange into a PointResult.
func Classify(raw *pointclient.RawResponse, err error) domain.PointResult {
	if err != nil || raw == nil {
		return transportFailure(err)
	}

	var body pointResponse
	decodeErr := json.Unmarshal(raw.Body, &body)

	if raw.StatusCode == http.StatusOK && decodeErr == nil && truthy(body.Success) {
		point := body.point()
		value := pointValue(point)
		return domain.PointResult{
			Success:       true,
			HasValue:      value > 0,
			Value:         value,
			AmountDisplay: amountDisplay(point),
		}
	}

	return domain.PointResult{
		FailureKind:    domain.FailureBusiness,
		Detail:         businessMessage(body),
		UpstreamStatus: raw.StatusCode,
	}
}

// point walks data.point. A missing or non-object level yields nil.
func (r pointResponse) point() *pointBlock {
	var data map[string]json.RawMessage
	if !object(r.Data, &data) {
		return nil
	}
	var point pointBlock
	if !object(data["point"], &point) {
		return nil
	}
	return &point
}

// object decodes raw into v only when raw holds a JSON object.
func object(raw json.RawMessage, v interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

func transportFailure(err error) domain.PointResult {
	var transportErr *pointclient.TransportError
	timeout := errors.As(err, &transportErr) && transportErr.Timeout

	detail := DetailNetworkError
	if timeout {
		detail = DetailTimeout
	}
	return domain.PointResult{
		FailureKind: domain.FailureTransport,
		Detail:      detail,
		Timeout:     timeout,
	}
}

// pointValue reads data.point.value; absent, null or non-numeric means 0.
func pointValue(point *pointBlock) float64 {
	if point == nil {
		return 0
	}
	return number(point.Value)
}

// amountDisplay reads data.point.valueString; absent or empty means DefaultAmountDisplay.
func amountDisplay(point *pointBlock) string {
	if point == nil {
		return DefaultAmountDisplay
	}
	if s := str(point.ValueString); s != "" {
		return s
	}
	return DefaultAmountDisplay
}

// businessMessage reads message; absent or empty means DefaultBusinessMessage.
func businessMessage(body pointResponse) string {
	if s := str(body.Message); s != "" {
		return s
	}
	return DefaultBusinessMessage
}

func number(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed
		}
	}
	return 0
}

func str(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// truthy follows the upstream's loose typing: true, non-zero numbers and
// non-empty strings count as set.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		// objects and arrays
		return true
	}
}
