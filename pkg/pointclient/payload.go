package pointclient

// CardInfo is the card block of the upstream request.
type CardInfo struct {
	ExpMonth   string `json:"ExpMonth"`
	ExpYear    string `json:"ExpYear"`
	CvcNumber  string `json:"CvcNumber"`
	CardNumber string `json:"CardNumber"`
}

// PointRequest is the payload sent to the point API.
type PointRequest struct {
	PointType int      `json:"PointType"`
	CardInfo  CardInfo `json:"CardInfo"`
}

// PayloadTemplate holds the request fields that are fixed for a running instance.
// It has no reference fields, so Build always returns an independent value.
type PayloadTemplate struct {
	PointType int
	ExpMonth  string
	ExpYear   string
	CvcNumber string
}

// DefaultPayloadTemplate matches the values the upstream accepts for a point-only lookup.
func DefaultPayloadTemplate() PayloadTemplate {
	return PayloadTemplate{
		PointType: 1,
		ExpMonth:  "12",
		ExpYear:   "2028",
		CvcNumber: "000",
	}
}

// Build returns a new payload for the given card number.
func (t PayloadTemplate) Build(cardNumber string) PointRequest {
	return PointRequest{
		PointType: t.PointType,
		CardInfo: CardInfo{
			ExpMonth:   t.ExpMonth,
			ExpYear:    t.ExpYear,
			CvcNumber:  t.CvcNumber,
			CardNumber: cardNumber,
		},
	}
}
