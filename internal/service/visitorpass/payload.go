package visitorpass

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/google/uuid"
)

// Payload is the content of a pass QR code. Only ID is authoritative;
// the rest is for display on devices that cannot reach the server.
type Payload struct {
	ID              string            `json:"id"`
	VisitorName     string            `json:"visitorName"`
	VisitorPhone    string            `json:"visitorPhone"`
	UnitNumber      string            `json:"unitNumber"`
	CompoundName    string            `json:"compoundName"`
	ExpectedArrival time.Time         `json:"expectedArrival"`
	Status          domain.PassStatus `json:"status"`
}

func EncodePayload(p *domain.VisitorPass) (string, error) {
	data, err := json.Marshal(Payload{
		ID:              p.ID,
		VisitorName:     p.VisitorName,
		VisitorPhone:    p.VisitorPhone,
		UnitNumber:      p.UnitNumber,
		CompoundName:    p.CompoundName,
		ExpectedArrival: p.ExpectedArrival.UTC(),
		Status:          p.Status,
	})
	if err != nil {
		return "", fmt.Errorf("encode pass payload: %w", err)
	}
	return string(data), nil
}

func ParsePayload(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidPassFormat)
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPassFormat, err)
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		return nil, fmt.Errorf("%w: bad id", domain.ErrInvalidPassFormat)
	}
	if p.VisitorName == "" || p.UnitNumber == "" {
		return nil, fmt.Errorf("%w: missing visitor or unit", domain.ErrInvalidPassFormat)
	}
	return &p, nil
}
