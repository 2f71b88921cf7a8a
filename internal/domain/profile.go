package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// PharmacyIndex identifies a pharmacy. Clients send it either as a number or a string.
type PharmacyIndex string

// UnmarshalJSON accepts JSON strings and numbers.
func (p *PharmacyIndex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PharmacyIndex(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PharmacyIndex(n.String())
	return nil
}

// Pharmacy is an entry of a profile's pharmacy list.
type Pharmacy struct {
	Index   PharmacyIndex `json:"index"`
	Region  string        `json:"region,omitempty"`
	Address string        `json:"address,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Hours   string        `json:"hours,omitempty"`
}

// Profile holds personal details and the pharmacies a user is responsible for.
type Profile struct {
	Email      string
	FirstName  string
	LastName   string
	Role       Role
	Pharmacies []Pharmacy
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
