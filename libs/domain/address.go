package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidAddress = errors.New("address must be a string or an object")

// Address is either a FreeformAddress or a StructuredAddress. Consumers type-switch on it.
type Address interface {
	isAddress()
}

type FreeformAddress string

type StructuredAddress struct {
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	District   string `json:"district" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required,len=2"`
	ZipCode    string `json:"zipCode" validate:"required,zipcode"`
	Complement string `json:"complement,omitempty"`
}

func (FreeformAddress) isAddress()   {}
func (StructuredAddress) isAddress() {}

// DecodeAddress accepts null, a JSON string or a JSON object.
func DecodeAddress(raw json.RawMessage) (Address, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return FreeformAddress(s), nil
	case '{':
		var sa StructuredAddress
		if err := json.Unmarshal(raw, &sa); err != nil {
			return nil, err
		}
		return sa, nil
	default:
		return nil, ErrInvalidAddress
	}
}

func EncodeAddress(a Address) (json.RawMessage, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case FreeformAddress:
		return json.Marshal(string(v))
	case StructuredAddress:
		return json.Marshal(v)
	default:
		return nil, ErrInvalidAddress
	}
}

// FormatAddress renders an address on one line.
func FormatAddress(a Address) string {
	switch v := a.(type) {
	case nil:
		return ""
	case FreeformAddress:
		return strings.TrimSpace(string(v))
	case StructuredAddress:
		line := v.Street + ", " + v.Number
		if v.Complement != "" {
			line += " (" + v.Complement + ")"
		}
		return line + " - " + v.District + ", " + v.City + "/" + v.State + " " + FormatZipCode(v.ZipCode)
	default:
		return ""
	}
}

// FormatZipCode formats a Brazilian CEP as 00000-000.
func FormatZipCode(cep string) string {
	digits := OnlyDigits(cep)
	if len(digits) > 5 {
		end := min(len(digits), 8)
		return digits[:5] + "-" + digits[5:end]
	}
	return digits
}

func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
