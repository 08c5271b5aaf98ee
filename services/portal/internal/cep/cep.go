// Package cep looks up Brazilian postal codes on ViaCEP to prefill address forms.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://viacep.com.br/ws"

var (
	ErrInvalidCEP = errors.New("CEP must have 8 digits")
	ErrNotFound   = errors.New("CEP not found")
)

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	// ViaCEP answers 200 with {"erro": true} (older API: "true") for unknown codes.
	Erro json.RawMessage `json:"erro,omitempty"`
}

// Lookup returns the address known for cep. Number is always empty; the user supplies it.
func (c *Client) Lookup(ctx context.Context, cep string) (domain.StructuredAddress, error) {
	digits := domain.OnlyDigits(cep)
	if len(digits) != 8 {
		return domain.StructuredAddress{}, ErrInvalidCEP
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+digits+"/json/", nil)
	if err != nil {
		return domain.StructuredAddress{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return domain.StructuredAddress{}, fmt.Errorf("cep lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest {
		return domain.StructuredAddress{}, ErrInvalidCEP
	}
	if resp.StatusCode != http.StatusOK {
		return domain.StructuredAddress{}, fmt.Errorf("cep lookup: status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.StructuredAddress{}, fmt.Errorf("cep lookup: decode: %w", err)
	}
	if erro := strings.Trim(string(body.Erro), `"`); erro == "true" {
		return domain.StructuredAddress{}, ErrNotFound
	}
	return domain.StructuredAddress{
		Street:     body.Logradouro,
		District:   body.Bairro,
		City:       body.Localidade,
		State:      body.UF,
		ZipCode:    digits,
		Complement: body.Complemento,
	}, nil
}
