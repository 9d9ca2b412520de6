package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/fault"
)

// NormalizeNIF strips spaces, dashes and dots from a tax id and
// uppercases it, so NIFs compare regardless of formatting.
func NormalizeNIF(nif string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "")
	return strings.ToUpper(replacer.Replace(nif))
}

// Client is a party the company bills. Clients are auto-created the
// first time an unseen NIF appears on a confirmed client invoice.
type Client struct {
	ID        uuid.UUID
	Name      string
	NIF       string // normalized, unique
	CreatedAt time.Time
}

// NewClient creates a client with a normalized NIF. The name defaults
// when the extraction did not capture one.
func NewClient(nif, name string) (*Client, error) {
	normalized := NormalizeNIF(nif)
	if normalized == "" {
		return nil, fault.New(fault.KindMissingIdentity, "client NIF cannot be empty")
	}
	if name == "" {
		name = "Unknown Client"
	}
	return &Client{
		ID:        uuid.New(),
		Name:      name,
		NIF:       normalized,
		CreatedAt: time.Now(),
	}, nil
}

// UpdateName updates the client display name.
func (c *Client) UpdateName(name string) {
	c.Name = name
}

// Provider is a party that bills the company. Providers are auto-created
// the first time an unseen NIF appears on a confirmed provider invoice.
type Provider struct {
	ID           uuid.UUID
	Name         string
	NIF          string // normalized, unique
	ProviderType domain.ProviderType
	CreatedAt    time.Time
}

// NewProvider creates a provider with a normalized NIF.
func NewProvider(nif string, providerType domain.ProviderType, name string) (*Provider, error) {
	normalized := NormalizeNIF(nif)
	if normalized == "" {
		return nil, fault.New(fault.KindMissingIdentity, "provider NIF cannot be empty")
	}
	if name == "" {
		name = "Unknown Provider"
	}
	if providerType == "" {
		providerType = domain.ProviderTypeOther
	}
	return &Provider{
		ID:           uuid.New(),
		Name:         name,
		NIF:          normalized,
		ProviderType: providerType,
		CreatedAt:    time.Now(),
	}, nil
}

// UpdateName updates the provider display name.
func (p *Provider) UpdateName(name string) {
	p.Name = name
}

// UpdateType changes the provider type. Historical charges keep the
// type they were tagged with at confirmation time.
func (p *Provider) UpdateType(providerType domain.ProviderType) {
	p.ProviderType = providerType
}
