package entity

import (
	"testing"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/fault"
)

func TestNormalizeNIF(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"b-12345678", "B12345678"},
		{"B 12 345 678", "B12345678"},
		{"b.12345678", "B12345678"},
		{"B12345678", "B12345678"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeNIF(tt.in); got != tt.want {
			t.Errorf("NormalizeNIF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("b-123.456 78", "Acme Shipping")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.NIF != "B12345678" {
		t.Errorf("NIF = %q, want normalized B12345678", c.NIF)
	}
	if c.Name != "Acme Shipping" {
		t.Errorf("Name = %q", c.Name)
	}
}

func TestNewClientDefaultsName(t *testing.T) {
	c, err := NewClient("B12345678", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Name != "Unknown Client" {
		t.Errorf("Name = %q, want Unknown Client", c.Name)
	}
}

func TestNewClientEmptyNIF(t *testing.T) {
	_, err := NewClient(" - . ", "Acme")
	if err == nil {
		t.Fatal("expected error for empty NIF")
	}
	if fault.KindOf(err) != fault.KindMissingIdentity {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindMissingIdentity)
	}
}

func TestNewProviderDefaults(t *testing.T) {
	p, err := NewProvider("a87654321", "", "")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.NIF != "A87654321" {
		t.Errorf("NIF = %q, want A87654321", p.NIF)
	}
	if p.Name != "Unknown Provider" {
		t.Errorf("Name = %q, want Unknown Provider", p.Name)
	}
	if p.ProviderType != domain.ProviderTypeOther {
		t.Errorf("ProviderType = %s, want OTHER", p.ProviderType)
	}
}

func TestNewProviderEmptyNIF(t *testing.T) {
	_, err := NewProvider("", domain.ProviderTypeShipping, "Maersk")
	if fault.KindOf(err) != fault.KindMissingIdentity {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindMissingIdentity)
	}
}
