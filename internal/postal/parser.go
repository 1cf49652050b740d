// Package postal wraps libpostal address parsing for the enrichment pass.
// It lives behind its own package so only the enricher binary links
// against the native library.
package postal

import (
	"strings"

	parser "github.com/openvenues/gopostal/parser"
)

// Components is a parsed address broken into labeled parts. Empty fields
// mean libpostal found no such component.
type Components struct {
	HouseNumber string
	House       string
	Road        string
	Suburb      string
	City        string
	District    string
	State       string
	Postcode    string
}

// Parse runs libpostal over a raw address string.
func Parse(address string) Components {
	var c Components
	for _, comp := range parser.ParseAddress(address) {
		switch comp.Label {
		case "house_number":
			c.HouseNumber = comp.Value
		case "house":
			c.House = comp.Value
		case "road":
			c.Road = comp.Value
		case "suburb":
			c.Suburb = comp.Value
		case "city":
			c.City = comp.Value
		case "state_district":
			c.District = comp.Value
		case "state":
			c.State = comp.Value
		case "postcode":
			c.Postcode = comp.Value
		}
	}
	return c
}

// Locality returns the best locality guess, most specific first.
func (c Components) Locality() string {
	for _, v := range []string{c.Suburb, c.City, c.District} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Empty reports whether nothing was parsed out of the address.
func (c Components) Empty() bool {
	return c.HouseNumber == "" && c.House == "" && c.Road == "" &&
		c.Suburb == "" && c.City == "" && c.District == "" &&
		c.State == "" && c.Postcode == ""
}

// CleanAddress collapses whitespace before parsing; government registries
// frequently pad addresses with runs of spaces and commas.
func CleanAddress(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	s = strings.Trim(s, " ,")
	return s
}
