package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"case folding", "Alexanderplatz", "alexanderplatz"},
		{"diacritics", "Ladesäule Müllerstraße", "ladesaule mullerstrasse"},
		{"whitespace collapse", "  Parkplatz \t  Nord  ", "parkplatz nord"},
		{"punctuation", "P+R Nord-West (Ebene 2)", "p r nord west ebene 2"},
		{"accented capitals", "ÉCOLE", "ecole"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}

func TestNormalizeOperator(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"legal form dropped", "EnBW AG", "enbw"},
		{"gmbh and co kg", "Stadtwerke Musterstadt GmbH & Co. KG", "stadtwerke musterstadt"},
		{"only legal form kept", "AG", "ag"},
		{"plain", "StadtWerke", "stadtwerke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeOperator(tt.input))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	a := Address{Street: "Karl-Marx-Allee 1", Postcode: "10178", Town: "Berlin", Country: "DE"}
	assert.Equal(t, "karl marx allee 1 10178 berlin", NormalizeAddress(a))
	assert.Empty(t, NormalizeAddress(Address{}))
}

func TestNormalizePlugType(t *testing.T) {
	assert.Equal(t, "TYPE 2", NormalizePlugType("  type   2 "))
	assert.Equal(t, "CCS", NormalizePlugType("ccs"))
	assert.Empty(t, NormalizePlugType("   "))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "alexanderplatz", "alexanderplatz", 1, 1},
		{"extension", "alexanderplatz", "alexanderplatz ladestation", 1, 1},
		{"typo", "hauptbahnhof", "hauptbanhof", 0.9, 0.95},
		{"unrelated", "stadtwerke", "otherco", 0, 0.4},
		{"empty", "", "alexanderplatz", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"parkplatz nord", "parkplatz"},
		{"enbw", "enbw energie baden wurttemberg"},
		{"kaufland", "kauflandd"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestLevenshteinRatio(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinRatio("", ""))
	assert.Equal(t, 0.0, LevenshteinRatio("abc", "xyz"))
	assert.InDelta(t, 1-3.0/7.0, LevenshteinRatio("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 1-1.0/6.0, LevenshteinRatio("straße", "strase"), 1e-9, "counts runes, not bytes")
	assert.InDelta(t, 0.5, LevenshteinRatio("marktplatz", "markt"), 1e-9)
	assert.Equal(t, LevenshteinRatio("parkhaus sued", "tankstelle mitte"), LevenshteinRatio("tankstelle mitte", "parkhaus sued"))
}

func TestTokenContainment(t *testing.T) {
	assert.Equal(t, 1.0, TokenContainment("a b", "b c a"))
	assert.Equal(t, 0.5, TokenContainment("a b", "a c"))
	assert.Equal(t, 0.0, TokenContainment("", "a"))
}
