package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalFormTokens are company-form suffixes dropped from operator names so
// "EnBW AG" and "EnBW" compare equal.
var legalFormTokens = map[string]bool{
	"gmbh": true, "mbh": true, "ag": true, "kg": true, "co": true, "se": true,
	"eg": true, "ug": true, "ohg": true, "ltd": true, "inc": true, "llc": true,
	"bv": true, "sa": true, "sarl": true,
}

// NormalizeText case-folds, strips diacritics, replaces punctuation with
// spaces and collapses whitespace: "  Ladesäule, Nord " -> "ladesaule nord".
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	// Transformers carry state, so build a fresh chain per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)
	return strings.Join(strings.FieldsFunc(folded, isSeparator), " ")
}

// NormalizeOperator is NormalizeText with legal-form suffixes removed. If
// only legal-form tokens remain, the plain normalized text is returned.
func NormalizeOperator(s string) string {
	normalized := NormalizeText(s)
	tokens := strings.Fields(normalized)
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !legalFormTokens[t] {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}

// NormalizeAddress flattens street, postcode and town into one comparable string.
func NormalizeAddress(a Address) string {
	return NormalizeText(strings.Join([]string{a.Street, a.Postcode, a.Town}, " "))
}

// NormalizePlugType canonicalizes a connector label: "  type 2 " -> "TYPE 2".
func NormalizePlugType(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Similarity scores two normalized strings in [0, 1] as the larger of token
// containment and the Levenshtein ratio. Token containment catches names that
// extend each other ("alexanderplatz" vs "alexanderplatz ladestation"), the
// edit ratio catches spelling variants. Empty input scores 0; callers treat
// empty values as neutral before calling.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return max(TokenContainment(a, b), LevenshteinRatio(a, b))
}

// TokenContainment is the share of the smaller token set found in the larger.
func TokenContainment(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}
	overlap := 0
	for t := range ta {
		if tb[t] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(ta))
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// LevenshteinRatio returns 1 - editDistance/maxLen, counted in runes.
func LevenshteinRatio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(edlib.LevenshteinDistance(a, b))/float64(longest)
}
