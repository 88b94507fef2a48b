package geo

import "github.com/pyvec/pythoncz/internal/model"

// Taxonomy codes. Countries use ISO 3166-1 alpha-2, Czech regions use the
// ČSÚ region codes.
const (
	SK    model.Location = "sk"
	DE    model.Location = "de"
	PL    model.Location = "pl"
	AT    model.Location = "at"
	CZPHA model.Location = "cz_pha"
	CZSTC model.Location = "cz_stc"
	CZJHC model.Location = "cz_jhc"
	CZPLK model.Location = "cz_plk"
	CZKVK model.Location = "cz_kvk"
	CZULK model.Location = "cz_ulk"
	CZLBK model.Location = "cz_lbk"
	CZHKK model.Location = "cz_hkk"
	CZPAK model.Location = "cz_pak"
	CZOLK model.Location = "cz_olk"
	CZMSK model.Location = "cz_msk"
	CZJHM model.Location = "cz_jhm"
	CZZLK model.Location = "cz_zlk"
	CZVYS model.Location = "cz_vys"
)

type entry struct {
	code     model.Location
	patterns []pattern
}

var czechPatterns = patterns(`\bčesk`, `\bczech`)

// taxonomy is ordered: remote before countries before Czech regions.
// The first matching entry wins.
var taxonomy = []entry{
	{model.LocationRemote, append([]pattern{compileNotAfter("limited ", `\bremote\b`)},
		patterns(`\banywhere\b`, `\bexterně\b`,
			`^česk(o|á republika)$`, `^czech(ia| republic)?$`)...)},

	{SK, patterns(`\bslovensk`, `\bslovak`)},
	{DE, patterns(`\bdeutschland\b`, `\bgermany\b`, `\bněmecko\b`)},
	{PL, patterns(`\bpolsko\b`, `\bpolska\b`, `\bpoland\b`)},
	{AT, patterns(`\b[oȍö]sterreich`, `\brakousko\b`, `\baustria\b`)},

	// regions, their centers, and the largest Czech cities
	{CZPHA, patterns(`\bpraha\b`, `\bprague\b`)},
	{CZSTC, patterns(`\bkladno\b`, `\bstředočeský\b`)},
	{CZJHC, patterns(`\bč(eské|\.) budějovice\b`, `\bjihočeský\b`,
		`\bbudějovický\b`)},
	{CZPLK, patterns(`\bplzeň\b`, `\bpilsen\b`, `\bplzeňský\b`,
		`\bzápadočeský\b`)},
	{CZKVK, patterns(`\bk(arlovy|\.) vary\b`, `\bkarlovarský\b`)},
	{CZULK, patterns(`\bústí (nad |n |n\.)(labem|l\.)\b`, `\bmost\b`,
		`\bděčín\b`, `\bteplice\b`, `\bústecký\b`, `\bseveročeský\b`)},
	{CZLBK, patterns(`\bliberec\b`, `\bliberecký\b`)},
	{CZHKK, patterns(`\bh(radec|\.) králové\b`, `\bvýchodočeský\b`,
		`\bhradec k(rálové|\.)\b`, `\bkrálovéhradecký\b`)},
	{CZPAK, patterns(`\bpardubice\b`, `\bpardubický\b`)},
	{CZOLK, patterns(`\bolomouc\b`, `\bolomoucký\b`)},
	{CZMSK, patterns(`\bostrava\b`, `\bopava\b`, `\bkarviná\b`,
		`\bfrýdek\s*-\s*místek\b`, `\bhavířov\b`, `\bmoravskoslezský\b`,
		`\bseveromoravský\b`, `\bostravský\b`)},
	{CZJHM, patterns(`\bbrno\b`, `\bjihomoravský\b`, `\bbrněnský\b`)},
	{CZZLK, patterns(`\bzlín\b`, `\bzlínský\b`)},
	{CZVYS, patterns(`\bjihlava\b`, `\bvysočina\b`)},
}

// Label is a bilingual display name of a location.
type Label struct {
	CS string `json:"cs"`
	EN string `json:"en"`
}

var labels = map[model.Location]Label{
	model.LocationRemote: {"na dálku", "remote"},
	SK:                   {"Slovensko", "Slovakia"},
	DE:                   {"Německo", "Germany"},
	PL:                   {"Polsko", "Poland"},
	AT:                   {"Rakousko", "Austria"},
	CZPHA:                {"Praha", "Prague"},
	CZSTC:                {"Středočeský kraj", "Central Bohemian Region"},
	CZJHC:                {"Jihočeský kraj", "South Bohemian Region"},
	CZPLK:                {"Plzeňský kraj", "Plzeň Region"},
	CZKVK:                {"Karlovarský kraj", "Karlovy Vary Region"},
	CZULK:                {"Ústecký kraj", "Ústí nad Labem Region"},
	CZLBK:                {"Liberecký kraj", "Liberec Region"},
	CZHKK:                {"Královéhradecký kraj", "Hradec Králové Region"},
	CZPAK:                {"Pardubický kraj", "Pardubice Region"},
	CZOLK:                {"Olomoucký kraj", "Olomouc Region"},
	CZMSK:                {"Moravskoslezský kraj", "Moravian-Silesian Region"},
	CZJHM:                {"Jihomoravský kraj", "South Moravian Region"},
	CZZLK:                {"Zlínský kraj", "Zlín Region"},
	CZVYS:                {"Kraj Vysočina", "Vysočina Region"},
}

var wholeCzechia = Label{CS: "celé Česko", EN: "anywhere in Czechia"}

// LabelOf returns the display name of loc. Unknown codes are labelled with
// the code itself.
func LabelOf(loc model.Location) Label {
	if loc == model.LocationUnclassified {
		return wholeCzechia
	}
	if l, ok := labels[loc]; ok {
		return l
	}
	return Label{CS: string(loc), EN: string(loc)}
}

// Codes returns the taxonomy codes in precedence order.
func Codes() []model.Location {
	codes := make([]model.Location, len(taxonomy))
	for i, e := range taxonomy {
		codes[i] = e.code
	}
	return codes
}

// IsCountry reports whether loc is one of the neighbouring countries.
func IsCountry(loc model.Location) bool {
	switch loc {
	case SK, DE, PL, AT:
		return true
	}
	return false
}

// IsCzech reports whether loc lies in Czechia, including the whole-country
// unclassified location.
func IsCzech(loc model.Location) bool {
	if loc == model.LocationUnclassified {
		return true
	}
	return len(loc) > 3 && loc[:3] == "cz_"
}
