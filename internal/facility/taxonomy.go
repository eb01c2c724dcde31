package facility

import (
	"regexp"
	"slices"
	"strings"
)

// Facility kinds reported by Classify.
const (
	KindGeneralAcute      = "general acute care hospital"
	KindCriticalAccess    = "critical access hospital"
	KindRehabilitation    = "rehabilitation hospital"
	KindPsychiatric       = "psychiatric hospital"
	KindLTAC              = "ltac hospital"
	KindLTC               = "ltc facility"
	KindSNF               = "skilled nursing facility"
	KindOncology          = "oncology clinic/center"
	KindRadiationOncology = "radiation oncology clinic/center"
	KindUnknown           = "unknown"
)

// taxonomyCodes maps NUCC taxonomy codes straight to a kind.
var taxonomyCodes = map[string]string{
	"282N00000X": KindGeneralAcute,
	"282NC0060X": KindCriticalAccess,
	"282E00000X": KindLTAC,
	"283X00000X": KindRehabilitation,
	"283Q00000X": KindPsychiatric,
	"281P00000X": KindGeneralAcute, // chronic disease hospital

	"282NR1301X": KindGeneralAcute, // rural acute care
	"282NC2000X": KindGeneralAcute, // children's
	"282NW0100X": KindGeneralAcute, // women's

	"314000000X": KindSNF,
	"313M00000X": KindLTC,
	"310400000X": KindLTC, // assisted living
	"310500000X": KindLTC, // alzheimer center
	"311Z00000X": KindLTC, // custodial care

	"261QX0200X": KindOncology,
	"261QX0203X": KindRadiationOncology,
}

// taxonomyKeywords is consulted in order when a code is not mapped; the
// first match wins. Radiation oncology must precede plain oncology.
var taxonomyKeywords = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?i)\bradiation\s+oncology\b`), KindRadiationOncology},
	{regexp.MustCompile(`(?i)\boncology\b`), KindOncology},

	{regexp.MustCompile(`(?i)\bskilled\s+nursing\b`), KindSNF},
	{regexp.MustCompile(`(?i)\bnursing\s+facility\b`), KindLTC},
	{regexp.MustCompile(`(?i)\bassisted\s+living\b`), KindLTC},
	{regexp.MustCompile(`(?i)\bcustodial\s+care\b`), KindLTC},

	{regexp.MustCompile(`(?i)\blong[-\s]?term\s+care\s+hospital\b`), KindLTAC},
	{regexp.MustCompile(`(?i)\blong[-\s]?term\s+acute\s+care\b`), KindLTAC},

	{regexp.MustCompile(`(?i)\bgeneral\s+acute\s+care\b`), KindGeneralAcute},
	{regexp.MustCompile(`(?i)\bcritical\s+access\b`), KindCriticalAccess},
	{regexp.MustCompile(`(?i)\bpsychiatric\b`), KindPsychiatric},
	{regexp.MustCompile(`(?i)\brehabilitation\b`), KindRehabilitation},
}

// Classify returns the facility kinds implied by a provider's taxonomies,
// in taxonomy order without duplicates. A hospital with any oncology
// taxonomy is also tagged as an oncology clinic/center. When nothing
// matches the result is ["unknown"].
func Classify(p Provider) []string {
	var kinds []string
	var hospital, oncology bool

	add := func(kind string) {
		if !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
		if strings.Contains(kind, "oncology") {
			oncology = true
		}
		if strings.Contains(kind, "hospital") {
			hospital = true
		}
	}

	for _, t := range p.Taxonomies {
		code := strings.ToUpper(t.Code)
		if kind, ok := taxonomyCodes[code]; ok {
			add(kind)
			continue
		}

		desc := t.Desc
		if desc == "" {
			desc = t.TaxonomyGroup
		}
		hay := strings.TrimSpace(code + " " + strings.TrimSpace(desc))
		for _, kw := range taxonomyKeywords {
			if kw.re.MatchString(hay) {
				add(kw.kind)
				break
			}
		}
	}

	if hospital && oncology && !slices.Contains(kinds, KindOncology) {
		kinds = append(kinds, KindOncology)
	}
	if len(kinds) == 0 {
		return []string{KindUnknown}
	}
	return kinds
}
