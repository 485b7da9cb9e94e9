package enrich

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights holds the additive confidence-model contributions. The final score
// is the clamped sum of the applicable terms.
type Weights struct {
	Scraped            float64 `yaml:"scraped"`              // website or enhanced scraping contributed
	DomainSearch       float64 `yaml:"domain_search"`        // provider-confirmed addresses present
	PatternOnly        float64 `yaml:"pattern_only"`         // pattern generation was the sole contributor
	DomainMatch        float64 `yaml:"domain_match"`         // address domain matches the website
	ProfessionalPrefix float64 `yaml:"professional_prefix"`  // info@, contact@, ...
	SuspiciousPenalty  float64 `yaml:"suspicious_penalty"`   // noreply@, test@, ... (subtracted)
	Threshold          float64 `yaml:"confidence_threshold"` // minimum qualifying score
}

// DefaultWeights returns the compiled-in confidence model.
func DefaultWeights() Weights {
	return Weights{
		Scraped:            0.7,
		DomainSearch:       0.9,
		PatternOnly:        0.4,
		DomainMatch:        0.2,
		ProfessionalPrefix: 0.1,
		SuspiciousPenalty:  0.3,
		Threshold:          0.7,
	}
}

// LoadWeights reads scoring weights from a YAML file. Zero-valued fields
// fall back to the defaults so partial files stay usable.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "enrich: read weights %s", path)
	}

	var wrapper struct {
		Scoring Weights `yaml:"scoring"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Weights{}, eris.Wrap(err, "enrich: parse weights")
	}

	w := wrapper.Scoring
	def := DefaultWeights()
	if w.Scraped == 0 {
		w.Scraped = def.Scraped
	}
	if w.DomainSearch == 0 {
		w.DomainSearch = def.DomainSearch
	}
	if w.PatternOnly == 0 {
		w.PatternOnly = def.PatternOnly
	}
	if w.DomainMatch == 0 {
		w.DomainMatch = def.DomainMatch
	}
	if w.ProfessionalPrefix == 0 {
		w.ProfessionalPrefix = def.ProfessionalPrefix
	}
	if w.SuspiciousPenalty == 0 {
		w.SuspiciousPenalty = def.SuspiciousPenalty
	}
	if w.Threshold == 0 {
		w.Threshold = def.Threshold
	}
	return w, nil
}

var professionalPrefixes = []string{"info@", "contact@", "hello@", "admin@", "office@"}

var suspiciousPatterns = []string{"noreply@", "no-reply@", "test@", "fake@", "admin@gmail.com"}

// ScoredEmail pairs a candidate address with its confidence in [0,1].
type ScoredEmail struct {
	Address    string  `json:"address"`
	Confidence float64 `json:"confidence"`
}

// score computes the confidence for one address. Provenance is tracked at
// the attempt level: contributed holds the methods that produced at least
// one address this attempt, not the origin of this specific address. An
// address surfaced by pattern generation therefore inherits the scraping
// bonus when scraping also contributed.
func (w Weights) score(email, website string, contributed map[MethodName]bool) float64 {
	var conf float64

	if contributed[MethodWebsiteScraping] || contributed[MethodEnhancedScraping] {
		conf += w.Scraped
	}
	if contributed[MethodDomainSearch] {
		conf += w.DomainSearch
	}
	if contributed[MethodPatternGeneration] &&
		!contributed[MethodWebsiteScraping] &&
		!contributed[MethodEnhancedScraping] &&
		!contributed[MethodDomainSearch] {
		conf += w.PatternOnly
	}

	lower := strings.ToLower(email)

	if domain := registrableDomain(website); domain != "" && strings.Contains(lower, domain) {
		conf += w.DomainMatch
	}

	for _, p := range professionalPrefixes {
		if strings.Contains(lower, p) {
			conf += w.ProfessionalPrefix
			break
		}
	}

	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			conf -= w.SuspiciousPenalty
			break
		}
	}

	return min(max(conf, 0.0), 1.0)
}
