package planfmt

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"

	"github.com/roach88/scorestream/internal/plan"
)

// Domain prefixes for plan fingerprints. The version suffix allows the
// rendering to change without colliding with old fingerprints.
const (
	DomainRule = "scorestream/rule/v1"
	DomainPlan = "scorestream/plan/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the hex SHA-256 of the rendering of rule.
func Fingerprint(rule *plan.Rule) (string, error) {
	text, err := Render(rule)
	if err != nil {
		return "", errors.Wrap(err, "Fingerprint")
	}
	return hashWithDomain(DomainRule, []byte(text)), nil
}

// PlanHash fingerprints an ordered set of rules. Reordering the rules
// changes the hash, since the engine evaluates them in order.
func PlanHash(rules []*plan.Rule) (string, error) {
	var data []byte
	for i, rule := range rules {
		fp, err := Fingerprint(rule)
		if err != nil {
			return "", errors.Wrapf(err, "PlanHash: rule #%d", i)
		}
		data = append(data, fp...)
		data = append(data, 0x00)
	}
	return hashWithDomain(DomainPlan, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the rule is known to be valid.
func MustFingerprint(rule *plan.Rule) string {
	fp, err := Fingerprint(rule)
	if err != nil {
		panic(err)
	}
	return fp
}
