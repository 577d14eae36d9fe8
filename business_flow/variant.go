package businessflow

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
)

// VariantToken builds the stable bucketing token for a recipient: the
// lower-cased email, or a composite of contact/organisation identity when the
// email is empty. The token must not depend on anything mutable, otherwise a
// recipient could switch treatment arms between scheduling runs.
func VariantToken(email string, contactID, organisationID *uint, displayName string) string {
	if email != "" {
		return strings.ToLower(email)
	}

	var cid, oid uint
	if contactID != nil {
		cid = *contactID
	}
	if organisationID != nil {
		oid = *organisationID
	}
	return fmt.Sprintf("contact:%d|org:%d|%s", cid, oid, displayName)
}

// AssignVariant deterministically buckets a recipient into an A/B arm.
// Returns nil when the campaign is not an A/B test. SHA-1 is used as a stable
// digest, not for security: the first byte mapped into [0,100) decides the
// arm, so the same recipient+campaign always lands in the same bucket
// regardless of call order.
func AssignVariant(isABTest bool, splitPercentage int, token string) *models.Variant {
	if !isABTest {
		return nil
	}

	digest := sha1.Sum([]byte(token))
	bucket := int(digest[0]) % 100

	if bucket < splitPercentage {
		return utils.ToPtr(models.VariantA)
	}
	return utils.ToPtr(models.VariantB)
}
