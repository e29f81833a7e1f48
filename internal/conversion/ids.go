package conversion

import (
	"github.com/google/uuid"
)

// IDGenerator produces the resource ids used as bundle fullUrls.
type IDGenerator interface {
	// ResourceID derives the id for one resource. messageID is the
	// MSH-10 control id, key a natural key for the resource within the
	// message (an identifier value, or a positional key when the
	// segment carries none).
	ResourceID(messageID, resourceType, key string) string

	// BundleID derives the id of the bundle itself.
	BundleID(messageID string) string
}

// idNamespace seeds the name-based uuids so that ids are stable across
// processes and releases.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:fhirhub:conversion"))

// deterministicIDs derives uuids from the message control id, so that
// replaying a message yields byte-identical bundles and downstream
// stores can deduplicate on resource id.
type deterministicIDs struct{}

// DeterministicIDs returns the default id generator.
func DeterministicIDs() IDGenerator { return deterministicIDs{} }

func (deterministicIDs) ResourceID(messageID, resourceType, key string) string {
	return uuid.NewSHA1(idNamespace, []byte(messageID+"/"+resourceType+"/"+key)).String()
}

func (deterministicIDs) BundleID(messageID string) string {
	return uuid.NewSHA1(idNamespace, []byte(messageID+"/Bundle")).String()
}

// randomIDs mints a fresh uuid per resource. Kept for callers that
// feed the same control id from distinct messages and cannot tolerate
// id collisions.
type randomIDs struct{}

// RandomIDs returns a generator that ignores the message identity.
func RandomIDs() IDGenerator { return randomIDs{} }

func (randomIDs) ResourceID(string, string, string) string { return uuid.New().String() }
func (randomIDs) BundleID(string) string                   { return uuid.New().String() }
