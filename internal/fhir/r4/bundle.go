package r4

// Bundle is a FHIR Bundle. The conversion engine emits transaction
// bundles whose entries each carry a fullUrl and an HTTP request.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type,omitempty"`
	Timestamp    string        `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry is one resource in a bundle.
type BundleEntry struct {
	FullURL  string              `json:"fullUrl,omitempty"`
	Resource any                 `json:"resource,omitempty"`
	Request  *BundleEntryRequest `json:"request,omitempty"`
}

// BundleEntryRequest is the intended server interaction for an entry.
type BundleEntryRequest struct {
	Method string `json:"method,omitempty"`
	URL    string `json:"url,omitempty"`
}

// NewTransactionBundle creates an empty transaction bundle.
func NewTransactionBundle(id, timestamp string) *Bundle {
	return &Bundle{
		ResourceType: "Bundle",
		ID:           id,
		Type:         "transaction",
		Timestamp:    timestamp,
	}
}

// AddEntry appends a resource with its fullUrl and a POST request for
// the given resource type.
func (b *Bundle) AddEntry(fullURL string, resource any, resourceType string) {
	b.Entry = append(b.Entry, BundleEntry{
		FullURL:  fullURL,
		Resource: resource,
		Request:  &BundleEntryRequest{Method: "POST", URL: resourceType},
	})
}
