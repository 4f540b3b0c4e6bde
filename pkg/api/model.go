package api

// ModelInfo describes one routable model exposed by the gateway.
type ModelInfo struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
	OwnedBy  string `json:"owned_by"`
}
