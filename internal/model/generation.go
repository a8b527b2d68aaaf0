package model

// GenerationRequest is the validated, clamped request handed to the
// downstream image generator after admission.
type GenerationRequest struct {
	Title            string
	AspectRatio      string
	OutputCount      int
	Image            []byte
	ImageFilename    string
	ImageContentType string
}

// GeneratedImage is one output of the downstream generator. Providers return
// either inline base64 data or a hosted URL.
type GeneratedImage struct {
	B64JSON string `json:"b64_json,omitempty"`
	URL     string `json:"url,omitempty"`
}
