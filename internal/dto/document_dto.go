package dto

type DocumentResponse struct {
	Id               string  `json:"id"`
	Title            string  `json:"title"`
	ChunksCreated    int     `json:"chunks_created"`
	LinksExtracted   int     `json:"links_extracted"`
	ImagesExtracted  int     `json:"images_extracted"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type ProcessTextRequest struct {
	Text  string `json:"text" validate:"required"`
	Title string `json:"title" validate:"max=200"`
}

// DocumentIngestedMessage is the upload-completed signal carried on the
// ingestion bus and, optionally, over NATS.
type DocumentIngestedMessage struct {
	SessionId string           `json:"session_id"`
	Document  DocumentResponse `json:"document"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	QdrantConnected  bool   `json:"qdrant_connected"`
	OpenAIConfigured bool   `json:"openai_configured"`
	CohereConfigured bool   `json:"cohere_configured"`
	Timestamp        string `json:"timestamp"`
}
