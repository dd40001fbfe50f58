package media

// VideoDTO: результат загрузки. ObjectKey кладётся в videoFile упражнения.
type VideoDTO struct {
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// VideoURLResponse: ответ для GET /v1/media/videos/url
type VideoURLResponse struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
	// ExpiresIn is set for presigned URLs only.
	ExpiresIn int `json:"expires_in,omitempty"`
}
