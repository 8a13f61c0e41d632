package messagequeue

// VoiceTranscribeRequestPayload is the schema for voice.transcribe.request.
type VoiceTranscribeRequestPayload struct {
	RequestID string `json:"request_id"`
	AudioURL  string `json:"audio_url"`
	Language  string `json:"language,omitempty"`
}

// VoiceTranscribeResultPayload is the schema for voice.transcribe.result.
type VoiceTranscribeResultPayload struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Error     string `json:"error,omitempty"`
}
