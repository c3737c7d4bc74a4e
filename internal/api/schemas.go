package api

// PushEnvelope is the push-style delivery wrapper: a base64 payload plus the
// transport's delivery id.
type PushEnvelope struct {
	Message *PushMessage `json:"message"`

	// Raw job fields, present when the caller posts the job directly
	// instead of wrapping it in an envelope.
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	DriveFileID string `json:"driveFileId"`
}

type PushMessage struct {
	Data      string `json:"data"`
	MessageID string `json:"messageId"`
}

// JobRequest is the decoded job description.
type JobRequest struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	DriveFileID string `json:"driveFileId"`
}

// IngestAck acknowledges a delivery that was short-circuited instead of
// processed.
type IngestAck struct {
	Status   string `json:"status"`
	FileName string `json:"fileName,omitempty"`
}

type HealthResponse struct {
	Status              string   `json:"status"`
	Version             string   `json:"version"`
	UptimeS             int64    `json:"uptime_s"`
	QueueLength         int      `json:"queueLength"`
	ProcessedFiles      []string `json:"processedFiles"`
	FailedFiles         []string `json:"failedFiles"`
	ProcessedMessageIDs []string `json:"processedMessageIds"`
}

type RecordsResponse struct {
	Records []RecordResponse `json:"records"`
}

type RecordResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	RawID       string `json:"raw_id"`
	DriveFileID string `json:"drive_file_id,omitempty"`
	Payload     string `json:"payload"`
	CreatedAt   string `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
