package domain

// UploadStatus tracks the lifecycle of a single document upload attempt.
type UploadStatus int

const (
	// UploadIdle means no upload is running for the selected file.
	UploadIdle UploadStatus = iota
	// UploadInFlight means a request is outstanding; new attempts are ignored.
	UploadInFlight
	// UploadSucceeded means the backend accepted and indexed the file.
	UploadSucceeded
	// UploadFailed means the attempt failed; the file is kept for retry.
	UploadFailed
)

// String returns a short label for logging and display.
func (s UploadStatus) String() string {
	switch s {
	case UploadIdle:
		return "idle"
	case UploadInFlight:
		return "uploading"
	case UploadSucceeded:
		return "succeeded"
	case UploadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadAttempt is the currently selected file and the state of its upload.
type UploadAttempt struct {
	Name   string
	Data   []byte
	Status UploadStatus
	Notice string
}

// HasFile reports whether a file has been selected.
func (a UploadAttempt) HasFile() bool {
	return a.Name != "" && len(a.Data) > 0
}
