package response

const (
	ReportStatusReceived   = "RECEIVED"
	ReportStatusInProgress = "INPROGRESS"
	ReportStatusReady      = "READY"
	ReportStatusError      = "ERROR"
)

// ReportRequest describes an on-request report, both on creation and when polled.
type ReportRequest struct {
	RequestID             string `json:"requestId"`
	RequestStatus         string `json:"requestStatus"`
	ReportType            string `json:"reportType"`
	ReportVersion         string `json:"reportVersion"`
	RequestSubmissionDate string `json:"requestSubmissionDate"`
}

type ReportDownload struct {
	RequestID                 string `json:"requestId"`
	RequestStatus             string `json:"requestStatus"`
	DownloadURL               string `json:"downloadURL"`
	DownloadURLExpirationTime string `json:"downloadURLExpirationTime"`
}
