package protocol

import "gowalmart_seller/internal/walmart/business/models"

type MessageType string

const (
	TypeSpec             MessageType = "SPEC"
	TypeConnectionStatus MessageType = "CONNECTION_STATUS"
	TypeCatalog          MessageType = "CATALOG"
	TypeRecord           MessageType = "RECORD"
	TypeTrace            MessageType = "TRACE"
	TypeLog              MessageType = "LOG"
)

const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

type SyncMode string

const (
	FullRefresh SyncMode = "full_refresh"
	Incremental SyncMode = "incremental"
)

type StreamStatus string

const (
	StreamStarted    StreamStatus = "STARTED"
	StreamRunning    StreamStatus = "RUNNING"
	StreamComplete   StreamStatus = "COMPLETE"
	StreamIncomplete StreamStatus = "INCOMPLETE"
)

// Message is one line of connector output. Exactly one payload is set.
type Message struct {
	Type             MessageType       `json:"type"`
	Spec             *Spec             `json:"spec,omitempty"`
	ConnectionStatus *ConnectionStatus `json:"connectionStatus,omitempty"`
	Catalog          *Catalog          `json:"catalog,omitempty"`
	Record           *Record           `json:"record,omitempty"`
	Trace            *Trace            `json:"trace,omitempty"`
	Log              *Log              `json:"log,omitempty"`
}

type Spec struct {
	DocumentationURL        string                 `json:"documentationUrl"`
	ConnectionSpecification map[string]interface{} `json:"connectionSpecification"`
	SupportsIncremental     bool                   `json:"supportsIncremental"`
}

type ConnectionStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Catalog struct {
	Streams []CatalogStream `json:"streams"`
}

type CatalogStream struct {
	Name                    string                 `json:"name"`
	JSONSchema              map[string]interface{} `json:"json_schema"`
	SupportedSyncModes      []SyncMode             `json:"supported_sync_modes"`
	SourceDefinedPrimaryKey [][]string             `json:"source_defined_primary_key,omitempty"`
}

type Record struct {
	Stream    string        `json:"stream"`
	Data      models.Record `json:"data"`
	EmittedAt int64         `json:"emitted_at"`
}

type Trace struct {
	Type         string             `json:"type"`
	EmittedAt    int64              `json:"emitted_at"`
	Error        *TraceError        `json:"error,omitempty"`
	StreamStatus *TraceStreamStatus `json:"stream_status,omitempty"`
}

type TraceError struct {
	Message         string `json:"message"`
	InternalMessage string `json:"internal_message,omitempty"`
	FailureType     string `json:"failure_type"`
}

type TraceStreamStatus struct {
	StreamDescriptor StreamDescriptor `json:"stream_descriptor"`
	Status           StreamStatus     `json:"status"`
}

type StreamDescriptor struct {
	Name string `json:"name"`
}

type Log struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
