package websocket

type MessageType string

const (
	MessageTypeIngest MessageType = "ingest"
	MessageTypePing   MessageType = "ping"
	MessageTypePong   MessageType = "pong"
)

// IngestMessage announces one stored file to connected observers.
type IngestMessage struct {
	Type  MessageType `json:"type"`
	Album string      `json:"album"`
	File  string      `json:"file"`
	Size  int64       `json:"size"`
	Time  int64       `json:"time"`
}

type IncomingMessage struct {
	Type MessageType `json:"type"`
}

type OutgoingMessage struct {
	Type MessageType `json:"type"`
}
