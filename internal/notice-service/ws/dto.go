package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"` // notice | results
}

// Update é o que chega pelo Redis; Payload segue cru até o cliente
type Update struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}
