package models

// FlowEnvelope is the encrypted request body posted by a WhatsApp Flow
// client. All three fields are base64 encoded.
type FlowEnvelope struct {
	EncryptedFlowData string `json:"encrypted_flow_data" binding:"required"`
	EncryptedAESKey   string `json:"encrypted_aes_key" binding:"required"`
	InitialVector     string `json:"initial_vector" binding:"required"`
}

// FlowRequest is the decrypted flow payload.
type FlowRequest struct {
	Version   string         `json:"version,omitempty"`
	Action    string         `json:"action"`
	Screen    string         `json:"screen,omitempty"`
	FlowToken string         `json:"flow_token,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// FlowDepartment is one selectable counselor entry on the flow's
// selection screen.
type FlowDepartment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}
