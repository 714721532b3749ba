package models

type ChatRequest struct {
	UserID              string    `json:"user_id" validate:"required,notblank"`
	Message             string    `json:"message" validate:"required,notblank"`
	ConversationHistory []Message `json:"conversation_history"`
}

type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	UserName string `json:"user_name"`
}

type ReportRequest struct {
	UserID    string            `json:"user_id" validate:"required,notblank"`
	Responses map[string]string `json:"responses"`
}

type ReportResponse struct {
	Success  bool   `json:"success"`
	Report   string `json:"report"`
	UserName string `json:"user_name"`
}

type UserResponse struct {
	Success  bool    `json:"success"`
	UserData Profile `json:"user_data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
