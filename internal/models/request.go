package models

type GenerateRequest struct {
	Prompt      string `json:"prompt" binding:"required" example:"Site para uma padaria artesanal em Lisboa"`
	ProjectType string `json:"project_type,omitempty" example:"landing_page"`
	// Optional: reuse a conversation that has no generated version yet
	ConversationID string `json:"conversation_id,omitempty"`
}

type ModifyRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Instruction    string `json:"instruction" binding:"required" example:"adicionar botão do WhatsApp"`
}

type CreateLeadRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company,omitempty"`
}

type CheckEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
