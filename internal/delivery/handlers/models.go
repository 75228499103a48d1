package handlers

import (
	"time"

	"NotifyHub/internal/domain"
)

// NotifyRequest тело запроса отправки пользователю.
type NotifyRequest struct {
	Channels     []string `json:"channels" validate:"omitempty,dive,channel"`
	Subject      string   `json:"subject" validate:"max=255"`
	Message      string   `json:"message" validate:"required,max=4096"`
	ActionText   string   `json:"action_text" validate:"max=64"`
	ActionURL    string   `json:"action_url" validate:"omitempty,url"`
	Dry          bool     `json:"dry"`
	FailSilently bool     `json:"fail_silently"`
	Queue        bool     `json:"queue"`
}

// AnonymousNotifyRequest тело запроса отправки по явным маршрутам.
type AnonymousNotifyRequest struct {
	NotifyRequest
	Routes map[string][]string `json:"routes" validate:"required,min=1,dive,keys,channel,endkeys,min=1,dive,required"`
}

// WelcomeRequest тело запроса приветствия.
type WelcomeRequest struct {
	AppName  string `json:"app_name" validate:"required,max=64"`
	LoginURL string `json:"login_url" validate:"required,url"`
	Dry      bool   `json:"dry"`
}

type NotifyResponse struct {
	NotificationID string   `json:"notification_id"`
	Type           string   `json:"type"`
	Channels       []string `json:"channels"`
	Dry            bool     `json:"dry"`
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func toResponse(n *domain.DatabaseNotification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Data:      n.Data,
		Read:      n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
