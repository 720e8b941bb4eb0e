package dto

import "ai-reading-be/internal/model"

type NotificationListResponse struct {
	Items []model.Notification `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
