package fileclient

// Ответы внешних сервисов (snake_case, неизвестные поля игнорируются).

// listResponse — {success, items:[{id, name}]}.
type listResponse struct {
	Success bool       `json:"success"`
	Items   []listItem `json:"items"`
}

// listItem — элемент списка. Указатели отличают отсутствующие поля от нулевых.
type listItem struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

// authResponse — {success, token}.
type authResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"` //nolint:gosec // G117: JSON-маппинг ответа аутентификации
}

// errorResponse — {success:false, message}.
type errorResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
}
