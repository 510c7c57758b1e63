// models содержит доменные сущности клиента.
// Эти типы используются слоями API, сессии, лент и CLI; JSON-теги
// соответствуют контракту удалённого REST API.
package models

// User — текущий пользователь (duta).
type User struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	DutaType        string `json:"duta_type"`
	ProfilePhotoURL string `json:"profile_photo_url"`
}

// LoginResult — ответ на успешный вход.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}
