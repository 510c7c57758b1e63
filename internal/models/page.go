package models

// Page — одна загруженная страница ленты в нормализованном виде.
//
// Особенности:
//   - Number начинается с 1;
//   - Items в порядке сервера (обычно по убыванию created_at);
//   - HasMore == false означает конец данных для текущего запроса.
type Page[T any] struct {
	Number  int
	Items   []T
	HasMore bool
}
