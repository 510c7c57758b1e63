package service

import "github.com/pribylovaa/duta-client/internal/models"

// Summary — агрегаты по загруженным элементам ленты.
// Считается только по уже загруженным страницам, поэтому при HasMore
// итог частичный.
type Summary struct {
	Count    int                           `json:"count"`
	Total    models.Amount                 `json:"total"`
	ByStatus map[models.DonationStatus]int `json:"by_status"`
}

// Summarize пересчитывает агрегаты по items.
func Summarize(items []models.Donation) Summary {
	sum := Summary{ByStatus: make(map[models.DonationStatus]int)}

	for _, d := range items {
		sum.Count++
		sum.Total += d.Amount
		sum.ByStatus[d.Status]++
	}

	return sum
}

// Take возвращает не более n первых элементов (n < 0 — все).
func Take[T any](items []T, n int) []T {
	if n < 0 || n >= len(items) {
		return items
	}

	return items[:n]
}
