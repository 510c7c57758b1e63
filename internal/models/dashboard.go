package models

// Dashboard — сводка для главного экрана.
type Dashboard struct {
	PendingCount           int    `json:"pending_count"`
	RejectedCountThisMonth int    `json:"rejected_count_this_month"`
	TotalVerifiedThisMonth Amount `json:"total_verified_this_month"`
}

// Option — элемент справочника (программа, обращение, способ оплаты).
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MasterData — справочники для формы новой донации.
type MasterData struct {
	Programs       []Option `json:"programs"`
	Salutations    []Option `json:"salutations,omitempty"`
	PaymentMethods []Option `json:"payment_methods,omitempty"`
}
