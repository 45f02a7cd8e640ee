package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OwnerResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID uint64 `json:"token_id"`
		Owner   string `json:"owner"`
	} `json:"data"`
}

type OwnershipData struct {
	TokenID      uint64 `json:"token_id"`
	Owner        string `json:"owner"`
	RegisteredAt string `json:"registered_at"`
}

type ListOwnershipsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items []OwnershipData `json:"items"`
	} `json:"data"`
}

type BurnResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID uint64 `json:"token_id"`
		Burned  bool   `json:"burned"`
	} `json:"data"`
}
