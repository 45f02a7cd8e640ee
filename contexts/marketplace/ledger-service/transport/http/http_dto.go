package http

// Monetary fields travel as decimal strings so 256-bit amounts survive JSON.

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MintTokenRequest struct {
	ContentURI string `json:"content_uri"`
	RoyaltyPct uint8  `json:"royalty_pct"`
	Payment    string `json:"payment"`
}

type MintTokenResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID    uint64 `json:"token_id"`
		ContentURI string `json:"content_uri"`
		Price      string `json:"price"`
		RoyaltyPct uint8  `json:"royalty_pct"`
		Owner      string `json:"owner"`
		MintedAt   string `json:"minted_at"`
	} `json:"data"`
}

type TokenData struct {
	TokenID    uint64 `json:"token_id"`
	ContentURI string `json:"content_uri"`
	Price      string `json:"price"`
	RoyaltyPct uint8  `json:"royalty_pct"`
	Sold       bool   `json:"sold"`
	Owner      string `json:"owner"`
	MintedBy   string `json:"minted_by"`
	MintedAt   string `json:"minted_at"`
	UpdatedAt  string `json:"updated_at"`
}

type TokenResponse struct {
	Status string    `json:"status"`
	Data   TokenData `json:"data"`
}

type ListTokensResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items      []TokenData `json:"items"`
		NextCursor string      `json:"next_cursor,omitempty"`
	} `json:"data"`
}

type SetPriceRequest struct {
	Price string `json:"price"`
}

type PriceResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID uint64 `json:"token_id"`
		Price   string `json:"price"`
	} `json:"data"`
}

type RoyaltyResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID    uint64 `json:"token_id"`
		RoyaltyPct uint8  `json:"royalty_pct"`
	} `json:"data"`
}

type PurchaseTokenRequest struct {
	Payment string `json:"payment"`
}

type PurchaseTokenResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID        uint64 `json:"token_id"`
		Seller         string `json:"seller"`
		Buyer          string `json:"buyer"`
		RoyaltyPaid    string `json:"royalty_paid"`
		SellerProceeds string `json:"seller_proceeds"`
		SoldAt         string `json:"sold_at"`
	} `json:"data"`
}

type StartAuctionRequest struct {
	StartPrice      string `json:"start_price"`
	DurationSeconds int64  `json:"duration_seconds"`
}

type AuctionResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID       uint64 `json:"token_id"`
		HighestBidder string `json:"highest_bidder,omitempty"`
		HighestBid    string `json:"highest_bid"`
		StartPrice    string `json:"start_price"`
		StartedAt     string `json:"started_at"`
		EndsAt        string `json:"ends_at"`
	} `json:"data"`
}

type PlaceBidRequest struct {
	Amount string `json:"amount"`
}

type PlaceBidResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID        uint64 `json:"token_id"`
		HighestBidder  string `json:"highest_bidder"`
		HighestBid     string `json:"highest_bid"`
		RefundedBidder string `json:"refunded_bidder,omitempty"`
		RefundedAmount string `json:"refunded_amount,omitempty"`
		EndsAt         string `json:"ends_at"`
	} `json:"data"`
}

type SettleAuctionResponse struct {
	Status string `json:"status"`
	Data   struct {
		TokenID    uint64 `json:"token_id"`
		Seller     string `json:"seller"`
		Winner     string `json:"winner,omitempty"`
		WinningBid string `json:"winning_bid"`
		HadBids    bool   `json:"had_bids"`
		Sold       bool   `json:"sold"`
	} `json:"data"`
}

type WithdrawResponse struct {
	Status string `json:"status"`
	Data   struct {
		AccountID string `json:"account_id"`
		Amount    string `json:"amount"`
	} `json:"data"`
}

type DepositRequest struct {
	Amount string `json:"amount"`
}

type BalanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		AccountID string `json:"account_id"`
		Balance   string `json:"balance"`
	} `json:"data"`
}

type EventData struct {
	Sequence     uint64 `json:"sequence"`
	EventType    string `json:"event_type"`
	TokenID      uint64 `json:"token_id"`
	Actor        string `json:"actor,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
	Amount       string `json:"amount"`
	OccurredAt   string `json:"occurred_at"`
}

type ListEventsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items []EventData `json:"items"`
	} `json:"data"`
}
