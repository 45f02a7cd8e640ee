package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"curio/contexts/marketplace/registry-service/application"
	httptransport "curio/contexts/marketplace/registry-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetOwnerHandler(
	ctx context.Context,
	tokenID uint64,
) (httptransport.OwnerResponse, error) {
	owner, err := h.Service.OwnerOf(ctx, tokenID)
	if err != nil {
		return httptransport.OwnerResponse{}, err
	}
	resp := httptransport.OwnerResponse{Status: "success"}
	resp.Data.TokenID = tokenID
	resp.Data.Owner = owner
	return resp, nil
}

func (h Handler) ListByOwnerHandler(
	ctx context.Context,
	owner string,
) (httptransport.ListOwnershipsResponse, error) {
	items, err := h.Service.ListByOwner(ctx, owner)
	if err != nil {
		return httptransport.ListOwnershipsResponse{}, err
	}
	resp := httptransport.ListOwnershipsResponse{Status: "success"}
	resp.Data.Items = make([]httptransport.OwnershipData, 0, len(items))
	for _, item := range items {
		resp.Data.Items = append(resp.Data.Items, httptransport.OwnershipData{
			TokenID:      item.TokenID,
			Owner:        item.Owner,
			RegisteredAt: item.RegisteredAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) BurnTokenHandler(
	ctx context.Context,
	actorAccountID string,
	tokenID uint64,
) (httptransport.BurnResponse, error) {
	if err := h.Service.Burn(ctx, actorAccountID, tokenID); err != nil {
		return httptransport.BurnResponse{}, err
	}
	resp := httptransport.BurnResponse{Status: "success"}
	resp.Data.TokenID = tokenID
	resp.Data.Burned = true
	return resp, nil
}
