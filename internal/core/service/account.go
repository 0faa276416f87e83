package service

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// Game account mutations return only the server's answer. Callers re-fetch
// CheckAccount afterwards instead of patching a cached AccountStatus.

// CheckAccount fetches the account and its game accounts.
func (p *Portal) CheckAccount(ctx context.Context) (*domain.AccountStatus, error) {
	var status domain.AccountStatus
	if err := p.transport.Do(ctx, http.MethodGet, "account", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// NewGameAccount creates a game account.
func (p *Portal) NewGameAccount(ctx context.Context, req domain.NewGameAccountRequest) (*domain.NewGameAccountResponse, error) {
	var resp domain.NewGameAccountResponse
	if err := p.transport.Do(ctx, http.MethodPut, "game_account", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActivateGameAccount makes id the active game account.
func (p *Portal) ActivateGameAccount(ctx context.Context, id string) (*domain.GameAccountResponse, error) {
	return p.gameAccountCall(ctx, http.MethodPost, "game_account/"+escape(id)+"/activate", nil)
}

// RenameGameAccount renames game account id.
func (p *Portal) RenameGameAccount(ctx context.Context, id string, req domain.RenameGameAccountRequest) (*domain.GameAccountResponse, error) {
	return p.gameAccountCall(ctx, http.MethodPost, "game_account/"+escape(id)+"/rename", req)
}

// DeleteGameAccount deletes game account id.
func (p *Portal) DeleteGameAccount(ctx context.Context, id string) (*domain.GameAccountResponse, error) {
	return p.gameAccountCall(ctx, http.MethodDelete, "game_account/"+escape(id), nil)
}

func (p *Portal) gameAccountCall(ctx context.Context, method, path string, body any) (*domain.GameAccountResponse, error) {
	var resp domain.GameAccountResponse
	if err := p.transport.Do(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
