package service

import (
	"context"
	"net/http"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// CheckCredential asks the server about the stored credential and moves
// the session state accordingly.
//
// Without a stored credential it returns an empty status, makes no request
// and leaves the state alone. A "logged out" answer deletes the credential.
func (p *Portal) CheckCredential(ctx context.Context) (*domain.CredentialStatus, error) {
	_, ok, err := p.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &domain.CredentialStatus{}, nil
	}

	var status domain.CredentialStatus
	if err := p.transport.Do(ctx, http.MethodGet, "credential", nil, &status); err != nil {
		return nil, err
	}

	switch status.Condition() {
	case domain.CredentialAuthenticated:
		p.SetState(domain.StateAuthenticated)
	case domain.CredentialLoggedOut:
		if err := p.store.Delete(ctx); err != nil {
			return nil, domain.StorageError(err)
		}
		p.logger.Info("stored credential dropped", "reason", "logged out")
		p.SetState(domain.StateUnauthenticated)
	default:
		p.SetState(domain.StateUnauthenticated)
	}
	return &status, nil
}

// Register submits a registration. It neither stores a credential nor
// changes state.
func (p *Portal) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResponse, error) {
	var resp domain.RegistrationResponse
	if err := p.transport.Do(ctx, http.MethodPost, "register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login submits credentials and stores {username, token} on success.
//
// The session state is not changed; call CheckCredential to establish it.
// After a failure the caller must fetch a fresh LoginChallenge.
func (p *Portal) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := p.transport.Do(ctx, http.MethodPost, "login", req, &resp); err != nil {
		return nil, err
	}

	cred := domain.Credential{Username: req.Username, Token: resp.WebToken}
	if err := p.store.Save(ctx, cred); err != nil {
		return nil, domain.StorageError(err)
	}
	p.logger.Info("credential stored", "username", req.Username)
	return &resp, nil
}

// Logout invalidates the token server-side, then deletes whatever
// credential is stored. On failure the credential is left intact.
func (p *Portal) Logout(ctx context.Context) (*domain.LogoutResponse, error) {
	var resp domain.LogoutResponse
	if err := p.transport.Do(ctx, http.MethodGet, "logout", nil, &resp); err != nil {
		return nil, err
	}
	if err := p.store.Delete(ctx); err != nil {
		return nil, domain.StorageError(err)
	}
	p.SetState(domain.StateUnauthenticated)
	return &resp, nil
}

// LoginChallenge fetches a single-use CAPTCHA id for Login.
func (p *Portal) LoginChallenge(ctx context.Context) (*domain.LoginChallenge, error) {
	var c domain.LoginChallenge
	if err := p.transport.Do(ctx, http.MethodGet, "login", nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// RegistrationChallenge fetches a single-use CAPTCHA id and field limits
// for Register.
func (p *Portal) RegistrationChallenge(ctx context.Context) (*domain.RegistrationChallenge, error) {
	var c domain.RegistrationChallenge
	if err := p.transport.Do(ctx, http.MethodGet, "register", nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Captcha downloads the CAPTCHA image for id.
func (p *Portal) Captcha(ctx context.Context, id string) ([]byte, string, error) {
	return p.transport.Fetch(ctx, "captcha/"+escape(id))
}
