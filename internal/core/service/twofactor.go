package service

import (
	"context"
	"net/http"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// TwoFactorAuthenticationMethods lists the methods the account can use.
func (p *Portal) TwoFactorAuthenticationMethods(ctx context.Context) (*domain.TwoFactorAuthenticationMethods, error) {
	var methods domain.TwoFactorAuthenticationMethods
	if err := p.transport.Do(ctx, http.MethodGet, "2fa/methods", nil, &methods); err != nil {
		return nil, err
	}
	return &methods, nil
}

// AuthenticateCredential verifies a passcode for the stored credential.
// Front ends submit once exactly domain.PasscodeLength characters are entered.
func (p *Portal) AuthenticateCredential(ctx context.Context, req domain.AuthenticateCredentialRequest) (*domain.AuthenticateCredentialResponse, error) {
	var resp domain.AuthenticateCredentialResponse
	if err := p.transport.Do(ctx, http.MethodPost, "2fa/authenticate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Enroll2FA enrolls a TOTP secret, confirmed by a current passcode.
func (p *Portal) Enroll2FA(ctx context.Context, req domain.EnrollTwoFactorAuthenticationRequest) (*domain.EnrollTwoFactorAuthenticationResponse, error) {
	var resp domain.EnrollTwoFactorAuthenticationResponse
	if err := p.transport.Do(ctx, http.MethodPost, "2fa/enroll", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
