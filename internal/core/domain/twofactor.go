// Package domain defines the core domain models for the account portal.
package domain

// PasscodeLength is the number of characters in a 2FA passcode.
const PasscodeLength = 6

// TwoFactorMethod names a second-factor method.
type TwoFactorMethod string

// Known second-factor methods.
const (
	MethodEmail TwoFactorMethod = "EMAIL"
	MethodTOTP  TwoFactorMethod = "TOTP"
)

var (
	methodNames = map[TwoFactorMethod]string{
		MethodEmail: "Email",
		MethodTOTP:  "TOTP Authenticator",
	}
	methodQuestions = map[TwoFactorMethod]string{
		MethodEmail: "Enter the passcode that we sent to your e-mail inbox",
		MethodTOTP:  "Enter the generated six-digit passcode",
	}
)

// DisplayName returns the method's display name, or "" for unknown methods.
func (m TwoFactorMethod) DisplayName() string {
	return methodNames[m]
}

// Question returns the passcode prompt for the method, or "" for unknown methods.
func (m TwoFactorMethod) Question() string {
	return methodQuestions[m]
}

// PasscodeReady reports whether a passcode is complete and should be checked.
func PasscodeReady(passcode string) bool {
	return len(passcode) == PasscodeLength
}

// TwoFactorAuthenticationMethods lists the methods available to the account.
type TwoFactorAuthenticationMethods struct {
	ErrorMessage string            `json:"error_message,omitempty"`
	Methods      []TwoFactorMethod `json:"methods,omitempty"`
}

// Known returns the methods that have a display name, in server order.
func (m *TwoFactorAuthenticationMethods) Known() []TwoFactorMethod {
	var known []TwoFactorMethod
	for _, method := range m.Methods {
		if method.DisplayName() != "" {
			known = append(known, method)
		}
	}
	return known
}

// AuthenticateCredentialRequest submits a passcode for the current credential.
type AuthenticateCredentialRequest struct {
	AuthenticatorPassword         string          `json:"authenticator_password"`
	TwoFactorAuthenticationMethod TwoFactorMethod `json:"two_factor_authentication_method"`
}

// AuthenticateCredentialResponse reports whether the passcode was accepted.
type AuthenticateCredentialResponse struct {
	ErrorMessage  string `json:"error_message,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// EnrollTwoFactorAuthenticationRequest enrolls a TOTP secret.
type EnrollTwoFactorAuthenticationRequest struct {
	TOTPSecret   string `json:"totp_secret"`
	TOTPPassword string `json:"totp_password"`
}

// EnrollTwoFactorAuthenticationResponse reports whether enrollment succeeded.
type EnrollTwoFactorAuthenticationResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
	Enrolled     bool   `json:"enrolled"`
}
