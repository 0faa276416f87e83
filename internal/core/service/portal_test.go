package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/storage"
	"github.com/gophercraft/gcportal-go/internal/telemetry/metric"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func domainCredential(username, token string) domain.Credential {
	return domain.Credential{Username: username, Token: token}
}

func TestPortal_ErrorMessageIsExact(t *testing.T) {
	const msg = "Incorrect username or password"

	api := newMockAPI(t)
	routes := []string{
		"GET register", "POST register", "GET version", "GET login", "POST login",
		"GET credential", "GET logout", "GET account", "PUT game_account",
		"POST game_account/1/activate", "POST game_account/1/rename", "DELETE game_account/1",
		"GET realm/status", "GET service_addresses", "GET 2fa/methods",
		"POST 2fa/authenticate", "POST 2fa/enroll",
	}
	for _, r := range routes {
		status := http.StatusOK
		if r == "GET account" {
			status = http.StatusUnauthorized
		}
		func(status int) {
			api.handle(r, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				w.Write([]byte(`{"error_message":"` + msg + `"}`))
			})
		}(status)
	}

	p, store := newTestPortal(t, api)
	saveCredential(t, store, "arthas", "tok")
	ctx := context.Background()

	ops := map[string]func() error{
		"RegistrationChallenge": func() error { _, err := p.RegistrationChallenge(ctx); return err },
		"Register":              func() error { _, err := p.Register(ctx, domain.RegistrationRequest{}); return err },
		"VersionInfo":           func() error { _, err := p.VersionInfo(ctx); return err },
		"LoginChallenge":        func() error { _, err := p.LoginChallenge(ctx); return err },
		"Login":                 func() error { _, err := p.Login(ctx, domain.LoginRequest{Username: "x"}); return err },
		"CheckCredential":       func() error { _, err := p.CheckCredential(ctx); return err },
		"Logout":                func() error { _, err := p.Logout(ctx); return err },
		"CheckAccount":          func() error { _, err := p.CheckAccount(ctx); return err },
		"NewGameAccount":        func() error { _, err := p.NewGameAccount(ctx, domain.NewGameAccountRequest{Name: "a"}); return err },
		"ActivateGameAccount":   func() error { _, err := p.ActivateGameAccount(ctx, "1"); return err },
		"RenameGameAccount": func() error {
			_, err := p.RenameGameAccount(ctx, "1", domain.RenameGameAccountRequest{Name: "b"})
			return err
		},
		"DeleteGameAccount": func() error { _, err := p.DeleteGameAccount(ctx, "1"); return err },
		"RealmStatusList":   func() error { _, err := p.RealmStatusList(ctx); return err },
		"ServiceAddresses":  func() error { _, err := p.ServiceAddresses(ctx); return err },
		"TwoFactorMethods":  func() error { _, err := p.TwoFactorAuthenticationMethods(ctx); return err },
		"AuthenticateCredential": func() error {
			_, err := p.AuthenticateCredential(ctx, domain.AuthenticateCredentialRequest{})
			return err
		},
		"Enroll2FA": func() error { _, err := p.Enroll2FA(ctx, domain.EnrollTwoFactorAuthenticationRequest{}); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != msg {
				t.Errorf("Error() = %q, want %q", err.Error(), msg)
			}
			if !errors.Is(err, domain.ErrApplication) {
				t.Errorf("expected application error kind, got %q", domain.KindOf(err))
			}
		})
	}

	// No failing call may have touched the stored credential.
	cred, ok, err := p.Credential(ctx)
	if err != nil || !ok || cred.Token != "tok" {
		t.Errorf("credential after failures = %+v, %v, %v", cred, ok, err)
	}
}

func TestPortal_CheckCredential_NoCredential(t *testing.T) {
	api := newMockAPI(t)
	api.json("GET credential", `{"status":"authenticated"}`)
	p, _ := newTestPortal(t, api)

	notified := 0
	p.OnStateChange(func(domain.State) { notified++ })

	status, err := p.CheckCredential(context.Background())
	if err != nil {
		t.Fatalf("CheckCredential() error = %v", err)
	}
	if *status != (domain.CredentialStatus{}) {
		t.Errorf("status = %+v, want empty", status)
	}
	if n := len(api.calls()); n != 0 {
		t.Errorf("network calls = %d, want 0", n)
	}
	if notified != 0 {
		t.Errorf("listeners notified %d times, want 0", notified)
	}
	if p.State() != domain.StateUnauthenticated {
		t.Errorf("State() = %v", p.State())
	}
}

func TestPortal_CheckCredential_Transitions(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantState   domain.State
		wantDeleted bool
	}{
		{"authenticated", `{"status":"authenticated"}`, domain.StateAuthenticated, false},
		{"authenticated upper case", `{"status":"AUTHENTICATED"}`, domain.StateAuthenticated, false},
		{"logged out", `{"status":"logged out"}`, domain.StateUnauthenticated, true},
		{"logged out enum", `{"status":"LOGGED_OUT"}`, domain.StateUnauthenticated, true},
		{"pending 2fa", `{"status":"need two factor authentication"}`, domain.StateUnauthenticated, false},
		{"legacy valid", `{"credential_is_valid":true}`, domain.StateAuthenticated, false},
		{"legacy invalid", `{"credential_is_valid":false}`, domain.StateUnauthenticated, true},
		{"empty", `{}`, domain.StateUnauthenticated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMockAPI(t)
			api.json("GET credential", tt.body)
			p, store := newTestPortal(t, api)
			saveCredential(t, store, "arthas", "tok")

			var got []domain.State
			p.OnStateChange(func(s domain.State) { got = append(got, s) })

			if _, err := p.CheckCredential(context.Background()); err != nil {
				t.Fatalf("CheckCredential() error = %v", err)
			}
			if len(got) != 1 || got[0] != tt.wantState {
				t.Errorf("transitions = %v, want [%v]", got, tt.wantState)
			}
			if p.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", p.State(), tt.wantState)
			}
			deleted := store.Raw() == nil
			if deleted != tt.wantDeleted {
				t.Errorf("credential deleted = %v, want %v", deleted, tt.wantDeleted)
			}
			if calls := api.calls(); len(calls) != 1 || calls[0].Credential != "tok" {
				t.Errorf("calls = %+v, want one call carrying the token", calls)
			}
		})
	}
}

func TestPortal_CheckCredential_TransportError(t *testing.T) {
	api := newMockAPI(t)
	p, store := newTestPortal(t, api)
	saveCredential(t, store, "arthas", "tok")

	notified := false
	p.OnStateChange(func(domain.State) { notified = true })

	_, err := p.CheckCredential(context.Background())
	if err == nil || err.Error() != "Not Found" {
		t.Fatalf("CheckCredential() error = %v, want Not Found", err)
	}
	if notified {
		t.Error("state changed on error")
	}
	if store.Raw() == nil {
		t.Error("credential deleted on error")
	}
}

func TestPortal_CheckCredential_Corrupt(t *testing.T) {
	api := newMockAPI(t)
	p, store := newTestPortal(t, api)
	store.SetRaw([]byte("not json"))

	_, err := p.CheckCredential(context.Background())
	if !domain.IsKind(err, domain.KindStorage) {
		t.Errorf("error = %v, want storage error", err)
	}
	if n := len(api.calls()); n != 0 {
		t.Errorf("network calls = %d, want 0", n)
	}
}

func TestPortal_Login_StoresCredential(t *testing.T) {
	api := newMockAPI(t)
	api.json("POST login", `{"web_token":"Zm9vYmFy+/=é"}`)
	p, store := newTestPortal(t, api)

	notified := false
	p.OnStateChange(func(domain.State) { notified = true })

	resp, err := p.Login(context.Background(), domain.LoginRequest{
		Username:        "Arthas",
		Password:        "frostmourne",
		CaptchaID:       "c1",
		CaptchaSolution: "x7k2",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.WebToken != "Zm9vYmFy+/=é" {
		t.Errorf("WebToken = %q", resp.WebToken)
	}

	cred, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred != (domain.Credential{Username: "Arthas", Token: "Zm9vYmFy+/=é"}) {
		t.Errorf("stored credential = %+v", cred)
	}
	if notified || p.State() != domain.StateUnauthenticated {
		t.Error("Login must not change state")
	}

	calls := api.calls()
	if len(calls) != 1 || calls[0].Credential != "" {
		t.Errorf("login call = %+v, want no credential header", calls)
	}
}

func TestPortal_Login_FailureKeepsStore(t *testing.T) {
	api := newMockAPI(t)
	api.json("POST login", `{"error_message":"Invalid captcha solution"}`)
	p, store := newTestPortal(t, api)

	if _, err := p.Login(context.Background(), domain.LoginRequest{Username: "arthas"}); err == nil {
		t.Fatal("expected error")
	}
	if store.Raw() != nil {
		t.Error("credential stored after failed login")
	}
}

func TestPortal_Register_NoSideEffects(t *testing.T) {
	api := newMockAPI(t)
	api.json("POST register", `{"web_token":"ignored"}`)
	p, store := newTestPortal(t, api)

	notified := false
	p.OnStateChange(func(domain.State) { notified = true })

	if _, err := p.Register(context.Background(), domain.RegistrationRequest{Username: "jaina"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if store.Raw() != nil {
		t.Error("Register stored a credential")
	}
	if notified {
		t.Error("Register changed state")
	}
}

func TestPortal_Logout(t *testing.T) {
	api := newMockAPI(t)
	api.json("GET logout", `{}`)
	p, store := newTestPortal(t, api)

	// A hand-edited record that Login would never have written.
	store.SetRaw([]byte(`{"username":"someone-else","token":"edited","extra":1}`))
	p.SetState(domain.StateAuthenticated)

	var got []domain.State
	p.OnStateChange(func(s domain.State) { got = append(got, s) })

	if _, err := p.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if store.Raw() != nil {
		t.Error("credential not removed")
	}
	if len(got) != 1 || got[0] != domain.StateUnauthenticated {
		t.Errorf("transitions = %v", got)
	}
	if calls := api.calls(); calls[0].Credential != "edited" {
		t.Errorf("logout sent credential %q, want edited", calls[0].Credential)
	}
}

func TestPortal_Logout_FailureKeepsCredential(t *testing.T) {
	api := newMockAPI(t)
	api.handle("GET logout", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	p, store := newTestPortal(t, api)
	saveCredential(t, store, "arthas", "tok")
	p.SetState(domain.StateAuthenticated)

	_, err := p.Logout(context.Background())
	if err == nil || err.Error() != "Internal Server Error" {
		t.Fatalf("Logout() error = %v", err)
	}
	if store.Raw() == nil {
		t.Error("credential removed on failure")
	}
	if p.State() != domain.StateAuthenticated {
		t.Error("state changed on failure")
	}
}

func TestPortal_SetState_Listeners(t *testing.T) {
	p := NewPortal(nil, storage.NewMemoryStore())

	var order []string
	sub1 := p.OnStateChange(func(s domain.State) { order = append(order, "first:"+s.String()) })
	p.OnStateChange(func(s domain.State) { order = append(order, "second:"+s.String()) })
	p.OnStateChange(func(s domain.State) { order = append(order, "third:"+s.String()) })

	p.SetState(domain.StateAuthenticated)
	p.SetState(domain.StateAuthenticated)

	want := []string{
		"first:authenticated", "second:authenticated", "third:authenticated",
		"first:authenticated", "second:authenticated", "third:authenticated",
	}
	if len(order) != len(want) {
		t.Fatalf("notifications = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, order[i], want[i])
		}
	}

	order = nil
	sub1.Unsubscribe()
	sub1.Unsubscribe()
	p.SetState(domain.StateUnauthenticated)
	if len(order) != 2 || order[0] != "second:unauthenticated" || order[1] != "third:unauthenticated" {
		t.Errorf("after unsubscribe = %v", order)
	}
}

func TestPortal_SetState_ListenerMayUnsubscribe(t *testing.T) {
	p := NewPortal(nil, storage.NewMemoryStore())

	calls := 0
	var sub *Subscription
	sub = p.OnStateChange(func(domain.State) {
		calls++
		sub.Unsubscribe()
	})
	other := 0
	p.OnStateChange(func(domain.State) { other++ })

	p.SetState(domain.StateAuthenticated)
	p.SetState(domain.StateAuthenticated)

	if calls != 1 || other != 2 {
		t.Errorf("calls = %d, other = %d; want 1, 2", calls, other)
	}
}

func TestPortal_SetState_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	p := NewPortal(nil, storage.NewMemoryStore(), WithMetrics(reg))

	p.SetState(domain.StateAuthenticated)
	p.SetState(domain.StateUnauthenticated)
	p.SetState(domain.StateUnauthenticated)

	if got := testutil.ToFloat64(reg.StateTransitions.WithLabelValues("unauthenticated")); got != 2 {
		t.Errorf("unauthenticated transitions = %v, want 2", got)
	}
}

func TestPortal_VersionInfo_Cached(t *testing.T) {
	api := newMockAPI(t)
	api.json("GET version", `{"core_version":"0.4.0","brand":"Gophercraft","project_url":"https://github.com/Gophercraft/core"}`)
	p, _ := newTestPortal(t, api)
	ctx := context.Background()

	first, err := p.VersionInfo(ctx)
	if err != nil {
		t.Fatalf("VersionInfo() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.VersionInfo(ctx)
			if err != nil || *v != *first {
				t.Errorf("VersionInfo() = %+v, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if n := api.countCalls("GET version"); n != 1 {
		t.Errorf("version requests = %d, want 1", n)
	}
	if first.Brand != "Gophercraft" || first.CoreVersion != "0.4.0" {
		t.Errorf("VersionInfo() = %+v", first)
	}
}

func TestPortal_VersionInfo_FailureNotCached(t *testing.T) {
	api := newMockAPI(t)
	p, _ := newTestPortal(t, api)
	ctx := context.Background()

	if _, err := p.VersionInfo(ctx); err == nil {
		t.Fatal("expected error before route exists")
	}
	api.json("GET version", `{"core_version":"1","brand":"b","project_url":"u"}`)
	if _, err := p.VersionInfo(ctx); err != nil {
		t.Fatalf("VersionInfo() error = %v", err)
	}
	if n := api.countCalls("GET version"); n != 2 {
		t.Errorf("version requests = %d, want 2", n)
	}
}

func TestPortal_GameAccounts(t *testing.T) {
	api := newMockAPI(t)
	api.json("GET account", `{"username":"arthas","account_id":"7","account_tier":"GAME_MASTER",
		"game_accounts":[{"id":"1","name":"Main","active":true},{"id":"2","name":"Alt","active":false}]}`)
	api.json("PUT game_account", `{"id":"3"}`)
	api.json("POST game_account/2/activate", `{}`)
	api.json("POST game_account/2/rename", `{}`)
	api.json("DELETE game_account/2", `{}`)
	p, store := newTestPortal(t, api)
	saveCredential(t, store, "arthas", "tok")
	ctx := context.Background()

	acct, err := p.CheckAccount(ctx)
	if err != nil {
		t.Fatalf("CheckAccount() error = %v", err)
	}
	if acct.Title() != "arthas#7" || acct.AccountTier.DisplayName() != "game master" {
		t.Errorf("account = %+v", acct)
	}
	if active, ok := acct.ActiveGameAccount(); !ok || active.Label() != "Main#1" {
		t.Errorf("ActiveGameAccount() = %+v, %v", active, ok)
	}

	created, err := p.NewGameAccount(ctx, domain.NewGameAccountRequest{Name: "Bank"})
	if err != nil || created.ID != "3" {
		t.Fatalf("NewGameAccount() = %+v, %v", created, err)
	}
	if _, err := p.ActivateGameAccount(ctx, "2"); err != nil {
		t.Fatalf("ActivateGameAccount() error = %v", err)
	}
	if _, err := p.RenameGameAccount(ctx, "2", domain.RenameGameAccountRequest{Name: "Alt2"}); err != nil {
		t.Fatalf("RenameGameAccount() error = %v", err)
	}
	if _, err := p.DeleteGameAccount(ctx, "2"); err != nil {
		t.Fatalf("DeleteGameAccount() error = %v", err)
	}

	calls := api.calls()
	if len(calls) != 5 {
		t.Fatalf("calls = %d, want 5", len(calls))
	}
	for _, c := range calls {
		if c.Credential != "tok" {
			t.Errorf("%s %s sent credential %q", c.Method, c.Path, c.Credential)
		}
	}
	if calls[1].Body != `{"name":"Bank"}` {
		t.Errorf("new game account body = %s", calls[1].Body)
	}
	if calls[3].Body != `{"name":"Alt2"}` {
		t.Errorf("rename body = %s", calls[3].Body)
	}
}

func TestPortal_InfoEndpoints(t *testing.T) {
	api := newMockAPI(t)
	api.json("GET realm/status", `{"realms":[{"id":"1","name":"Lordaeron","online":true,"build":"1.12.1.5875","expansion":0}]}`)
	api.json("GET service_addresses", `{"addresses":{"grunt":"auth.example.com:3724"}}`)
	api.json("GET 2fa/methods", `{"methods":["TOTP","EMAIL","SMOKE_SIGNAL"]}`)
	api.json("POST 2fa/authenticate", `{"authenticated":true}`)
	api.json("POST 2fa/enroll", `{"enrolled":true}`)
	api.json("GET login", `{"captcha_id":"L1"}`)
	api.json("GET register", `{"email_required":true,"max_username_length":12,"captcha_id":"R1"}`)
	p, _ := newTestPortal(t, api)
	ctx := context.Background()

	realms, err := p.RealmStatusList(ctx)
	if err != nil || len(realms.Realms) != 1 || realms.Realms[0].Label() != "Lordaeron#1" {
		t.Errorf("RealmStatusList() = %+v, %v", realms, err)
	}

	addrs, err := p.ServiceAddresses(ctx)
	if err != nil || addrs.Addresses["grunt"] != "auth.example.com:3724" {
		t.Errorf("ServiceAddresses() = %+v, %v", addrs, err)
	}

	methods, err := p.TwoFactorAuthenticationMethods(ctx)
	if err != nil || len(methods.Known()) != 2 {
		t.Errorf("TwoFactorAuthenticationMethods() = %+v, %v", methods, err)
	}

	auth, err := p.AuthenticateCredential(ctx, domain.AuthenticateCredentialRequest{
		AuthenticatorPassword:         "123456",
		TwoFactorAuthenticationMethod: domain.MethodTOTP,
	})
	if err != nil || !auth.Authenticated {
		t.Errorf("AuthenticateCredential() = %+v, %v", auth, err)
	}

	enrolled, err := p.Enroll2FA(ctx, domain.EnrollTwoFactorAuthenticationRequest{TOTPSecret: "S", TOTPPassword: "123456"})
	if err != nil || !enrolled.Enrolled {
		t.Errorf("Enroll2FA() = %+v, %v", enrolled, err)
	}

	lc, err := p.LoginChallenge(ctx)
	if err != nil || lc.CaptchaID != "L1" {
		t.Errorf("LoginChallenge() = %+v, %v", lc, err)
	}

	rc, err := p.RegistrationChallenge(ctx)
	if err != nil || rc.CaptchaID != "R1" || !rc.EmailRequired {
		t.Errorf("RegistrationChallenge() = %+v, %v", rc, err)
	}
	if _, user, _ := rc.Limits(); user != 12 {
		t.Errorf("username limit = %d, want 12", user)
	}
}

func TestPortal_Captcha(t *testing.T) {
	api := newMockAPI(t)
	api.handle("GET captcha/R1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})
	p, _ := newTestPortal(t, api)

	data, ct, err := p.Captcha(context.Background(), "R1")
	if err != nil {
		t.Fatalf("Captcha() error = %v", err)
	}
	if string(data) != "png-bytes" || ct != "image/png" {
		t.Errorf("Captcha() = %q, %q", data, ct)
	}
}

func TestPortal_Credential(t *testing.T) {
	p := NewPortal(nil, storage.NewMemoryStore())
	ctx := context.Background()

	if _, ok, err := p.Credential(ctx); ok || err != nil {
		t.Errorf("Credential() on empty store = %v, %v", ok, err)
	}

	saveCredential(t, p.store, "thrall", "t")
	cred, ok, err := p.Credential(ctx)
	if !ok || err != nil || cred.Username != "thrall" {
		t.Errorf("Credential() = %+v, %v, %v", cred, ok, err)
	}
}
