package service

import (
	"context"
	"net/http"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// RealmStatusList fetches the realm list. No credential is required.
func (p *Portal) RealmStatusList(ctx context.Context) (*domain.RealmStatusList, error) {
	var list domain.RealmStatusList
	if err := p.transport.Do(ctx, http.MethodGet, "realm/status", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ServiceAddresses fetches the named service endpoints.
func (p *Portal) ServiceAddresses(ctx context.Context) (*domain.ServiceAddresses, error) {
	var addrs domain.ServiceAddresses
	if err := p.transport.Do(ctx, http.MethodGet, "service_addresses", nil, &addrs); err != nil {
		return nil, err
	}
	return &addrs, nil
}

// VersionInfo returns the server version, fetching it at most once per
// Portal. Failed fetches are not cached.
func (p *Portal) VersionInfo(ctx context.Context) (*domain.VersionInfo, error) {
	p.versionMu.Lock()
	defer p.versionMu.Unlock()

	if p.version != nil {
		v := *p.version
		return &v, nil
	}

	var info domain.VersionInfo
	if err := p.transport.Do(ctx, http.MethodGet, "version", nil, &info); err != nil {
		return nil, err
	}
	p.version = &info

	v := info
	return &v, nil
}
