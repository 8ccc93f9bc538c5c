package verifier

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"
)

// Resolver answers the two independent DNS questions the orchestrator
// asks about a domain. Implementations must be safe for concurrent use.
type Resolver interface {
	// Exists reports whether the domain resolves to any address record.
	// Resolution failures (NXDOMAIN, timeout, SERVFAIL) all read as
	// false; the distinction is not observable through the system
	// resolver without a dedicated DNS client.
	Exists(ctx context.Context, domain string) bool

	// LookupMX returns the domain's mail exchangers sorted ascending by
	// preference value, lowest (highest priority) first. Empty on any
	// lookup failure.
	LookupMX(ctx context.Context, domain string) []string
}

// netResolver is the production Resolver on top of net.Resolver.
type netResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func newNetResolver(timeout time.Duration) *netResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &netResolver{resolver: &net.Resolver{}, timeout: timeout}
}

func (nr *netResolver) Exists(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, nr.timeout)
	defer cancel()

	addrs, err := nr.resolver.LookupHost(ctx, domain)
	return err == nil && len(addrs) > 0
}

func (nr *netResolver) LookupMX(ctx context.Context, domain string) []string {
	ctx, cancel := context.WithTimeout(ctx, nr.timeout)
	defer cancel()

	records, err := nr.resolver.LookupMX(ctx, domain)
	if err != nil {
		return nil
	}
	return sortMXHosts(records)
}

// sortMXHosts orders MX records ascending by preference and strips the
// trailing dot from each host. The sort is stable so ties keep the
// resolver-returned order.
func sortMXHosts(records []*net.MX) []string {
	sorted := make([]*net.MX, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pref < sorted[j].Pref
	})

	hosts := make([]string, 0, len(sorted))
	for _, mx := range sorted {
		host := strings.TrimSuffix(mx.Host, ".")
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}
