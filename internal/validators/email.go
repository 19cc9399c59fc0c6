package validators

import (
	"context"
	"net"
	"strings"
	"time"
)

// DomainLookupTimeout bounds the DNS queries made by EmailDomainResolves.
const DomainLookupTimeout = 3 * time.Second

// EmailDomainResolves reports whether the domain part of email has an MX
// record or, failing that, any address record.
func EmailDomainResolves(ctx context.Context, email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.TrimSuffix(email[at+1:], ".")

	ctx, cancel := context.WithTimeout(ctx, DomainLookupTimeout)
	defer cancel()

	var r net.Resolver
	if mx, err := r.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}
	if addrs, err := r.LookupHost(ctx, domain); err == nil && len(addrs) > 0 {
		return true
	}
	return false
}
