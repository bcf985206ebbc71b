// Package iplocate resolves a client network address to a place.
//
// No address database is bundled, so every lookup currently reports no location.
// The type exists so a real provider can replace it without touching the resolver.
package iplocate

import (
	"context"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"

	"github.com/woozymasta/geolocate/internal/geo"
)

// Locator looks up the place of a network address.
type Locator struct{}

// Locate returns the place for addr. It always returns an all-absent place.
func (Locator) Locate(ctx context.Context, addr string) geo.Place {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return geo.Place{}
	}

	ev := zerolog.Ctx(ctx).Debug().Str("ip", addr)
	if ip, err := netip.ParseAddr(addr); err != nil {
		ev.Bool("valid", false)
	} else {
		ev.Bool("valid", true).Bool("private", ip.IsPrivate() || ip.IsLoopback())
	}
	ev.Msg("IP lookup has no provider")

	return geo.Place{}
}
