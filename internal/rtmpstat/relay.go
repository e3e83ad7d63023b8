package rtmpstat

import "net/netip"

// RelayFlashVersion is the flashver nginx-rtmp sends on its own
// server-to-server relay connections (push/pull).
const RelayFlashVersion = "ngx-local-relay"

// IsRelay reports whether the client is an nginx-rtmp relay connection.
func (c Client) IsRelay() bool {
	return c.FlashVersion != nil && *c.FlashVersion == RelayFlashVersion
}

// IsLocalRelay reports whether the client is a relay from a loopback or
// private IPv4 address. A missing or unparseable address is never local,
// so the client is counted as a real viewer.
func (c Client) IsLocalRelay() bool {
	if !c.IsRelay() || c.Address == nil {
		return false
	}

	addr, ok := parseAddress(*c.Address)
	if !ok {
		return false
	}

	if addr.IsLoopback() {
		return true
	}
	return addr.Is4() && addr.IsPrivate()
}

// parseAddress accepts a bare IP or an ip:port pair.
func parseAddress(s string) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap(), true
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	return netip.Addr{}, false
}
