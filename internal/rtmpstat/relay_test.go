package rtmpstat

import "testing"

func strPtr(s string) *string { return &s }

func TestClient_IsLocalRelay(t *testing.T) {
	tests := []struct {
		name     string
		flashver *string
		address  *string
		want     bool
	}{
		{"loopback relay", strPtr(RelayFlashVersion), strPtr("127.0.0.1"), true},
		{"loopback v6 relay", strPtr(RelayFlashVersion), strPtr("::1"), true},
		{"private 10/8", strPtr(RelayFlashVersion), strPtr("10.1.2.3"), true},
		{"private 172.16/12", strPtr(RelayFlashVersion), strPtr("172.20.0.5"), true},
		{"private 192.168/16", strPtr(RelayFlashVersion), strPtr("192.168.1.5"), true},
		{"with port", strPtr(RelayFlashVersion), strPtr("10.0.4.12:51234"), true},
		{"mapped v4", strPtr(RelayFlashVersion), strPtr("::ffff:192.168.0.1"), true},
		{"public relay", strPtr(RelayFlashVersion), strPtr("203.0.113.7"), false},
		{"private v6 relay", strPtr(RelayFlashVersion), strPtr("fd00::1"), false},
		{"viewer on private address", strPtr("LNX 9,0,124,2"), strPtr("192.168.1.5"), false},
		{"relay without address", strPtr(RelayFlashVersion), nil, false},
		{"malformed address", strPtr(RelayFlashVersion), strPtr("not-an-ip"), false},
		{"empty address", strPtr(RelayFlashVersion), strPtr(""), false},
		{"no flashver", nil, strPtr("127.0.0.1"), false},
		{"flashver prefix only", strPtr("ngx-local-relay-2"), strPtr("127.0.0.1"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Client{FlashVersion: tt.flashver, Address: tt.address}
			if got := c.IsLocalRelay(); got != tt.want {
				t.Errorf("IsLocalRelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_IsRelay(t *testing.T) {
	if (Client{}).IsRelay() {
		t.Error("client without flashver should not be a relay")
	}
	if !(Client{FlashVersion: strPtr(RelayFlashVersion)}).IsRelay() {
		t.Error("ngx-local-relay flashver should be a relay")
	}
}
