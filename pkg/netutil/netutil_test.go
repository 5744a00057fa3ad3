/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/
package netutil

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpstack/preflight/pkg/validation"
)

func TestValidateLocalCIDR(t *testing.T) {
	tests := []struct {
		name    string
		cidr    string
		wantErr bool
	}{
		{name: "ipv4 /24", cidr: "192.168.1.1/24", wantErr: false},
		{name: "ipv4 /8", cidr: "10.0.0.1/8", wantErr: false},
		{name: "ipv4 /31", cidr: "192.168.1.1/31", wantErr: false},
		{name: "ipv4 /32 rejected", cidr: "192.168.1.1/32", wantErr: true},
		{name: "ipv6 /64", cidr: "2001:db8::1/64", wantErr: false},
		{name: "ipv6 /48 rejected", cidr: "2001:db8::1/48", wantErr: true},
		{name: "ipv6 /96 rejected", cidr: "2001:db8::1/96", wantErr: true},
		{name: "ipv6 /128 rejected", cidr: "2001:db8::1/128", wantErr: true},
		{name: "not a cidr", cidr: "192.168.1.1", wantErr: true},
		{name: "garbage", cidr: "not-an-ip/24", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocalCIDR("local_ip", tt.cidr)
			if tt.wantErr {
				require.Error(t, err)
				kind, ok := validation.KindOf(err)
				require.True(t, ok)
				assert.Equal(t, validation.KindFormatInvalid, kind)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLocalCIDRIPv6Message(t *testing.T) {
	err := ValidateLocalCIDR("local_ip", "2001:db8::1/48")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefix must be 64 for IPv6")
}

func TestValidateAddrInPrefix(t *testing.T) {
	prefix := netip.MustParsePrefix("192.168.1.0/24")

	tests := []struct {
		name      string
		addr      string
		requireIP bool
		wantKind  validation.Kind
	}{
		{name: "inside", addr: "192.168.1.5", requireIP: true},
		{name: "network address", addr: "192.168.1.0", requireIP: true},
		{name: "broadcast address", addr: "192.168.1.255", requireIP: true},
		{name: "outside", addr: "192.168.2.1", requireIP: true, wantKind: validation.KindRangeInvalid},
		{name: "not an ip, required", addr: "gateway.example.com", requireIP: true, wantKind: validation.KindFormatInvalid},
		{name: "not an ip, tolerated", addr: "gateway.example.com", requireIP: false},
		{name: "wrong family", addr: "2001:db8::1", requireIP: true, wantKind: validation.KindFormatInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddrInPrefix(tt.addr, prefix, "gateway", tt.requireIP)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			kind, ok := validation.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestValidateRangeOrder(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{name: "ordered", start: "192.168.1.10", end: "192.168.1.50"},
		{name: "adjacent", start: "192.168.1.10", end: "192.168.1.11"},
		{name: "equal rejected", start: "192.168.1.10", end: "192.168.1.10", wantErr: true},
		{name: "reversed rejected", start: "192.168.1.50", end: "192.168.1.10", wantErr: true},
		{name: "numeric not lexicographic", start: "192.168.1.9", end: "192.168.1.100"},
		{name: "ipv6 ordered", start: "2001:db8::10", end: "2001:db8::20"},
		{name: "family mismatch", start: "192.168.1.1", end: "2001:db8::1", wantErr: true},
		{name: "unparseable start", start: "bogus", end: "192.168.1.10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRangeOrder(tt.start, tt.end, "dhcp")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRangesDisjoint(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		wantErr      bool
	}{
		{name: "disjoint", aStart: "192.168.1.10", aEnd: "192.168.1.50", bStart: "192.168.1.100", bEnd: "192.168.1.150"},
		{name: "overlapping", aStart: "192.168.1.10", aEnd: "192.168.1.50", bStart: "192.168.1.40", bEnd: "192.168.1.60", wantErr: true},
		{name: "nested", aStart: "192.168.1.10", aEnd: "192.168.1.100", bStart: "192.168.1.20", bEnd: "192.168.1.30", wantErr: true},
		{name: "single shared address", aStart: "192.168.1.10", aEnd: "192.168.1.50", bStart: "192.168.1.50", bEnd: "192.168.1.60", wantErr: true},
		{name: "adjacent disjoint", aStart: "192.168.1.10", aEnd: "192.168.1.50", bStart: "192.168.1.51", bEnd: "192.168.1.60"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRangesDisjoint(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, "dhcp", "inspection")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			// Swapping the two ranges must not change the outcome.
			swapped := ValidateRangesDisjoint(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd, "inspection", "dhcp")
			assert.Equal(t, err != nil, swapped != nil)
		})
	}
}

func TestValidateRangesDisjointNamesBothRanges(t *testing.T) {
	err := ValidateRangesDisjoint(
		"192.168.1.10", "192.168.1.50",
		"192.168.1.40", "192.168.1.60",
		"provisioning DHCP", "inspection DHCP")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provisioning DHCP")
	assert.Contains(t, err.Error(), "inspection DHCP")
	assert.Contains(t, err.Error(), "192.168.1.40")
	assert.Contains(t, err.Error(), "192.168.1.10")
}

func TestWrapIPv6(t *testing.T) {
	assert.Equal(t, "[2001:db8::1]", WrapIPv6("2001:db8::1"))
	assert.Equal(t, "192.168.1.1", WrapIPv6("192.168.1.1"))
	assert.Equal(t, "host.example.com", WrapIPv6("host.example.com"))
}

func TestIsIPv6(t *testing.T) {
	assert.True(t, IsIPv6("2001:db8::1"))
	assert.False(t, IsIPv6("192.168.1.1"))
	assert.False(t, IsIPv6("not-an-ip"))
}

func TestSplitRange(t *testing.T) {
	start, end, err := SplitRange("inspection_iprange", "192.168.1.100,192.168.1.150")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.100", start)
	assert.Equal(t, "192.168.1.150", end)

	start, end, err = SplitRange("inspection_iprange", " 192.168.1.100 , 192.168.1.150 ")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.100", start)
	assert.Equal(t, "192.168.1.150", end)

	_, _, err = SplitRange("inspection_iprange", "192.168.1.100")
	assert.Error(t, err)

	_, _, err = SplitRange("inspection_iprange", "a,b,c")
	assert.Error(t, err)
}

func TestParsePrefixAndAddr(t *testing.T) {
	_, err := ParsePrefix("local_ip", "192.168.1.0/24")
	assert.NoError(t, err)

	_, err = ParsePrefix("local_ip", "192.168.1.0")
	assert.Error(t, err)

	_, err = ParseAddr("nameservers", "8.8.8.8")
	assert.NoError(t, err)

	_, err = ParseAddr("nameservers", "8.8.8.8/32")
	assert.Error(t, err)
}
