/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package netutil provides the pure address-space validation rules used by
// the preflight checks: CIDR format rules, containment, range ordering, and
// range overlap. Nothing in this package touches the host; all functions are
// stateless and operate on netip values.
//
// Address comparison and containment use the numeric value of the address,
// never string comparison. IPv4 and IPv6 addresses are never compared
// against each other; a mismatched-family comparison is reported as a
// format error.
package netutil

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/cpstack/preflight/pkg/validation"
)

// ParseAddr parses s as a bare IP address. Failures are reported as a
// FormatInvalid validation error attributed to field.
func ParseAddr(field, s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, validation.FormatInvalid(field, s, "must be a valid IP address")
	}
	return addr, nil
}

// ParsePrefix parses s in CIDR notation. Failures are reported as a
// FormatInvalid validation error attributed to field.
func ParsePrefix(field, s string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, validation.FormatInvalid(field, s, "value must be in CIDR format")
	}
	return prefix, nil
}

// IsIPv6 reports whether s parses as an IPv6 address.
func IsIPv6(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is6() && !addr.Is4In6()
}

// WrapIPv6 brackets IPv6 literals for use in URLs and host:port strings.
// Non-IPv6 values are returned unchanged.
func WrapIPv6(s string) string {
	if IsIPv6(s) {
		return "[" + s + "]"
	}
	return s
}

// ValidateLocalCIDR enforces the format rules for the local (control-plane)
// IP. A single-address mask (/32 for IPv4, /128 for IPv6) leaves no room
// for a network and is rejected. An IPv6 prefix must be exactly /64, the
// length required by EUI-64 addressing on the control-plane network.
func ValidateLocalCIDR(field, cidr string) error {
	prefix, err := ParsePrefix(field, cidr)
	if err != nil {
		return err
	}
	if prefix.Bits() == prefix.Addr().BitLen() {
		return validation.FormatInvalid(field, cidr, "invalid netmask, a single-address mask leaves no room for a network")
	}
	if is6(prefix.Addr()) && prefix.Bits() != 64 {
		return validation.FormatInvalid(field, cidr, "prefix must be 64 for IPv6")
	}
	return nil
}

// ValidateAddrInPrefix checks that addr lies within prefix. When requireIP
// is false a value that does not parse as an IP address (such as a DNS
// hostname) is tolerated and passes; containment is only enforced for
// parseable addresses. A parseable address of the wrong family is a format
// error, not a containment failure.
func ValidateAddrInPrefix(addr string, prefix netip.Prefix, label string, requireIP bool) error {
	parsed, err := netip.ParseAddr(addr)
	if err != nil {
		if requireIP {
			return validation.FormatInvalid(label, addr, "must be a valid IP address")
		}
		return nil
	}
	if is6(parsed) != is6(prefix.Addr()) {
		return validation.FormatInvalid(label, addr, fmt.Sprintf("address family does not match CIDR %q", prefix))
	}
	if !prefix.Contains(parsed.Unmap()) {
		return validation.RangeInvalid(label, fmt.Sprintf("%q not in defined CIDR %q", addr, prefix))
	}
	return nil
}

// ValidateRangeOrder checks that start comes strictly before end as IP
// integers. Equal bounds are rejected.
func ValidateRangeOrder(start, end, label string) error {
	s, e, err := parsePair(start, end, label)
	if err != nil {
		return err
	}
	if s.Compare(e) >= 0 {
		return validation.RangeInvalid(label,
			fmt.Sprintf("invalid range specified, start %q does not come before end %q", start, end))
	}
	return nil
}

// ValidateRangesDisjoint checks that two inclusive address ranges share no
// address. The check is symmetric in its two ranges.
func ValidateRangesDisjoint(aStart, aEnd, bStart, bEnd, labelA, labelB string) error {
	as, ae, err := parsePair(aStart, aEnd, labelA)
	if err != nil {
		return err
	}
	bs, be, err := parsePair(bStart, bEnd, labelB)
	if err != nil {
		return err
	}
	if is6(as) != is6(bs) {
		return validation.FormatInvalid(labelB, bStart,
			fmt.Sprintf("address family does not match %s range", labelA))
	}
	// Inclusive intervals intersect iff each starts at or before the
	// other's end.
	if as.Compare(be) <= 0 && bs.Compare(ae) <= 0 {
		return validation.RangeInvalid(labelB,
			fmt.Sprintf("%s range %q-%q overlaps %s range %q-%q", labelB, bStart, bEnd, labelA, aStart, aEnd))
	}
	return nil
}

// SplitRange splits a comma-separated "start,end" range value into its two
// bounds. Whitespace around the bounds is ignored.
func SplitRange(field, value string) (string, string, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return "", "", validation.FormatInvalid(field, value, "must be a comma-separated start,end pair")
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// parsePair parses two addresses that must belong to the same family.
func parsePair(start, end, label string) (netip.Addr, netip.Addr, error) {
	s, err := ParseAddr(label, start)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	e, err := ParseAddr(label, end)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	if is6(s) != is6(e) {
		return netip.Addr{}, netip.Addr{}, validation.FormatInvalid(label, end, "address family does not match range start")
	}
	return s.Unmap(), e.Unmap(), nil
}

func is6(a netip.Addr) bool {
	return a.Unmap().Is6()
}
