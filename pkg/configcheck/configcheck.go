/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package configcheck validates the configuration snapshot against itself:
// value formats, nameserver addresses, subnet addressing invariants, and
// environment-file naming conflicts with renderer-generated files. No host
// state is probed here; the only external collaborator is the template
// renderer's dry-run file list.
package configcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"path/filepath"
	"strings"

	"github.com/cpstack/preflight/pkg/config"
	"github.com/cpstack/preflight/pkg/netutil"
	"github.com/cpstack/preflight/pkg/templates"
	"github.com/cpstack/preflight/pkg/validation"
)

// ValidateValueFormats enforces the static format rules: the local IP must
// be valid CIDR with a usable mask (and /64 when IPv6), and a configured
// hostname override must be fully qualified.
func ValidateValueFormats(cfg *config.Config) error {
	if err := netutil.ValidateLocalCIDR("local_ip", cfg.LocalIP); err != nil {
		return err
	}
	if cfg.Hostname != "" && !strings.Contains(cfg.Hostname, ".") {
		return validation.FormatInvalid("hostname", cfg.Hostname, "hostname is not fully qualified")
	}
	// The local subnet reference must resolve before per-subnet checks
	// reason about it.
	_, err := cfg.Local()
	return err
}

// ValidateNameservers requires every configured nameserver to be a bare IP
// address.
func ValidateNameservers(cfg *config.Config) error {
	for _, ns := range cfg.Nameservers {
		if _, err := netutil.ParseAddr("nameservers", ns); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSubnet enforces the addressing invariants of one subnet: gateway,
// DHCP bounds, and inspection bounds inside the CIDR; for the local subnet
// additionally the local IP's host address and, when a service certificate
// is configured without the UI, the endpoint hosts; DHCP and inspection
// ranges each correctly ordered; the two ranges disjoint.
func ValidateSubnet(cfg *config.Config, name string, subnet config.Subnet) error {
	prefix, err := netutil.ParsePrefix(subnetField(name, "cidr"), subnet.CIDR)
	if err != nil {
		return err
	}

	if err := validateContainment(cfg, name, subnet, prefix); err != nil {
		return err
	}

	inspStart, inspEnd, err := netutil.SplitRange(subnetField(name, "inspection_iprange"), subnet.InspectionRange)
	if err != nil {
		return err
	}
	if err := netutil.ValidateAddrInPrefix(inspStart, prefix, subnetField(name, "inspection_iprange"), true); err != nil {
		return err
	}
	if err := netutil.ValidateAddrInPrefix(inspEnd, prefix, subnetField(name, "inspection_iprange"), true); err != nil {
		return err
	}

	if err := netutil.ValidateRangeOrder(subnet.DHCPStart, subnet.DHCPEnd, subnetField(name, "dhcp")); err != nil {
		return err
	}
	if err := netutil.ValidateRangeOrder(inspStart, inspEnd, subnetField(name, "inspection_iprange")); err != nil {
		return err
	}
	return netutil.ValidateRangesDisjoint(
		subnet.DHCPStart, subnet.DHCPEnd,
		inspStart, inspEnd,
		"provisioning DHCP", "inspection DHCP")
}

// validateContainment checks every address that must lie within the subnet
// block.
func validateContainment(cfg *config.Config, name string, subnet config.Subnet, prefix netip.Prefix) error {
	if name == cfg.LocalSubnet {
		localPrefix, err := netutil.ParsePrefix("local_ip", cfg.LocalIP)
		if err != nil {
			return err
		}
		if err := netutil.ValidateAddrInPrefix(localPrefix.Addr().String(), prefix, "local_ip", true); err != nil {
			return err
		}
		// The management endpoints must be reachable on the
		// provisioning network when TLS is terminated there. With the
		// UI enabled they are externally accessible and the operator
		// owns the placement.
		if cfg.HasServiceCertificate() && !cfg.EnableUI {
			if err := netutil.ValidateAddrInPrefix(cfg.PublicHost, prefix, "public_host", false); err != nil {
				return err
			}
			if err := netutil.ValidateAddrInPrefix(cfg.AdminHost, prefix, "admin_host", false); err != nil {
				return err
			}
		}
	}
	if err := netutil.ValidateAddrInPrefix(subnet.Gateway, prefix, subnetField(name, "gateway"), true); err != nil {
		return err
	}
	if err := netutil.ValidateAddrInPrefix(subnet.DHCPStart, prefix, subnetField(name, "dhcp_start"), true); err != nil {
		return err
	}
	return netutil.ValidateAddrInPrefix(subnet.DHCPEnd, prefix, subnetField(name, "dhcp_end"), true)
}

// ValidateEnvFiles prohibits custom environment files outside the template
// tree whose base name collides with a file the renderer would produce;
// such a file would silently shadow generated content.
func ValidateEnvFiles(ctx context.Context, cfg *config.Config, renderer templates.Renderer) error {
	slog.Debug("resolving renderer dry-run file list",
		"templates", cfg.TemplatesPath, "roles_file", cfg.RolesFile)
	rendered, err := renderer.RenderedFiles(ctx)
	if err != nil {
		return err
	}
	generated := make(map[string]struct{}, len(rendered))
	for _, name := range rendered {
		generated[name] = struct{}{}
	}

	templatesAbs, err := filepath.Abs(cfg.TemplatesPath)
	if err != nil {
		return validation.HostStateInvalid("templates",
			fmt.Sprintf("cannot resolve templates path against the working directory: %v", err))
	}
	for _, envFile := range cfg.CustomEnvFiles {
		envAbs, err := filepath.Abs(envFile)
		if err != nil {
			return validation.HostStateInvalid("custom_env_files",
				fmt.Sprintf("cannot resolve %s against the working directory: %v", envFile, err))
		}
		if filepath.Dir(envAbs) == templatesAbs {
			continue
		}
		if _, clash := generated[filepath.Base(envAbs)]; clash {
			return validation.FormatInvalid("custom_env_files", envFile,
				fmt.Sprintf("environment files external to %s cannot reference renderer-generated files", templatesAbs))
		}
	}
	return nil
}

func subnetField(subnet, field string) string {
	return subnet + "." + field
}
