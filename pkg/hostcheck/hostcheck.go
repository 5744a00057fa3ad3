/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package hostcheck validates live host state before an install proceeds:
// hostname consistency, available memory, sysctl facility availability,
// interface existence, control-plane address drift, and presence of the
// generated-passwords file from a prior install.
//
// Probe paths default to the real host locations but are fields on Checker
// so tests can point them at synthetic trees.
package hostcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"

	"github.com/cpstack/preflight/pkg/config"
	"github.com/cpstack/preflight/pkg/execute"
	"github.com/cpstack/preflight/pkg/validation"
)

// RequiredMB is the minimum combined physical+swap memory. Derived from an
// 8 GB requirement, with room for variation in what 8 GB means on different
// platforms.
const RequiredMB = 7680

// sysctlOptions are the kernel parameters the installer needs to set.
var sysctlOptions = []string{
	"net.ipv4.ip_forward",
	"net.ipv4.ip_nonlocal_bind",
}

// sysctlOptionIPv6 is additionally required on IPv6-capable kernels.
const sysctlOptionIPv6 = "net.ipv6.ip_nonlocal_bind"

// CommandRunner runs external commands for the checks. *execute.Runner is
// the production implementation.
type CommandRunner interface {
	RunCaptured(ctx context.Context, c execute.Command) (string, error)
}

// Checker runs host state checks against one configuration snapshot.
type Checker struct {
	cfg    *config.Config
	runner CommandRunner

	// Probe locations, overridable for tests.
	HostsPath         string
	ProcSysRoot       string
	IPv6ProcPath      string
	NetConfigPath     string
	PasswordsPath     string
	InstallMarkerPath string

	// Interfaces enumerates host interfaces; overridable for tests.
	Interfaces func() ([]string, error)

	// TotalMemoryMB reports combined physical+swap memory in MB;
	// overridable for tests.
	TotalMemoryMB func() (uint64, error)
}

// New creates a Checker with production probe locations.
func New(cfg *config.Config, runner CommandRunner) *Checker {
	return &Checker{
		cfg:               cfg,
		runner:            runner,
		HostsPath:         config.HostsPath,
		ProcSysRoot:       config.ProcSysRoot,
		IPv6ProcPath:      config.IPv6ProcPath,
		NetConfigPath:     config.NetConfigPath,
		PasswordsPath:     cfg.PasswordsPath(),
		InstallMarkerPath: cfg.InstallMarkerPath(),
		Interfaces:        hostInterfaces,
		TotalMemoryMB:     totalMemoryMB,
	}
}

// CheckHostname verifies the system hostname configuration. The deployment
// services need the static and transient hostnames to agree and the
// hostname to resolve through the hosts file. When the hostname is missing
// from the hosts file, a fully qualified hostname is required and a
// loopback mapping is appended as remediation.
func (c *Checker) CheckHostname(ctx context.Context) error {
	if c.cfg.Hostname != "" {
		_, err := c.runner.RunCaptured(ctx, execute.Command{
			Args: []string{"sudo", "hostnamectl", "set-hostname", c.cfg.Hostname},
			Name: "hostnamectl",
		})
		if err != nil {
			return err
		}
	}

	slog.Info("checking for a FQDN hostname")
	static, err := c.hostnamectl(ctx, "--static")
	if err != nil {
		return err
	}
	slog.Info("static hostname detected", "hostname", static)
	transient, err := c.hostnamectl(ctx, "--transient")
	if err != nil {
		return err
	}
	slog.Info("transient hostname detected", "hostname", transient)

	if static != transient {
		slog.Error("static hostname does not match transient hostname, use hostnamectl to set matching hostnames",
			"static", static, "transient", transient)
		return validation.HostStateInvalid("hostname", "static and transient hostnames do not match")
	}

	listed, err := c.hostsFileContains(static)
	if err != nil {
		return validation.HostStateInvalid("hostname", fmt.Sprintf("cannot read %s: %v", c.HostsPath, err))
	}
	if listed {
		return nil
	}

	short, _, qualified := strings.Cut(static, ".")
	if !qualified {
		return validation.FormatInvalid("hostname", static, "configured hostname is not fully qualified")
	}
	sedExpr := fmt.Sprintf(`s/127.0.0.1\(\s*\)/127.0.0.1\1%s %s /`, static, short)
	_, err = c.runner.RunCaptured(ctx, execute.Command{
		Args: []string{"sudo", "sed", "-i", sedExpr, c.HostsPath},
		Name: "hostname-to-etc-hosts",
	})
	if err != nil {
		return err
	}
	slog.Info("added hostname to hosts file", "hostname", static, "path", c.HostsPath)
	return nil
}

// CheckMemory verifies the host has enough memory for an install. Physical
// and swap totals are summed in MB; the install will not run properly in
// less than 8 GB.
func (c *Checker) CheckMemory(_ context.Context) error {
	totalMB, err := c.TotalMemoryMB()
	if err != nil {
		return validation.HostStateInvalid("memory", fmt.Sprintf("cannot read memory statistics: %v", err))
	}
	if totalMB < RequiredMB {
		slog.Error("insufficient memory for installation, a minimum of 8 GB is recommended",
			"required_mb", RequiredMB, "detected_mb", totalMB)
		return validation.HostStateInvalid("memory",
			fmt.Sprintf("insufficient memory available, %d MB required but only %d MB detected", RequiredMB, totalMB))
	}
	return nil
}

// CheckSysctl verifies the kernel exposes every sysctl parameter the
// installer will set. All missing parameters are reported at once so the
// operator fixes the kernel in one pass.
func (c *Checker) CheckSysctl(_ context.Context) error {
	options := sysctlOptions
	if c.ipv6Enabled() {
		options = append(append([]string(nil), options...), sysctlOptionIPv6)
	}

	var missing []string
	for _, option := range options {
		path := c.ProcSysRoot + "/" + strings.ReplaceAll(option, ".", "/")
		if !fileExists(path) {
			missing = append(missing, option)
		}
	}
	if len(missing) > 0 {
		slog.Error("required sysctl options are not available, check that your kernel is up to date",
			"missing", strings.Join(missing, ", "))
		return validation.HostStateInvalid("sysctl",
			fmt.Sprintf("missing sysctl options: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// CheckInterfaceExists verifies the configured local interface is present
// on the host. Skipped when the operator overrides network configuration.
func (c *Checker) CheckInterfaceExists(_ context.Context) error {
	if c.cfg.NetConfigOverride {
		return nil
	}
	names, err := c.Interfaces()
	if err != nil {
		return validation.HostStateInvalid("local_interface", fmt.Sprintf("cannot enumerate interfaces: %v", err))
	}
	for _, name := range names {
		if name == c.cfg.LocalInterface {
			return nil
		}
	}
	return validation.HostStateInvalid("local_interface",
		fmt.Sprintf("invalid local_interface specified, %q is not available", c.cfg.LocalInterface))
}

// netConfig models the slice of the prior network-configuration file the
// drift check needs.
type netConfig struct {
	NetworkConfig []struct {
		Name      string `json:"name"`
		Addresses []struct {
			IPNetmask string `json:"ip_netmask"`
		} `json:"addresses"`
	} `json:"network_config"`
}

// CheckNoIPChange disallows changing the control-plane address after the
// first install. The address recorded by the prior install must match the
// configured local IP.
func (c *Checker) CheckNoIPChange(_ context.Context) error {
	data, err := os.ReadFile(c.NetConfigPath)
	if err != nil {
		// Nothing to check before the first install.
		if os.IsNotExist(err) {
			return nil
		}
		return validation.HostStateInvalid("local_ip", fmt.Sprintf("cannot read %s: %v", c.NetConfigPath, err))
	}

	var nc netConfig
	if err := json.Unmarshal(data, &nc); err != nil {
		return validation.HostStateInvalid("local_ip",
			fmt.Sprintf("cannot parse prior network configuration %s: %v", c.NetConfigPath, err))
	}
	for _, entry := range nc.NetworkConfig {
		if entry.Name != config.ControlPlaneBridge || len(entry.Addresses) == 0 {
			continue
		}
		existing := entry.Addresses[0].IPNetmask
		if existing != c.cfg.LocalIP {
			return validation.HostStateInvalid("local_ip",
				fmt.Sprintf("changing the local_ip is not allowed, existing IP: %s, configured IP: %s",
					existing, c.cfg.LocalIP))
		}
		return nil
	}
	// Bridge was never configured; nothing to compare.
	return nil
}

// CheckPasswordsFile disallows proceeding when a prior install exists but
// its generated-passwords file is gone. Regenerating passwords would break
// the existing deployment.
func (c *Checker) CheckPasswordsFile(_ context.Context) error {
	if fileExists(c.InstallMarkerPath) && !fileExists(c.PasswordsPath) {
		return validation.HostStateInvalid("passwords",
			fmt.Sprintf("the %s file is missing, this will cause all service passwords to change and break the existing deployment", c.PasswordsPath))
	}
	return nil
}

// hostnamectl reads one hostname variant via hostnamectl.
func (c *Checker) hostnamectl(ctx context.Context, flag string) (string, error) {
	out, err := c.runner.RunCaptured(ctx, execute.Command{
		Args: []string{"sudo", "hostnamectl", flag},
		Name: "hostnamectl",
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// hostsFileContains scans the hosts file for a non-comment entry listing
// hostname as a whole field.
func (c *Checker) hostsFileContains(hostname string) (bool, error) {
	data, err := os.ReadFile(c.HostsPath)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			if field == hostname {
				return true, nil
			}
		}
	}
	return false, nil
}

// ipv6Enabled reports whether the kernel exposes IPv6 sysctl settings.
func (c *Checker) ipv6Enabled() bool {
	return fileExists(c.IPv6ProcPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// totalMemoryMB sums physical and swap memory in MB, matching the platform
// measurement convention (integer division).
func totalMemoryMB() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	swap, err := mem.SwapMemory()
	if err != nil {
		return 0, err
	}
	return (vm.Total + swap.Total) / 1024 / 1024, nil
}

// hostInterfaces enumerates the names of the host's network interfaces.
func hostInterfaces() ([]string, error) {
	ifaces, err := gopsnet.Interfaces()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names, nil
}
