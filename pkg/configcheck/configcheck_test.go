/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/
package configcheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpstack/preflight/pkg/config"
	"github.com/cpstack/preflight/pkg/validation"
)

func baseConfig() *config.Config {
	return &config.Config{
		LocalIP:        "192.168.1.1/24",
		LocalInterface: "eth1",
		LocalSubnet:    "ctlplane",
		Subnets: map[string]config.Subnet{
			"ctlplane": {
				CIDR:            "192.168.1.0/24",
				Gateway:         "192.168.1.1",
				DHCPStart:       "192.168.1.10",
				DHCPEnd:         "192.168.1.50",
				InspectionRange: "192.168.1.100,192.168.1.150",
			},
		},
	}
}

func TestValidateValueFormats(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantErr  string
		wantKind validation.Kind
	}{
		{
			name:   "valid",
			mutate: func(*config.Config) {},
		},
		{
			name:     "local ip not cidr",
			mutate:   func(c *config.Config) { c.LocalIP = "192.168.1.1" },
			wantErr:  "CIDR",
			wantKind: validation.KindFormatInvalid,
		},
		{
			name:     "local ip single-address mask",
			mutate:   func(c *config.Config) { c.LocalIP = "192.168.1.1/32" },
			wantErr:  "netmask",
			wantKind: validation.KindFormatInvalid,
		},
		{
			name:     "ipv6 local ip with wrong prefix",
			mutate:   func(c *config.Config) { c.LocalIP = "2001:db8::1/48" },
			wantErr:  "prefix must be 64 for IPv6",
			wantKind: validation.KindFormatInvalid,
		},
		{
			name:   "ipv6 local ip with 64 prefix",
			mutate: func(c *config.Config) { c.LocalIP = "2001:db8::1/64" },
		},
		{
			name:     "unqualified hostname override",
			mutate:   func(c *config.Config) { c.Hostname = "foo" },
			wantErr:  "not fully qualified",
			wantKind: validation.KindFormatInvalid,
		},
		{
			name:   "qualified hostname override",
			mutate: func(c *config.Config) { c.Hostname = "foo.example.com" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)

			err := ValidateValueFormats(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			kind, ok := validation.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestValidateNameservers(t *testing.T) {
	cfg := baseConfig()
	cfg.Nameservers = []string{"8.8.8.8", "2001:4860:4860::8888"}
	assert.NoError(t, ValidateNameservers(cfg))

	cfg.Nameservers = append(cfg.Nameservers, "dns.example.com")
	err := ValidateNameservers(cfg)
	require.Error(t, err)
	kind, ok := validation.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.KindFormatInvalid, kind)
	assert.Contains(t, err.Error(), "nameservers")
}

func TestValidateSubnetValid(t *testing.T) {
	cfg := baseConfig()
	assert.NoError(t, ValidateSubnet(cfg, "ctlplane", cfg.Subnets["ctlplane"]))
}

func TestValidateSubnetContainment(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config, *config.Subnet)
		wantErr  string
		wantKind validation.Kind
	}{
		{
			name:     "local ip outside subnet",
			mutate:   func(c *config.Config, _ *config.Subnet) { c.LocalIP = "192.168.2.1/24" },
			wantErr:  "local_ip",
			wantKind: validation.KindRangeInvalid,
		},
		{
			name:     "gateway outside subnet",
			mutate:   func(_ *config.Config, s *config.Subnet) { s.Gateway = "192.168.2.1" },
			wantErr:  "gateway",
			wantKind: validation.KindRangeInvalid,
		},
		{
			name:     "dhcp start outside subnet",
			mutate:   func(_ *config.Config, s *config.Subnet) { s.DHCPStart = "192.168.2.10" },
			wantErr:  "dhcp_start",
			wantKind: validation.KindRangeInvalid,
		},
		{
			name:     "dhcp end outside subnet",
			mutate:   func(_ *config.Config, s *config.Subnet) { s.DHCPEnd = "192.168.2.50" },
			wantErr:  "dhcp_end",
			wantKind: validation.KindRangeInvalid,
		},
		{
			name: "inspection bound outside subnet",
			mutate: func(_ *config.Config, s *config.Subnet) {
				s.InspectionRange = "192.168.2.100,192.168.2.150"
			},
			wantErr:  "inspection_iprange",
			wantKind: validation.KindRangeInvalid,
		},
		{
			name:     "gateway not an ip",
			mutate:   func(_ *config.Config, s *config.Subnet) { s.Gateway = "gw.example.com" },
			wantErr:  "gateway",
			wantKind: validation.KindFormatInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			subnet := cfg.Subnets["ctlplane"]
			tt.mutate(cfg, &subnet)

			err := ValidateSubnet(cfg, "ctlplane", subnet)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			kind, ok := validation.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestValidateSubnetEndpointHosts(t *testing.T) {
	// With a certificate and no UI, the endpoint hosts must be on the
	// provisioning network, but hostnames are tolerated.
	cfg := baseConfig()
	cfg.GenerateServiceCertificate = true
	cfg.PublicHost = "192.168.1.2"
	cfg.AdminHost = "api.example.com"
	assert.NoError(t, ValidateSubnet(cfg, "ctlplane", cfg.Subnets["ctlplane"]))

	cfg.PublicHost = "10.0.0.2"
	err := ValidateSubnet(cfg, "ctlplane", cfg.Subnets["ctlplane"])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public_host")

	// With the UI enabled the endpoints may live anywhere.
	cfg.EnableUI = true
	assert.NoError(t, ValidateSubnet(cfg, "ctlplane", cfg.Subnets["ctlplane"]))
}

func TestValidateSubnetEndpointHostsOnlyForLocalSubnet(t *testing.T) {
	cfg := baseConfig()
	cfg.GenerateServiceCertificate = true
	cfg.PublicHost = "10.0.0.2"
	cfg.Subnets["leaf"] = config.Subnet{
		CIDR:            "10.1.0.0/24",
		Gateway:         "10.1.0.1",
		DHCPStart:       "10.1.0.10",
		DHCPEnd:         "10.1.0.50",
		InspectionRange: "10.1.0.100,10.1.0.150",
	}
	// Endpoint placement is only checked against the local subnet.
	assert.NoError(t, ValidateSubnet(cfg, "leaf", cfg.Subnets["leaf"]))
}

func TestValidateSubnetRangeOrdering(t *testing.T) {
	cfg := baseConfig()
	subnet := cfg.Subnets["ctlplane"]
	subnet.DHCPStart, subnet.DHCPEnd = "192.168.1.50", "192.168.1.10"

	err := ValidateSubnet(cfg, "ctlplane", subnet)
	require.Error(t, err)
	kind, _ := validation.KindOf(err)
	assert.Equal(t, validation.KindRangeInvalid, kind)
	assert.Contains(t, err.Error(), "does not come before")
}

func TestValidateSubnetOverlap(t *testing.T) {
	cfg := baseConfig()
	subnet := cfg.Subnets["ctlplane"]
	subnet.InspectionRange = "192.168.1.40,192.168.1.60"

	err := ValidateSubnet(cfg, "ctlplane", subnet)
	require.Error(t, err)
	kind, _ := validation.KindOf(err)
	assert.Equal(t, validation.KindRangeInvalid, kind)

	// The diagnostic names both ranges.
	assert.Contains(t, err.Error(), "192.168.1.40")
	assert.Contains(t, err.Error(), "192.168.1.60")
	assert.Contains(t, err.Error(), "192.168.1.10")
	assert.Contains(t, err.Error(), "192.168.1.50")
}

func TestValidateSubnetMalformedInspectionRange(t *testing.T) {
	cfg := baseConfig()
	subnet := cfg.Subnets["ctlplane"]
	subnet.InspectionRange = "192.168.1.100"

	err := ValidateSubnet(cfg, "ctlplane", subnet)
	require.Error(t, err)
	kind, _ := validation.KindOf(err)
	assert.Equal(t, validation.KindFormatInvalid, kind)
}

type fakeRenderer struct {
	files []string
	err   error
}

func (f *fakeRenderer) RenderedFiles(context.Context) ([]string, error) {
	return f.files, f.err
}

func TestValidateEnvFiles(t *testing.T) {
	cfg := baseConfig()
	cfg.TemplatesPath = "/usr/share/templates"
	renderer := &fakeRenderer{files: []string{"network.yaml", "net-config.yaml"}}

	// No custom files: nothing to do.
	assert.NoError(t, ValidateEnvFiles(context.Background(), cfg, renderer))

	// Non-colliding external file.
	cfg.CustomEnvFiles = []string{"/home/stack/extra.yaml"}
	assert.NoError(t, ValidateEnvFiles(context.Background(), cfg, renderer))

	// Files inside the template tree may share names.
	cfg.CustomEnvFiles = []string{"/usr/share/templates/network.yaml"}
	assert.NoError(t, ValidateEnvFiles(context.Background(), cfg, renderer))

	// External file shadowing a generated one is prohibited.
	cfg.CustomEnvFiles = []string{"/home/stack/network.yaml"}
	err := ValidateEnvFiles(context.Background(), cfg, renderer)
	require.Error(t, err)
	kind, _ := validation.KindOf(err)
	assert.Equal(t, validation.KindFormatInvalid, kind)
	assert.Contains(t, err.Error(), "network.yaml")
}

func TestValidateEnvFilesUnresolvableWorkingDirectory(t *testing.T) {
	// Relative paths need the working directory; with it gone the
	// failure is classified where it happens, not left as plumbing.
	dir := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(dir, 0o755))
	t.Chdir(dir)
	require.NoError(t, os.Remove(dir))

	cfg := baseConfig()
	cfg.TemplatesPath = "/usr/share/templates"
	cfg.CustomEnvFiles = []string{"extra.yaml"}

	err := ValidateEnvFiles(context.Background(), cfg, &fakeRenderer{files: []string{"network.yaml"}})
	require.Error(t, err)
	kind, ok := validation.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.KindHostStateInvalid, kind)
	assert.Contains(t, err.Error(), "working directory")
}

func TestValidateEnvFilesRendererFailure(t *testing.T) {
	cfg := baseConfig()
	cfg.CustomEnvFiles = []string{"/home/stack/extra.yaml"}
	renderer := &fakeRenderer{err: assert.AnError}

	err := ValidateEnvFiles(context.Background(), cfg, renderer)
	assert.ErrorIs(t, err, assert.AnError)
}
