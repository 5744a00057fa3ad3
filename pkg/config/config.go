/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package config defines the immutable configuration snapshot consumed by
// the preflight checks and the YAML loader that constructs it.
//
// The snapshot is built once per invocation and is read-only for the
// engine's lifetime: checks receive it by pointer and never mutate it.
// Required fields are enforced at load time so the checks themselves can
// assume a complete snapshot.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	playground "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cpstack/preflight/pkg/validation"
)

// Subnet holds the addressing configuration of one provisioning subnet.
type Subnet struct {
	// CIDR is the subnet block in address/prefix notation.
	CIDR string `yaml:"cidr" validate:"required"`

	// Gateway is the subnet gateway address.
	Gateway string `yaml:"gateway" validate:"required"`

	// DHCPStart and DHCPEnd bound the address interval reserved for
	// dynamic leasing during provisioning.
	DHCPStart string `yaml:"dhcp_start" validate:"required"`
	DHCPEnd   string `yaml:"dhcp_end" validate:"required"`

	// InspectionRange is the comma-separated "start,end" interval used
	// during hardware introspection.
	InspectionRange string `yaml:"inspection_iprange" validate:"required"`
}

// Config is the immutable configuration snapshot handed to the preflight
// engine.
type Config struct {
	// LocalIP is the control-plane address of this host in CIDR notation.
	LocalIP string `yaml:"local_ip" validate:"required"`

	// LocalInterface is the network interface attached to the
	// control-plane network.
	LocalInterface string `yaml:"local_interface" validate:"required"`

	// Hostname optionally overrides the system hostname before checks
	// run. Must be fully qualified when set.
	Hostname string `yaml:"hostname"`

	// Nameservers are the DNS servers configured for provisioned hosts.
	Nameservers []string `yaml:"nameservers"`

	// EnableUI reports whether the management UI is deployed; when it is,
	// the endpoint hosts may legitimately live outside the provisioning
	// network.
	EnableUI bool `yaml:"enable_ui"`

	// ServiceCertificate is the path to an operator-provided service
	// certificate, if any.
	ServiceCertificate string `yaml:"service_certificate"`

	// GenerateServiceCertificate requests an auto-generated service
	// certificate.
	GenerateServiceCertificate bool `yaml:"generate_service_certificate"`

	// PublicHost and AdminHost are the public and admin endpoint hosts.
	// They may be IP addresses or DNS names.
	PublicHost string `yaml:"public_host"`
	AdminHost  string `yaml:"admin_host"`

	// TemplatesPath is the deployment heat-template tree.
	TemplatesPath string `yaml:"templates"`

	// RolesFile is the roles data file passed to the template renderer.
	RolesFile string `yaml:"roles_file"`

	// CustomEnvFiles are operator-provided environment files layered on
	// top of the rendered templates.
	CustomEnvFiles []string `yaml:"custom_env_files"`

	// NetConfigOverride reports that the operator supplies their own
	// network configuration, which skips interface validation.
	NetConfigOverride bool `yaml:"net_config_override"`

	// LocalSubnet names the entry in Subnets used as the control-plane
	// subnet.
	LocalSubnet string `yaml:"local_subnet" validate:"required"`

	// Subnets maps subnet name to its addressing configuration.
	Subnets map[string]Subnet `yaml:"subnets" validate:"required,dive"`
}

// Load reads the YAML configuration at path, applies defaults, and
// validates that all required settings are present. Missing required
// settings are reported as ConfigKeyMissing validation errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &validation.Error{
			Kind:    validation.KindFormatInvalid,
			Subject: path,
			Detail:  fmt.Sprintf("cannot parse configuration: %v", err),
			Cause:   err,
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in the constants-derived settings left empty in the
// loaded file.
func (c *Config) ApplyDefaults() {
	if c.TemplatesPath == "" {
		c.TemplatesPath = DefaultTemplatesPath
	}
	if c.RolesFile == "" {
		c.RolesFile = DefaultRolesFile
	}
}

// Validate enforces presence of all required settings and resolvability of
// the local subnet reference.
func (c *Config) Validate() error {
	if err := requiredFields(c); err != nil {
		return err
	}
	if _, err := c.Local(); err != nil {
		return err
	}
	return nil
}

// Local resolves the control-plane subnet named by LocalSubnet. An unknown
// name is a missing-configuration error; when a configured subnet name is
// close to the reference, the diagnostic suggests it.
func (c *Config) Local() (Subnet, error) {
	if s, ok := c.Subnets[c.LocalSubnet]; ok {
		return s, nil
	}
	verr := validation.KeyMissing(c.LocalSubnet)
	if near := c.nearestSubnet(c.LocalSubnet); near != "" {
		verr.Detail = fmt.Sprintf("subnet not defined in configuration, did you mean %q", near)
	} else {
		verr.Detail = "subnet not defined in configuration"
	}
	return Subnet{}, verr
}

// SubnetNames returns the configured subnet names in sorted order so the
// checks iterate deterministically.
func (c *Config) SubnetNames() []string {
	names := make([]string, 0, len(c.Subnets))
	for name := range c.Subnets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasServiceCertificate reports whether a service certificate is configured,
// either operator-provided or auto-generated.
func (c *Config) HasServiceCertificate() bool {
	return c.ServiceCertificate != "" || c.GenerateServiceCertificate
}

// PasswordsPath is the location of the generated-passwords file from a
// prior install.
func (c *Config) PasswordsPath() string {
	return filepath.Join(homeDir(), PasswordsFileName)
}

// InstallMarkerPath is the location of the rc file evidencing a prior
// install.
func (c *Config) InstallMarkerPath() string {
	return filepath.Join(homeDir(), InstallMarkerName)
}

// nearestSubnet finds a configured subnet name within a small edit distance
// of name.
func (c *Config) nearestSubnet(name string) string {
	best, bestDist := "", 4
	for _, candidate := range c.SubnetNames() {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

var validate = newValidator()

func newValidator() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	// Report failures under the yaml key the operator actually wrote.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return v
}

// requiredFields runs struct validation and translates missing-required
// failures into the ConfigKeyMissing class.
func requiredFields(c *Config) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		if first.Tag() == "required" {
			return validation.KeyMissing(keyPath(first.Namespace()))
		}
		return validation.FormatInvalid(keyPath(first.Namespace()), fmt.Sprintf("%v", first.Value()), first.Tag())
	}
	return fmt.Errorf("configuration validation failed: %w", err)
}

// keyPath strips the root struct name from a validator namespace, leaving
// the yaml-ish path ("subnets[ctlplane].cidr").
func keyPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/root"
	}
	return home
}
