package config

// Fixed host paths and file names consumed by the checks. Probe locations
// are overridable on the checkers for tests; these are the production
// defaults.
const (
	// DefaultTemplatesPath is where the deployment heat templates are
	// installed by the host package.
	DefaultTemplatesPath = "/usr/share/cpstack-heat-templates"

	// DefaultRolesFile is the roles data file used when rendering the
	// deployment templates.
	DefaultRolesFile = "roles-data.yaml"

	// PasswordsFileName is the generated-passwords file created by the
	// first install, relative to the operator's home directory.
	PasswordsFileName = "cpstack-passwords.conf"

	// InstallMarkerName is the rc file the installer drops in the
	// operator's home directory; its presence is the evidence of a prior
	// install.
	InstallMarkerName = "cpstackrc"

	// NetConfigPath is the network configuration written by a prior
	// install.
	NetConfigPath = "/etc/os-net-config/config.json"

	// ControlPlaneBridge is the bridge entry carrying the control-plane
	// address in the prior network configuration.
	ControlPlaneBridge = "br-ctlplane"

	// HostsPath is the system hosts file.
	HostsPath = "/etc/hosts"

	// ProcSysRoot is the sysctl parameter tree.
	ProcSysRoot = "/proc/sys"

	// IPv6ProcPath exists iff the kernel has IPv6 support enabled.
	IPv6ProcPath = "/proc/net/if_inet6"
)
