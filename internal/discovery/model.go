// Package discovery implements the network inventory discovery engine:
// address expansion, dictionary-based SNMP classification, worker pool
// scheduling and batched reporting to the inventory server.
package discovery

import (
	"fmt"
	"time"
)

// DevicePerMessage bounds how many Devices a single Batch carries.
const DevicePerMessage = 4

// AddressPerThread is the number of addresses handed to each worker per block cycle.
const AddressPerThread = 25

// DictionaryKey is the well-known Spool key under which the resolved Dictionary
// (and its content hash) is persisted across job invocations.
const DictionaryKey = 999999

// Range is an inclusive IPv4 address range supplied by the server, scoped to an
// opaque administrative Entity tag.
type Range struct {
	Start  string
	End    string
	Entity string
}

// AddressItem is a single address derived from expanding a Range, consumed
// exactly once by one worker.
type AddressItem struct {
	IP     string
	Entity string
}

// SNMPVersion enumerates the credential's protocol version.
type SNMPVersion string

const (
	SNMPv1  SNMPVersion = "1"
	SNMPv2c SNMPVersion = "2c"
	SNMPv3  SNMPVersion = "3"
)

// Credential is one SNMP authentication profile, tried in order against every address.
type Credential struct {
	ID            string
	Version       SNMPVersion
	Community     string // v1/v2c
	Username      string // v3
	AuthPassword  string // v3
	AuthProtocol  string // v3 (MD5, SHA, ...)
	PrivPassword  string // v3
	PrivProtocol  string // v3 (DES, AES, ...)
}

// Model describes one entry in the Dictionary: the OID bindings used to
// extract identifying attributes once a system description has matched it.
type Model struct {
	ModelSNMP string // identifier, e.g. "ACME-X"
	Type      string
	Serial    string // OID
	MAC       string // OID
	MACDyn    string // OID subtree, walked when MAC is absent/non-canonical
}

// Device is the fused, accepted record produced by the Probe Pipeline for one address.
type Device struct {
	IP            string `json:"ip"`
	Entity        string `json:"entity"`
	MAC           string `json:"mac,omitempty"`
	DNSHostname   string `json:"dnsHostname,omitempty"`
	NetbiosName   string `json:"netbiosName,omitempty"`
	Workgroup     string `json:"workgroup,omitempty"`
	UserSession   string `json:"userSession,omitempty"`
	Description   string `json:"description,omitempty"`
	SNMPHostname  string `json:"snmpHostname,omitempty"`
	Serial        string `json:"serial,omitempty"`
	ModelSNMP     string `json:"modelsnmp,omitempty"`
	Type          string `json:"type,omitempty"`
	NetportVendor string `json:"netportVendor,omitempty"`
	AuthSNMP      string `json:"authSnmp,omitempty"`
}

// Accepted reports whether the device satisfies the acceptance predicate:
// at least one of mac, dnsHostname, netbiosName must be non-empty.
func (d *Device) Accepted() bool {
	return d.MAC != "" || d.DNSHostname != "" || d.NetbiosName != ""
}

// Batch is a bounded group of accepted Devices flushed together to the Spool.
type Batch struct {
	Devices       []Device `json:"DEVICE"`
	ModuleVersion string   `json:"MODULEVERSION"`
	ProcessNumber string   `json:"PROCESSNUMBER"`
}

// Full reports whether the batch has reached DevicePerMessage devices.
func (b *Batch) Full() bool {
	return len(b.Devices) >= DevicePerMessage
}

// ProcessNumber computes the zero-padded day-of-year+hour+minute identifier
// that is stable for the life of a job and echoed in every outbound message.
func ProcessNumber(at time.Time) string {
	return fmt.Sprintf("%03d%02d%02d", at.YearDay(), at.Hour(), at.Minute())
}

// WorkerAction is written by the Coordinator; a Worker only resets it to
// ActionPause once its block is drained.
type WorkerAction int

const (
	ActionPause WorkerAction = iota
	ActionRun
	ActionStop
	ActionDelete
)

// WorkerState is written only by the owning Worker.
type WorkerState int

const (
	StatePause WorkerState = iota
	StateRun
	StateStop
)

func (a WorkerAction) String() string {
	switch a {
	case ActionPause:
		return "PAUSE"
	case ActionRun:
		return "RUN"
	case ActionStop:
		return "STOP"
	case ActionDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

func (s WorkerState) String() string {
	switch s {
	case StatePause:
		return "PAUSE"
	case StateRun:
		return "RUN"
	case StateStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// JobOptions bundles everything a single discovery pass needs, mirroring the
// NETDISCOVERY prolog block the server hands down.
type JobOptions struct {
	ThreadsDiscovery int
	Ranges           []Range
	Credentials      []Credential
	Dico             []byte // optional server-supplied dictionary payload
	DicoHash         string // optional expected dictionary hash

	NmapEnabled    bool
	NetbiosEnabled bool
	SNMPEnabled    bool
}
