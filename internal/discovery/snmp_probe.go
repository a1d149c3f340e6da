package discovery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"neoagent/internal/pkg/logger"
)

const (
	oidSysDescr = "1.3.6.1.2.1.1.1.0"
	oidSysName  = "1.3.6.1.2.1.1.5.0"

	// oidFallbackMAC is the dot1dBaseBridgeAddress, tried when no Model
	// matched or the matched Model has no MAC OID.
	oidFallbackMAC = "1.3.6.1.2.1.17.1.1.0"
	// oidFallbackMACWalk is the ifPhysAddress subtree, walked to find the
	// last non-zero MAC when the scalar fallback is also absent.
	oidFallbackMACWalk = "1.3.6.1.2.1.2.2.1.6"
)

var canonicalMAC = regexp.MustCompile(`^[0-9a-f]{2}(:[0-9a-f]{2}){5}$`)

// SNMPResult carries everything the Probe Pipeline folds into a Device from
// one successful SNMP classification.
type SNMPResult struct {
	Description  string
	SNMPHostname string
	Serial       string
	MAC          string
	ModelSNMP    string
	Type         string
	AuthSNMP     string // the credential ID that succeeded
}

// Refiner inspects a raw sysDescr, optionally overriding
// Model selection for a manufacturer that embeds finer-grained product
// information in the description than the Dictionary's coarse patterns.
type Refiner interface {
	// Refine returns ok=true when it recognizes description and supplies a
	// more specific Model than Dictionary.Classify would have.
	Refine(description string) (Model, bool)
}

// ClassifySNMP iterates credentials in order against addr, stopping at the
// first one that yields a usable sysDescr. It then classifies that
// description via refiners (tried first, in order; the first to recognize it wins) and falls back
// to dict, extracting Serial/MAC per the selected Model's OID bindings.
//
// A credential whose session construction or connect fails is skipped in
// favor of the next one. A credential that connects but gets back no
// sysDescr aborts the whole stage for this address instead: the address
// yields no SNMP result, and no further credential is tried.
func ClassifySNMP(addr string, credentials []Credential, dict *Dictionary, refiners []Refiner, timeout time.Duration) (SNMPResult, bool) {
	for _, cred := range credentials {
		client, err := newSNMPClient(addr, cred, timeout)
		if err != nil {
			logger.Debugf("snmp: %s: build client for credential %s: %v", addr, cred.ID, err)
			continue
		}
		if err := client.Connect(); err != nil {
			logger.Debugf("snmp: %s: connect with credential %s: %v", addr, cred.ID, err)
			continue
		}
		result, err := probeWithClient(client, cred, dict, refiners)
		client.Conn.Close()
		if err == nil {
			return result, true
		}
		if err == errEmptySysDescr {
			logger.Debugf("snmp: %s: credential %s connected but sysDescr is absent, aborting stage", addr, cred.ID)
			return SNMPResult{}, false
		}
		logger.Debugf("snmp: %s: credential %s: %v", addr, cred.ID, err)
	}
	return SNMPResult{}, false
}

func newSNMPClient(addr string, cred Credential, timeout time.Duration) (*gosnmp.GoSNMP, error) {
	client := &gosnmp.GoSNMP{
		Target:    addr,
		Port:      161,
		Timeout:   timeout,
		Retries:   1,
	}
	switch cred.Version {
	case SNMPv1:
		client.Version = gosnmp.Version1
		client.Community = cred.Community
	case SNMPv2c:
		client.Version = gosnmp.Version2c
		client.Community = cred.Community
	case SNMPv3:
		client.Version = gosnmp.Version3
		client.SecurityModel = gosnmp.UserSecurityModel
		client.MsgFlags = securityLevel(cred)
		client.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 cred.Username,
			AuthenticationProtocol:   authProtocol(cred.AuthProtocol),
			AuthenticationPassphrase: cred.AuthPassword,
			PrivacyProtocol:          privProtocol(cred.PrivProtocol),
			PrivacyPassphrase:        cred.PrivPassword,
		}
	default:
		return nil, fmt.Errorf("unsupported snmp version %q", cred.Version)
	}
	return client, nil
}

func securityLevel(cred Credential) gosnmp.SnmpV3MsgFlags {
	switch {
	case cred.PrivPassword != "":
		return gosnmp.AuthPriv
	case cred.AuthPassword != "":
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

func authProtocol(name string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToUpper(name) {
	case "SHA":
		return gosnmp.SHA
	case "MD5":
		return gosnmp.MD5
	default:
		return gosnmp.NoAuth
	}
}

func privProtocol(name string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToUpper(name) {
	case "AES":
		return gosnmp.AES
	case "DES":
		return gosnmp.DES
	default:
		return gosnmp.NoPriv
	}
}

// errEmptySysDescr signals that a credential connected successfully but the
// agent returned no sysDescr. Per the SNMP Classifier contract this aborts
// the whole stage for this address rather than falling through to the next
// credential, unlike a session-construction or connect failure.
var errEmptySysDescr = errors.New("snmp: sysDescr absent or empty")

func probeWithClient(client *gosnmp.GoSNMP, cred Credential, dict *Dictionary, refiners []Refiner) (SNMPResult, error) {
	pdus, err := client.Get([]string{oidSysDescr, oidSysName})
	if err != nil {
		return SNMPResult{}, fmt.Errorf("get sysDescr/sysName: %w", err)
	}
	description, hostname, err := sysDescrFromPDUs(pdus)
	if err != nil {
		return SNMPResult{}, err
	}

	model, ok := classifyDescription(description, dict, refiners)
	if !ok {
		return SNMPResult{
			Description:  description,
			SNMPHostname: hostname,
			MAC:          fetchMAC(client, "", ""),
			AuthSNMP:     cred.ID,
		}, nil
	}

	result := SNMPResult{
		Description:  description,
		SNMPHostname: hostname,
		ModelSNMP:    model.ModelSNMP,
		Type:         model.Type,
		AuthSNMP:     cred.ID,
	}
	result.Serial = fetchSerial(client, model.Serial)
	result.MAC = fetchMAC(client, model.MAC, model.MACDyn)
	return result, nil
}

// sysDescrFromPDUs pulls sysDescr/sysName out of a Get response, returning
// errEmptySysDescr when the agent answered but sysDescr came back absent or
// blank.
func sysDescrFromPDUs(pdus *gosnmp.SnmpPacket) (description, hostname string, err error) {
	if pdus == nil || len(pdus.Variables) == 0 {
		return "", "", errEmptySysDescr
	}
	description = pduString(pdus.Variables[0])
	if description == "" {
		return "", "", errEmptySysDescr
	}
	if len(pdus.Variables) > 1 {
		hostname = pduString(pdus.Variables[1])
	}
	return description, hostname, nil
}

func classifyDescription(description string, dict *Dictionary, refiners []Refiner) (Model, bool) {
	for _, r := range refiners {
		if m, ok := r.Refine(description); ok {
			return m, true
		}
	}
	return dict.Classify(description)
}

// fetchSerial retrieves and cleans the serial number: strips CR/LF, trims
// surrounding whitespace, and collapses a value of two or more dots down to
// empty (a common "not configured" sentinel on printer/network firmware).
func fetchSerial(client *gosnmp.GoSNMP, oid string) string {
	if oid == "" {
		return ""
	}
	pdus, err := client.Get([]string{oid})
	if err != nil || len(pdus.Variables) == 0 {
		return ""
	}
	raw := pduString(pdus.Variables[0])
	raw = strings.ReplaceAll(raw, "\r", "")
	raw = strings.ReplaceAll(raw, "\n", "")
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") >= 2 && strings.Trim(raw, ".") == "" {
		return ""
	}
	return raw
}

// fetchMAC reads the scalar MAC OID first; if absent or not in canonical
// aa:bb:cc:dd:ee:ff form, walks the dynamic subtree and returns the last
// non-zero MAC found.
func fetchMAC(client *gosnmp.GoSNMP, scalarOID, walkOID string) string {
	if scalarOID == "" {
		scalarOID = oidFallbackMAC
	}
	if pdus, err := client.Get([]string{scalarOID}); err == nil && len(pdus.Variables) > 0 {
		if mac := normalizeMAC(pdus.Variables[0]); mac != "" {
			return mac
		}
	}

	if walkOID == "" {
		walkOID = oidFallbackMACWalk
	}
	var found string
	err := client.Walk(walkOID, func(pdu gosnmp.SnmpPDU) error {
		if mac := normalizeMAC(pdu); mac != "" && mac != "00:00:00:00:00:00" {
			found = mac
		}
		return nil
	})
	if err != nil {
		logger.Debugf("snmp: walk %s: %v", walkOID, err)
	}
	return found
}

func normalizeMAC(pdu gosnmp.SnmpPDU) string {
	raw, ok := pdu.Value.([]byte)
	if !ok || len(raw) != 6 {
		return ""
	}
	mac := fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", raw[0], raw[1], raw[2], raw[3], raw[4], raw[5])
	if !canonicalMAC.MatchString(mac) {
		return ""
	}
	return mac
}

func pduString(v gosnmp.SnmpPDU) string {
	switch val := v.Value.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return ""
	}
}
