package discovery

import (
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
)

func TestSysDescrFromPDUsNilPacketAborts(t *testing.T) {
	_, _, err := sysDescrFromPDUs(nil)
	if !errors.Is(err, errEmptySysDescr) {
		t.Fatalf("expected errEmptySysDescr, got %v", err)
	}
}

func TestSysDescrFromPDUsNoVariablesAborts(t *testing.T) {
	_, _, err := sysDescrFromPDUs(&gosnmp.SnmpPacket{})
	if !errors.Is(err, errEmptySysDescr) {
		t.Fatalf("expected errEmptySysDescr, got %v", err)
	}
}

func TestSysDescrFromPDUsBlankDescriptionAborts(t *testing.T) {
	pkt := &gosnmp.SnmpPacket{
		Variables: []gosnmp.SnmpPDU{
			{Value: []byte("")},
		},
	}
	_, _, err := sysDescrFromPDUs(pkt)
	if !errors.Is(err, errEmptySysDescr) {
		t.Fatalf("expected errEmptySysDescr, got %v", err)
	}
}

func TestSysDescrFromPDUsReturnsDescriptionAndHostname(t *testing.T) {
	pkt := &gosnmp.SnmpPacket{
		Variables: []gosnmp.SnmpPDU{
			{Value: []byte("Cisco IOS Software")},
			{Value: []byte("switch1")},
		},
	}
	description, hostname, err := sysDescrFromPDUs(pkt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if description != "Cisco IOS Software" || hostname != "switch1" {
		t.Fatalf("got description=%q hostname=%q", description, hostname)
	}
}

func TestSysDescrFromPDUsWithoutSysNameLeavesHostnameEmpty(t *testing.T) {
	pkt := &gosnmp.SnmpPacket{
		Variables: []gosnmp.SnmpPDU{
			{Value: []byte("Cisco IOS Software")},
		},
	}
	description, hostname, err := sysDescrFromPDUs(pkt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if description != "Cisco IOS Software" || hostname != "" {
		t.Fatalf("got description=%q hostname=%q", description, hostname)
	}
}

// TestErrEmptySysDescrIsDistinctSentinel checks the sentinel ClassifySNMP's
// loop relies on: errEmptySysDescr (a credential that connects but gets back
// no sysDescr, which aborts the whole stage for this address) must be
// distinguishable from any other per-credential error (bad session
// parameters, connect failure, which skip to the next credential).
// ClassifySNMP itself is not called here. Exercised directly
// against the sentinel rather than over a real or faked UDP session, the
// same choice the retrieval pack's own SNMP-poller tests make when the
// alternative is mocking gosnmp itself.
func TestErrEmptySysDescrIsDistinctSentinel(t *testing.T) {
	if errEmptySysDescr == nil {
		t.Fatal("errEmptySysDescr must be a non-nil sentinel")
	}

	otherErr := errors.New("connection refused")
	if errors.Is(otherErr, errEmptySysDescr) {
		t.Fatal("a generic per-credential error must not be mistaken for errEmptySysDescr")
	}

	// The loop in ClassifySNMP must distinguish these two outcomes: only
	// errEmptySysDescr stops the loop outright, everything else continues
	// to the next credential.
	abortsLoop := func(err error) bool { return errors.Is(err, errEmptySysDescr) }
	if !abortsLoop(errEmptySysDescr) {
		t.Fatal("errEmptySysDescr must abort the credential loop")
	}
	if abortsLoop(otherErr) {
		t.Fatal("a connect/session error must not abort the credential loop")
	}
}
