package discovery

import (
	"context"
	"testing"
)

func TestProbeAllDisabledYieldsBareDevice(t *testing.T) {
	device := Probe(context.Background(), AddressItem{IP: "10.0.0.1", Entity: "e"}, ProbeOptions{})
	if device.IP != "10.0.0.1" || device.Entity != "e" {
		t.Fatalf("got %+v", device)
	}
	if device.Accepted() {
		t.Fatal("a bare device with no probes run must not be accepted")
	}
	if device.MAC != "" {
		t.Fatalf("expected no mac with all probes disabled, got %s", device.MAC)
	}
}

func TestProbeSNMPSkippedWithoutDictionary(t *testing.T) {
	device := Probe(context.Background(), AddressItem{IP: "10.0.0.1"}, ProbeOptions{SNMPEnabled: true, Dictionary: nil})
	if device.Accepted() {
		t.Fatal("snmp probe must be skipped when no dictionary is resolved")
	}
}

func TestProbeRejectsEmptyOrMalformedIP(t *testing.T) {
	cases := []string{"", "not-an-ip", "10.0.0.256", "2001:db8::1", "010.0.0.1"}
	for _, ip := range cases {
		device := Probe(context.Background(), AddressItem{IP: ip, Entity: "e"}, ProbeOptions{})
		if device.IP != "" || device.Entity != "" {
			t.Fatalf("ip %q: expected an empty rejected device, got %+v", ip, device)
		}
	}
}
