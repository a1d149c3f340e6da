package discovery

import "testing"

func TestDictionaryClassifyExactMatch(t *testing.T) {
	d := BuiltinDictionary()
	m, ok := d.Classify("Cisco IOS")
	if !ok {
		t.Fatal("expected exact match")
	}
	if m.ModelSNMP != "CISCO-GENERIC" {
		t.Errorf("got model %q", m.ModelSNMP)
	}
}

func TestDictionaryClassifyNoMatch(t *testing.T) {
	d := BuiltinDictionary()
	if _, ok := d.Classify("something unrelated"); ok {
		t.Fatal("expected no match")
	}
}

func TestDictionaryClassifyRegexPattern(t *testing.T) {
	d := newDictionary([]DictionaryEntry{
		{Pattern: `^Acme Switch v\d+\.\d+$`, Model: Model{ModelSNMP: "ACME-SWITCH", Type: "NETWORKING"}},
	})
	m, ok := d.Classify("Acme Switch v2.4")
	if !ok {
		t.Fatal("expected regex match")
	}
	if m.ModelSNMP != "ACME-SWITCH" {
		t.Errorf("got model %q", m.ModelSNMP)
	}
}

func TestResolveDictionaryUsesServerSupplied(t *testing.T) {
	spool := NewMemorySpool()
	entries := `[{"pattern":"Foo","model":{"ModelSNMP":"FOO-1"}}]`
	dict, refused, err := ResolveDictionary(spool, []byte(entries), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refused {
		t.Fatal("did not expect refusal when no hash was supplied")
	}
	if m, ok := dict.Classify("Foo"); !ok || m.ModelSNMP != "FOO-1" {
		t.Fatalf("expected resolved dictionary to classify Foo, got %+v ok=%v", m, ok)
	}

	cached, _, err := ResolveDictionary(spool, nil, "")
	if err != nil {
		t.Fatalf("unexpected error restoring cache: %v", err)
	}
	if cached.Hash != dict.Hash {
		t.Fatal("expected cached dictionary to round-trip with the same hash")
	}
}

func TestResolveDictionaryFallsBackToBuiltin(t *testing.T) {
	spool := NewMemorySpool()
	dict, refused, err := ResolveDictionary(spool, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refused {
		t.Fatal("builtin dictionary with no expected hash should never be refused")
	}
	if dict.Hash != BuiltinDictionary().Hash {
		t.Fatal("expected builtin dictionary fallback")
	}
}

func TestResolveDictionaryRefusesOnHashMismatch(t *testing.T) {
	spool := NewMemorySpool()
	_, refused, err := ResolveDictionary(spool, nil, "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !refused {
		t.Fatal("expected refusal when expected hash does not match resolved dictionary")
	}
}
