package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dlclark/regexp2"

	"neoagent/internal/pkg/logger"
)

// DictionaryEntry binds one description pattern to a Model. Pattern is matched
// against an SNMP system description either as an exact string or, when it
// looks like a regular expression (contains any of .*+?[]()|^$\), via regexp2
// (.NET-flavoured regex, matching the pattern language the server dictionary
// payload is authored against).
type DictionaryEntry struct {
	Pattern string `json:"pattern"`
	Model   Model  `json:"model"`
}

// Dictionary is an immutable mapping from system-description patterns to
// Models, identified by a content hash.
type Dictionary struct {
	Hash    string             `json:"hash"`
	Entries []DictionaryEntry  `json:"entries"`

	compiled []*regexp2.Regexp // parallel to Entries; nil entry means exact match
}

// BuiltinDictionary is the fallback Dictionary used when the server supplies
// none and no cached copy is found. It is intentionally small: a handful of
// well-known sysDescr strings. None contains a regex metacharacter, so each
// matches only a description exactly equal to it.
func BuiltinDictionary() *Dictionary {
	entries := []DictionaryEntry{
		{
			Pattern: "Cisco IOS",
			Model:   Model{ModelSNMP: "CISCO-GENERIC", Type: "NETWORKING", Serial: "1.3.6.1.2.1.47.1.1.1.1.11.1", MAC: "1.3.6.1.2.1.17.1.1.0", MACDyn: "1.3.6.1.2.1.2.2.1.6"},
		},
		{
			Pattern: "HP ETHERNET MULTI-ENVIRONMENT",
			Model:   Model{ModelSNMP: "HP-PRINTER", Type: "PRINTER", Serial: "1.3.6.1.2.1.43.5.1.1.17.1", MAC: "1.3.6.1.2.1.17.1.1.0", MACDyn: "1.3.6.1.2.1.2.2.1.6"},
		},
	}
	return newDictionary(entries)
}

func newDictionary(entries []DictionaryEntry) *Dictionary {
	d := &Dictionary{Entries: entries}
	d.Hash = computeHash(entries)
	d.compile()
	return d
}

func (d *Dictionary) compile() {
	d.compiled = make([]*regexp2.Regexp, len(d.Entries))
	for i, e := range d.Entries {
		if !looksLikePattern(e.Pattern) {
			continue
		}
		re, err := regexp2.Compile(e.Pattern, regexp2.IgnoreCase)
		if err != nil {
			logger.Debugf("dictionary: entry %q does not compile as regex, falling back to exact match: %v", e.Pattern, err)
			continue
		}
		d.compiled[i] = re
	}
}

func looksLikePattern(s string) bool {
	for _, c := range s {
		switch c {
		case '.', '*', '+', '?', '[', ']', '(', ')', '|', '^', '$', '\\':
			return true
		}
	}
	return false
}

func computeHash(entries []DictionaryEntry) string {
	b, _ := json.Marshal(entries)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Classify looks up the Model whose pattern matches description. Exact
// patterns match by equality; regex-shaped patterns match anywhere in the
// description. Returns ok=false when nothing matches.
func (d *Dictionary) Classify(description string) (Model, bool) {
	if d == nil || description == "" {
		return Model{}, false
	}
	for i, e := range d.Entries {
		if re := d.compiled[i]; re != nil {
			if m, err := re.FindStringMatch(description); err == nil && m != nil {
				return e.Model, true
			}
			continue
		}
		if e.Pattern == description {
			return e.Model, true
		}
	}
	return Model{}, false
}

// storedDictionary is the Spool payload persisted under DictionaryKey.
type storedDictionary struct {
	Hash    string             `json:"hash"`
	Entries []DictionaryEntry  `json:"entries"`
}

// ResolveDictionary negotiates which Dictionary is in force for this job,
// following the server-supplied / cached / built-in precedence and the
// hash-equality handshake described by the discovery contract.
//
// refused is true when the resolved dictionary's hash disagrees with the
// server-supplied dicoHash: callers must send a refresh request and abort.
func ResolveDictionary(spool Spool, serverDico []byte, dicoHash string) (dict *Dictionary, refused bool, err error) {
	var resolved *Dictionary

	if len(serverDico) > 0 {
		var entries []DictionaryEntry
		if err := json.Unmarshal(serverDico, &entries); err != nil {
			return nil, false, fmt.Errorf("parse server dictionary: %w", err)
		}
		resolved = newDictionary(entries)
		if err := saveDictionary(spool, resolved); err != nil {
			return nil, false, fmt.Errorf("persist dictionary: %w", err)
		}
	} else if cached, ok, err := loadDictionary(spool); err != nil {
		return nil, false, fmt.Errorf("restore cached dictionary: %w", err)
	} else if ok {
		resolved = cached
	}

	if resolved == nil {
		resolved = BuiltinDictionary()
	}

	if dicoHash != "" && dicoHash != resolved.Hash {
		return resolved, true, nil
	}

	return resolved, false, nil
}

func saveDictionary(spool Spool, d *Dictionary) error {
	payload, err := json.Marshal(storedDictionary{Hash: d.Hash, Entries: d.Entries})
	if err != nil {
		return err
	}
	return spool.Save(DictionaryKey, payload)
}

func loadDictionary(spool Spool) (*Dictionary, bool, error) {
	raw, err := spool.Restore(DictionaryKey)
	if err != nil {
		return nil, false, nil //nolint: no cached entry is not an error condition
	}
	var sd storedDictionary
	if err := json.Unmarshal(raw, &sd); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached dictionary: %w", err)
	}
	d := newDictionary(sd.Entries)
	d.Hash = sd.Hash
	return d, true, nil
}
