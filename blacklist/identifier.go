// Package blacklist provides the two exclusion filters applied before an
// observation is persisted: one over network identifiers (SSID/BSSID), one
// over geographic zones.
package blacklist

import (
	"bufio"
	"os"
	"strings"

	"github.com/golang/glog"
)

// IdentifierList answers whether an SSID or BSSID is excluded from logging,
// e.g. access points on buses and trains. Rules come from a built-in default
// list and a user-editable custom list; a missing file is simply an empty
// rule set. Read-only after Load.
type IdentifierList struct {
	exact    map[string]struct{}
	prefixes []string
	suffixes []string
}

// LoadIdentifierList reads rules from the default and custom list files and
// unions them. Either path may be empty or point to a missing file.
//
// The format is one rule per line: an exact identifier, "prefix*" or
// "*suffix". Blank lines and lines starting with # are skipped. Rules are
// matched case-sensitively against the canonicalized (uppercased) identifier,
// so rules are uppercased at load time.
func LoadIdentifierList(defaultPath, customPath string) *IdentifierList {
	l := &IdentifierList{exact: make(map[string]struct{})}
	for _, path := range []string{defaultPath, customPath} {
		if path == "" {
			continue
		}
		if err := l.addFile(path); err != nil {
			glog.Warningf("identifier blacklist %q not loaded: %v", path, err)
		}
	}
	glog.Infof("loaded %d identifier blacklist rules", len(l.exact)+len(l.prefixes)+len(l.suffixes))
	return l
}

func (l *IdentifierList) addFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rule := strings.TrimSpace(scanner.Text())
		if rule == "" || strings.HasPrefix(rule, "#") {
			continue
		}
		rule = strings.ToUpper(rule)
		switch {
		case strings.HasSuffix(rule, "*"):
			l.prefixes = append(l.prefixes, strings.TrimSuffix(rule, "*"))
		case strings.HasPrefix(rule, "*"):
			l.suffixes = append(l.suffixes, strings.TrimPrefix(rule, "*"))
		default:
			l.exact[rule] = struct{}{}
		}
	}
	return scanner.Err()
}

// Contains reports whether the identifier matches any rule.
func (l *IdentifierList) Contains(id string) bool {
	id = strings.ToUpper(id)
	if _, ok := l.exact[id]; ok {
		return true
	}
	for _, p := range l.prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	for _, s := range l.suffixes {
		if strings.HasSuffix(id, s) {
			return true
		}
	}
	return false
}

// Len returns the number of loaded rules.
func (l *IdentifierList) Len() int {
	return len(l.exact) + len(l.prefixes) + len(l.suffixes)
}
