package report

import (
	"fmt"
	"strings"
)

// maxSheetNameLen is the sheet-name length limit imposed by the XLSX format.
const maxSheetNameLen = 31

// sheetNameStripper removes the characters XLSX sheet names cannot contain.
var sheetNameStripper = strings.NewReplacer(
	"/", "", "\\", "", "[", "", "]", "", ":", "", "*", "", "?", "",
)

// SanitizeSheetName strips forbidden characters from a contract name and
// truncates it to the sheet-name limit. Empty results fall back to "Sheet".
func SanitizeSheetName(name string) string {
	clean := strings.TrimSpace(sheetNameStripper.Replace(name))
	if clean == "" {
		clean = "Sheet"
	}
	if len(clean) > maxSheetNameLen {
		clean = clean[:maxSheetNameLen]
	}
	return clean
}

// sheetNamer hands out sanitized sheet names, de-duplicating truncation
// collisions with a ~N suffix so two long, similar contract names cannot
// silently overwrite each other's section.
type sheetNamer struct {
	used map[string]int
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]int)}
}

// Name returns a unique sheet name for the given contract name.
func (n *sheetNamer) Name(contract string) string {
	base := SanitizeSheetName(contract)
	key := strings.ToLower(base) // sheet names are case-insensitive in XLSX

	count := n.used[key]
	n.used[key] = count + 1
	if count == 0 {
		return base
	}

	for {
		suffix := fmt.Sprintf("~%d", count+1)
		candidate := base
		if len(candidate)+len(suffix) > maxSheetNameLen {
			candidate = candidate[:maxSheetNameLen-len(suffix)]
		}
		candidate += suffix

		candidateKey := strings.ToLower(candidate)
		if _, taken := n.used[candidateKey]; !taken {
			n.used[candidateKey] = 1
			return candidate
		}
		count++
		n.used[key] = count + 1
	}
}
