package schema

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// ManifestFile is one ingested data file considered for the manifest.
type ManifestFile struct {
	Source string `json:"source"`
	Bank   string `json:"bank"`
}

// Manifest groups ingested data files under the logical (bank-1) table they
// will be merged into.
type Manifest struct {
	Tables    map[string][]ManifestFile `json:"tables"`
	Unmatched []ManifestFile            `json:"unmatched"`
}

type tableKey struct {
	key     string
	logical string
}

// BuildManifest assigns each .csv/.xlsx file to a confidently matched table.
// A BankB file matches when the cleaned bank-2 table name occurs in its
// cleaned file name; a BankA file matches against the bank-1 table name.
// The first matching key in table-mapping order wins.
func BuildManifest(tableMappings []domain.TableMapping, files []ManifestFile) Manifest {
	var bank1Keys, bank2Keys []tableKey
	for _, tm := range tableMappings {
		if strings.ToLower(strings.TrimSpace(tm.Status)) != "confident match" {
			continue
		}
		bank1Keys = upsertKey(bank1Keys, cleanKey(tm.SourceTable), tm.SourceTable)
		bank2Keys = upsertKey(bank2Keys, cleanKey(tm.TargetTable), tm.SourceTable)
	}

	m := Manifest{Tables: map[string][]ManifestFile{}, Unmatched: []ManifestFile{}}
	for _, f := range files {
		name := baseName(f.Source)
		ext := strings.ToLower(path.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		var keys []tableKey
		switch f.Bank {
		case domain.BankA:
			keys = bank1Keys
		case domain.BankB:
			keys = bank2Keys
		}

		clean := cleanKey(strings.TrimSuffix(name, path.Ext(name)))
		logical := ""
		for _, k := range keys {
			if k.key != "" && strings.Contains(clean, k.key) {
				logical = k.logical
				break
			}
		}

		entry := ManifestFile{Source: strings.ReplaceAll(f.Source, `\`, "/"), Bank: f.Bank}
		if logical == "" {
			m.Unmatched = append(m.Unmatched, entry)
			continue
		}
		m.Tables[logical] = append(m.Tables[logical], entry)
	}
	return m
}

// upsertKey keeps the first position of a repeated key but takes the latest
// logical table for it.
func upsertKey(keys []tableKey, key, logical string) []tableKey {
	for i := range keys {
		if keys[i].key == key {
			keys[i].logical = logical
			return keys
		}
	}
	return append(keys, tableKey{key: key, logical: logical})
}

// cleanKey lowercases, strips diacritics and drops spaces and underscores.
func cleanKey(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) || r == ' ' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
