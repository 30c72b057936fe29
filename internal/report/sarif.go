package report

import (
	"encoding/json"
	"io"

	"github.com/bmv-2143/lintchecks/internal/diag"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	ShortDescription sarifMessage    `json:"shortDescription"`
	FullDescription  sarifMessage    `json:"fullDescription"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       map[string]any  `json:"properties,omitempty"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
	Fixes     []sarifFix   `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	Physical sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int  `json:"startLine,omitempty"`
	StartColumn int  `json:"startColumn,omitempty"`
	EndLine     int  `json:"endLine,omitempty"`
	EndColumn   int  `json:"endColumn,omitempty"`
	ByteOffset  *int `json:"byteOffset,omitempty"`
	ByteLength  *int `json:"byteLength,omitempty"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArt           `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return "error"
	case diag.SeverityWarning:
		return "warning"
	}
	return "note"
}

// WriteSARIF writes diags as a SARIF 2.1.0 log with one run. issues
// describes the rules; a diagnostic whose rule is missing from issues gets
// a minimal rule entry.
func WriteSARIF(w io.Writer, version string, issues []*diag.Issue, diags []diag.Diagnostic) error {
	driver := sarifDriver{Name: "lintchecks", Version: version, Rules: []sarifRule{}}
	ruleIndex := make(map[string]int)
	for _, is := range issues {
		ruleIndex[is.ID] = len(driver.Rules)
		driver.Rules = append(driver.Rules, sarifRule{
			ID:               is.ID,
			ShortDescription: sarifMessage{Text: is.Brief},
			FullDescription:  sarifMessage{Text: is.Explanation},
			DefaultConfig:    sarifRuleConfig{Level: sarifLevel(is.Severity)},
			Properties: map[string]any{
				"category": string(is.Category),
				"priority": is.Priority,
			},
		})
	}

	results := make([]sarifResult, 0, len(diags))
	for _, d := range diags {
		idx, ok := ruleIndex[d.RuleID]
		if !ok {
			idx = len(driver.Rules)
			ruleIndex[d.RuleID] = idx
			driver.Rules = append(driver.Rules, sarifRule{
				ID:            d.RuleID,
				DefaultConfig: sarifRuleConfig{Level: sarifLevel(d.Severity)},
			})
		}
		loc := d.Location
		res := sarifResult{
			RuleID:    d.RuleID,
			RuleIndex: idx,
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLoc{{Physical: sarifPhys{
				ArtifactLocation: sarifArt{URI: loc.Path},
				Region: sarifRegion{
					StartLine:   loc.StartLine,
					StartColumn: loc.StartCol,
					EndLine:     loc.EndLine,
					EndColumn:   loc.EndCol,
				},
			}}},
		}
		if d.Fix != nil {
			offset := d.Fix.Range.StartByte
			length := d.Fix.Range.EndByte - d.Fix.Range.StartByte
			res.Fixes = []sarifFix{{
				Description: sarifMessage{Text: d.Fix.Name},
				ArtifactChanges: []sarifArtifactChange{{
					ArtifactLocation: sarifArt{URI: d.Fix.Range.Path},
					Replacements: []sarifReplacement{{
						DeletedRegion:   sarifRegion{ByteOffset: &offset, ByteLength: &length},
						InsertedContent: sarifMessage{Text: d.Fix.New},
					}},
				}},
			}}
		}
		results = append(results, res)
	}

	log := sarif{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs:    []sarifRun{{Tool: sarifTool{Driver: driver}, Results: results}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}
