package diffs

import (
	"fmt"
	"strings"
)

// Artifact identifies one category of simulation output compared between the
// base and modified builds.
type Artifact string

// Kind describes the shape of the diff the upstream engine produces for an artifact.
type Kind string

const (
	KindText  Kind = "text"
	KindMath  Kind = "math"
	KindTable Kind = "table"
)

const (
	// ArtifactAudit is the input-processing audit log (.audit).
	ArtifactAudit Artifact = "audit"

	// ArtifactBinaryIndex is the branch/node connection report (.bnd).
	ArtifactBinaryIndex Artifact = "binary-index"

	// ArtifactDaylightingIn and ArtifactDaylightingOut are the daylighting
	// engine input and output files.
	ArtifactDaylightingIn  Artifact = "daylighting-in"
	ArtifactDaylightingOut Artifact = "daylighting-out"

	// ArtifactVectorGraphics is the geometry drawing export (.dxf).
	ArtifactVectorGraphics Artifact = "vector-graphics"

	// ArtifactEngineeringIO is the engineering input/output echo (.eio).
	ArtifactEngineeringIO Artifact = "engineering-io"

	// ArtifactErrorLog is the simulation error log (.err).
	ArtifactErrorLog Artifact = "error-log"

	// ArtifactEnergySeries is the time-series variable output (.eso).
	ArtifactEnergySeries Artifact = "energy-series"

	// ArtifactMeterDictionary is the meter data dictionary (.mdd).
	ArtifactMeterDictionary Artifact = "meter-dictionary"

	// ArtifactMeterDetails is the meter details listing (.mtd).
	ArtifactMeterDetails Artifact = "meter-details"

	// ArtifactMeterSeries is the time-series meter output (.mtr).
	ArtifactMeterSeries Artifact = "meter-series"

	// ArtifactReportDictionary is the report variable dictionary (.rdd).
	ArtifactReportDictionary Artifact = "report-dictionary"

	// ArtifactShading is the shading calculation output (.shd).
	ArtifactShading Artifact = "shading"

	// ArtifactSizingSystem and ArtifactSizingZone are the system and zone
	// sizing summaries (.ssz, .zsz).
	ArtifactSizingSystem Artifact = "sizing-system"
	ArtifactSizingZone   Artifact = "sizing-zone"

	// ArtifactTabularSummary is the tabular summary report.
	ArtifactTabularSummary Artifact = "tabular-summary"
)

type artifactInfo struct {
	slot  string
	label string
	kind  Kind
}

// The order of this list is the canonical artifact order used for messages and reports.
var artifacts = []Artifact{
	ArtifactAudit,
	ArtifactBinaryIndex,
	ArtifactDaylightingIn,
	ArtifactDaylightingOut,
	ArtifactVectorGraphics,
	ArtifactEngineeringIO,
	ArtifactErrorLog,
	ArtifactEnergySeries,
	ArtifactMeterDictionary,
	ArtifactMeterDetails,
	ArtifactMeterSeries,
	ArtifactReportDictionary,
	ArtifactShading,
	ArtifactSizingSystem,
	ArtifactSizingZone,
	ArtifactTabularSummary,
}

var artifactTable = map[Artifact]artifactInfo{
	ArtifactAudit:            {slot: "aud_diffs", label: "AUD", kind: KindText},
	ArtifactBinaryIndex:      {slot: "bnd_diffs", label: "BND", kind: KindText},
	ArtifactDaylightingIn:    {slot: "dl_in_diffs", label: "delightin", kind: KindText},
	ArtifactDaylightingOut:   {slot: "dl_out_diffs", label: "delightout", kind: KindText},
	ArtifactVectorGraphics:   {slot: "dxf_diffs", label: "DXF", kind: KindText},
	ArtifactEngineeringIO:    {slot: "eio_diffs", label: "EIO", kind: KindText},
	ArtifactErrorLog:         {slot: "err_diffs", label: "ERR", kind: KindText},
	ArtifactEnergySeries:     {slot: "eso_diffs", label: "ESO", kind: KindMath},
	ArtifactMeterDictionary:  {slot: "mdd_diffs", label: "MDD", kind: KindText},
	ArtifactMeterDetails:     {slot: "mtd_diffs", label: "MTD", kind: KindText},
	ArtifactMeterSeries:      {slot: "mtr_diffs", label: "MTR", kind: KindMath},
	ArtifactReportDictionary: {slot: "rdd_diffs", label: "RDD", kind: KindText},
	ArtifactShading:          {slot: "shd_diffs", label: "SHD", kind: KindText},
	ArtifactSizingSystem:     {slot: "ssz_diffs", label: "SSZ", kind: KindMath},
	ArtifactSizingZone:       {slot: "zsz_diffs", label: "ZSZ", kind: KindMath},
	ArtifactTabularSummary:   {slot: "table_diffs", label: "Table", kind: KindTable},
}

// Artifacts returns all artifact types in canonical order.
func Artifacts() []Artifact {
	out := make([]Artifact, len(artifacts))
	copy(out, artifacts)
	return out
}

// Slot returns the document key holding this artifact's diff (e.g. "aud_diffs").
func (a Artifact) Slot() string {
	return artifactTable[a].slot
}

// Label returns the short name used in CI messages (e.g. "AUD").
func (a Artifact) Label() string {
	return artifactTable[a].label
}

// Kind returns the diff shape produced upstream for this artifact.
func (a Artifact) Kind() Kind {
	return artifactTable[a].kind
}

// Valid reports whether a is one of the known artifact types.
func (a Artifact) Valid() bool {
	_, ok := artifactTable[a]
	return ok
}

func (a Artifact) String() string {
	return string(a)
}

// ParseArtifact resolves an artifact from its name, slot key or label (case-insensitive).
func ParseArtifact(raw string) (Artifact, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("artifact name is empty")
	}
	for _, a := range artifacts {
		info := artifactTable[a]
		if s == string(a) || s == info.slot || s == strings.ToLower(info.label) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown artifact: %s", raw)
}
