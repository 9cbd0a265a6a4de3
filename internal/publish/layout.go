package publish

import (
	"path"
	"strings"
	"time"
)

// Layout addresses one published comparison in the object store:
//
//	{prefix}/{YYYY-MM}/{base}-{mod}/{case}/{device}/
type Layout struct {
	Prefix   string
	Month    string
	BaseSHA  string
	ModSHA   string
	Case     string
	DeviceID string
}

// NewLayout stamps the layout with the month of now.
func NewLayout(prefix string, now time.Time, baseSHA, modSHA, caseName, deviceID string) Layout {
	return Layout{
		Prefix:   strings.Trim(prefix, "/"),
		Month:    now.Format("2006-01"),
		BaseSHA:  baseSHA,
		ModSHA:   modSHA,
		Case:     caseName,
		DeviceID: deviceID,
	}
}

// Dir is the key prefix shared by every object of this comparison.
func (l Layout) Dir() string {
	parts := []string{l.Month, l.BaseSHA + "-" + l.ModSHA, l.Case, l.DeviceID}
	if l.Prefix != "" {
		parts = append([]string{l.Prefix}, parts...)
	}
	return strings.Join(parts, "/")
}

// FileKey is the key of a raw artifact.
func (l Layout) FileKey(name string) string {
	return l.Dir() + "/" + path.Base(name)
}

// ViewerKey is the key of the HTML viewer page for a raw artifact.
func (l Layout) ViewerKey(name string) string {
	return l.FileKey(name) + ".html"
}

func (l Layout) IndexKey() string {
	return l.Dir() + "/index.html"
}
