// Package wals ingests WALS chapter exports: the XML dialect of
// <feature number name> elements holding <v numeric description> value
// groups, each listing <l c n lat lng/> language entries. The reader is the
// acquisition collaborator; it only produces the normalized dataset shape
// the engine consumes.
package wals

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/internal"
)

// Reader loads feature datasets from WALS XML export files. File order is
// preserved, because dataset order decides first-seen-wins deduplication.
type Reader struct {
	paths []string
	log   *internal.Logger
}

// NewReader creates a reader over the given export files.
func NewReader(paths ...string) *Reader {
	return &Reader{
		paths: paths,
		log:   internal.DefaultLogger.Component("WALSReader"),
	}
}

// Load parses every file into a feature dataset, in path order.
func (r *Reader) Load(ctx context.Context) ([]atlas.FeatureDataset, error) {
	if len(r.paths) == 0 {
		return nil, fmt.Errorf("wals: no input files: %w", core.ErrNoFeatureData)
	}

	datasets := make([]atlas.FeatureDataset, 0, len(r.paths))
	for _, path := range r.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("wals: reading %s: %w", path, err)
		}

		ds, err := r.Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("wals: parsing %s: %w", path, err)
		}
		r.log.Info("loaded %s (%s): %d languages", ds.FeatureID, ds.FeatureName, ds.Len())
		datasets = append(datasets, *ds)
	}
	return datasets, nil
}

// xml element shapes of the WALS export dialect
type xmlFeature struct {
	Number string     `xml:"number,attr"`
	Name   string     `xml:"name,attr"`
	Values []xmlValue `xml:"v"`
}

type xmlValue struct {
	Numeric     string        `xml:"numeric,attr"`
	Description string        `xml:"description,attr"`
	Languages   []xmlLanguage `xml:"l"`
}

type xmlLanguage struct {
	Code string `xml:"c,attr"`
	Name string `xml:"n,attr"`
	Lat  string `xml:"lat,attr"`
	Lng  string `xml:"lng,attr"`
}

// Parse converts one export document into a feature dataset, preserving
// document order. Placeholder inputs (empty, comment-only, or without a
// feature element) fail with NoFeatureData; language entries whose
// coordinates do not parse are dropped with a warning, never fatal.
func (r *Reader) Parse(document string) (*atlas.FeatureDataset, error) {
	document = strings.TrimSpace(document)
	if document == "" || strings.HasPrefix(document, "<!--") || !strings.Contains(document, "<feature") {
		return nil, core.ErrNoFeatureData
	}

	var root xmlFeature
	if err := xml.Unmarshal([]byte(sanitize(document)), &root); err != nil {
		return nil, fmt.Errorf("xml parse error: %w", err)
	}

	ds := &atlas.FeatureDataset{
		FeatureID:   attrOrUnknown(root.Number),
		FeatureName: attrOrUnknown(root.Name),
		ValueLabels: make(map[int]string),
	}

	for _, v := range root.Values {
		numeric, err := strconv.Atoi(v.Numeric)
		if err != nil {
			r.log.Warn("skipping value group with non-numeric code %q in %s", v.Numeric, ds.FeatureID)
			continue
		}
		if v.Description != "" {
			ds.ValueLabels[numeric] = v.Description
		}

		for _, l := range v.Languages {
			lat, latErr := strconv.ParseFloat(l.Lat, 64)
			lng, lngErr := strconv.ParseFloat(l.Lng, 64)
			if latErr != nil || lngErr != nil {
				r.log.Warn("could not parse coordinates for %s (%s)", l.Name, l.Code)
				continue
			}
			ds.Languages = append(ds.Languages, atlas.LanguageObservation{
				ID:        l.Code,
				Name:      l.Name,
				Latitude:  lat,
				Longitude: lng,
				Value:     numeric,
			})
		}
	}

	if ds.Len() == 0 {
		return nil, fmt.Errorf("feature %s: %w", ds.FeatureID, core.ErrNoFeatureData)
	}
	return ds, nil
}

func attrOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// sanitize escapes bare ampersands so real-world exports with unescaped
// entities still parse, without double-escaping ones already written as
// &amp;. Apostrophe character references are flattened to the literal.
func sanitize(s string) string {
	const guard = "\x00AMP\x00"
	s = strings.ReplaceAll(s, "&amp;", guard)
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, guard, "&amp;")
	s = strings.ReplaceAll(s, "&amp;#39;", "'")
	s = strings.ReplaceAll(s, "&#39;", "'")
	return s
}
