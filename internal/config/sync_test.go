// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests keep the Go struct JSON tags and the CUE schema field names
// aligned so a renamed field cannot be silently dropped.

func cueFields(t *testing.T, val cue.Value) []string {
	t.Helper()

	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	var fields []string
	for iter.Next() {
		fields = append(fields, strings.TrimSuffix(iter.Selector().String(), "?"))
	}
	slices.Sort(fields)
	return fields
}

func jsonTags(typ reflect.Type) []string {
	var tags []string
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		tags = append(tags, name)
	}
	slices.Sort(tags)
	return tags
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(configSchema)
	if schema.Err() != nil {
		t.Fatalf("schema does not compile: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	tests := []struct {
		name string
		path string
		typ  reflect.Type
	}{
		{"Config", "", reflect.TypeFor[Config]()},
		{"UIConfig", "ui", reflect.TypeFor[UIConfig]()},
		{"NetworkConfig", "network", reflect.TypeFor[NetworkConfig]()},
		{"OfflineVersions", "offline_versions", reflect.TypeFor[OfflineVersions]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			val := def
			if tt.path != "" {
				val = def.LookupPath(cue.MakePath(cue.Str(tt.path).Optional()))
			}
			if !val.Exists() {
				t.Fatalf("#Config.%s missing from schema", tt.path)
			}
			if got, want := cueFields(t, val), jsonTags(tt.typ); !slices.Equal(got, want) {
				t.Errorf("CUE fields %v, Go JSON tags %v", got, want)
			}
		})
	}
}
