package shaders

import (
	"regexp"

	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

var (
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	uniformDecl  = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[[^\]]*\])?\s*;`)
)

var uniformTypes = map[string]metadata.ParameterType{
	"bool":      metadata.ParameterTypeBool,
	"int":       metadata.ParameterTypeInt,
	"uint":      metadata.ParameterTypeUint,
	"float":     metadata.ParameterTypeFloat,
	"vec2":      metadata.ParameterTypeVec2,
	"vec3":      metadata.ParameterTypeVec3,
	"vec4":      metadata.ParameterTypeVec4,
	"sampler2D": metadata.ParameterTypeTexture,
}

func stripComments(src string) string {
	src = blockComment.ReplaceAllString(src, "")
	return lineComment.ReplaceAllString(src, "")
}

// ParseUniforms lists the uniforms declared in src that a material can hold a
// value for, in declaration order. Matrices, arrays of blocks and reserved
// engine identifiers are skipped.
func ParseUniforms(src string) []metadata.ParameterSpec {
	var out []metadata.ParameterSpec
	for _, m := range uniformDecl.FindAllStringSubmatch(stripComments(src), -1) {
		t, ok := uniformTypes[m[1]]
		if !ok || metadata.IsReservedParameter(m[2]) {
			continue
		}
		out = append(out, metadata.ParameterSpec{Name: m[2], Type: t})
	}
	return out
}

// mergeUniforms concatenates per-stage declarations; the first declaration of
// a name wins.
func mergeUniforms(lists ...[]metadata.ParameterSpec) []metadata.ParameterSpec {
	seen := map[string]struct{}{}
	var out []metadata.ParameterSpec
	for _, list := range lists {
		for _, u := range list {
			if _, ok := seen[u.Name]; ok {
				continue
			}
			seen[u.Name] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
