package shadermgr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Placeholder markers the base shader template must contain; mergeShaders
// substitutes each with generated WGSL source.
const (
	functionsPlaceholder         = "// SHADER_GLYPH_FUNCTIONS_PLACEHOLDER"
	dispatchPlaceholder          = "// SHADER_GLYPH_DISPATCH_PLACEHOLDER"
	preEffectFunctionsPlaceholder  = "// PRE_EFFECT_FUNCTIONS_PLACEHOLDER"
	preEffectApplyPlaceholder      = "// PRE_EFFECT_APPLY_PLACEHOLDER"
	postEffectFunctionsPlaceholder = "// POST_EFFECT_FUNCTIONS_PLACEHOLDER"
	postEffectApplyPlaceholder     = "// POST_EFFECT_APPLY_PLACEHOLDER"
)

func (m *Manager) mergeShaders() string {
	result := m.baseShader

	var functions strings.Builder
	libNames := make([]string, 0, len(m.libraries))
	for name := range m.libraries {
		libNames = append(libNames, name)
	}
	sort.Strings(libNames)
	for _, name := range libNames {
		functions.WriteString("// Library: ")
		functions.WriteString(name)
		functions.WriteByte('\n')
		functions.WriteString(m.libraries[name])
		functions.WriteString("\n\n")
	}
	for _, p := range m.providers {
		functions.WriteString(p.Code())
	}

	var dispatch strings.Builder
	for _, p := range m.providers {
		code := p.DispatchCode()
		if code == "" {
			continue
		}
		if dispatch.Len() > 0 {
			dispatch.WriteString(" else ")
		}
		dispatch.WriteString(code)
	}

	result = replacePlaceholder(result, functionsPlaceholder, functions.String())
	result = replacePlaceholder(result, dispatchPlaceholder, dispatch.String())

	result = replacePlaceholder(result, preEffectFunctionsPlaceholder, effectFunctions(m.preEffects, "Pre-effect"))
	result = replacePlaceholder(result, preEffectApplyPlaceholder,
		effectApply(m.preEffects, "preEffectIndex",
			"    glyphIndex = %s(glyphIndex, cellCol, cellRow, globals.time, array<f32, 6>(grid.preEffectP0, grid.preEffectP1, grid.preEffectP2, grid.preEffectP3, grid.preEffectP4, grid.preEffectP5));\n"))

	result = replacePlaceholder(result, postEffectFunctionsPlaceholder, effectFunctions(m.postEffects, "Post-effect"))
	result = replacePlaceholder(result, postEffectApplyPlaceholder,
		effectApply(m.postEffects, "postEffectIndex",
			"    finalColor = %s(finalColor, fbPixelPos, vec2<f32>(globals.screenWidth, globals.screenHeight), globals.time, array<f32, 6>(grid.postEffectP0, grid.postEffectP1, grid.postEffectP2, grid.postEffectP3, grid.postEffectP4, grid.postEffectP5));\n"))

	return result
}

func replacePlaceholder(source, placeholder, replacement string) string {
	return strings.Replace(source, placeholder, replacement, 1)
}

func effectFunctions(effects []Effect, label string) string {
	var b strings.Builder
	for _, ef := range effects {
		b.WriteString("// ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(ef.Name)
		b.WriteByte('\n')
		b.WriteString(ef.Code)
		b.WriteString("\n\n")
	}
	return b.String()
}

// effectApply builds the "if (grid.<field> == N) { <call> } else if ..."
// dispatch chain selecting an effect by its numeric index. callTemplate
// is a %s-formatted call line with the function name substituted in.
func effectApply(effects []Effect, field, callTemplate string) string {
	if len(effects) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "if (grid.%s != 0u) {\n", field)
	first := true
	for _, ef := range effects {
		if ef.FuncName == "" {
			continue
		}
		if !first {
			b.WriteString(" else ")
		}
		first = false
		fmt.Fprintf(&b, "    if (grid.%s == %su) {\n", field, strconv.FormatUint(uint64(ef.Index), 10))
		fmt.Fprintf(&b, callTemplate, ef.FuncName)
		b.WriteString("    }")
	}
	b.WriteString("\n    }\n")
	return b.String()
}
