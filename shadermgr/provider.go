// Package shadermgr assembles the terminal's single WGSL render shader
// from a base template plus a set of contributed providers (glyph
// families, shader libraries, pre/post-processing effects), recompiling
// lazily whenever a provider reports itself dirty.
package shadermgr

// Provider contributes WGSL function and dispatch code that gets merged
// into the base shader. Glyph-family renderers (MSDF text, bitmap/emoji)
// implement this to add their sampling functions and a dispatch branch
// chained with every other provider's via " else ".
type Provider interface {
	// Code returns the provider's function definitions, inserted verbatim
	// at the functions placeholder.
	Code() string
	// DispatchCode returns the provider's dispatch branch (an "if (...) {
	// ... }" WGSL fragment with no leading "else"), or "" to contribute
	// nothing to the dispatch chain.
	DispatchCode() string
	// FunctionCount reports how many shader functions Code defines, used
	// only for diagnostics after a successful compile.
	FunctionCount() int
	// Dirty reports whether the provider's contributed code has changed
	// since the last ClearDirty, forcing a recompile.
	Dirty() bool
	// ClearDirty resets the dirty flag after a successful compile.
	ClearDirty()
}

// Effect is one pre- or post-processing shader effect, selected at
// render time by a numeric index carried in the grid uniform buffer.
type Effect struct {
	// Index is the grid.preEffectIndex/postEffectIndex value that selects
	// this effect. Index 0 is reserved for "no effect".
	Index uint32
	// Name labels the effect in the merged source's comments.
	Name string
	// FuncName is the WGSL function this effect's code defines, e.g.
	// "postEffect_scanlines". Effects with an empty FuncName are skipped
	// in the dispatch chain but still contribute their Code.
	FuncName string
	// Code is the effect's full WGSL function body.
	Code string
}
