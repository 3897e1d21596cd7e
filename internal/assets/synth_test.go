// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleFor_EveryWrapperKind(t *testing.T) {
	kinds := []ImportKind{ImportCSS, ImportJSON, ImportTOML, ImportYAML, ImportRaw, ImportURL}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			m, ok := ModuleFor(kind)
			require.True(t, ok)
			assert.Contains(t, string(m), "import.meta.url.replace(/\\?.*$/, '')",
				"module must recover its own URL at runtime")
		})
	}
}

func TestModuleFor_Default(t *testing.T) {
	_, ok := ModuleFor(ImportDefault)
	assert.False(t, ok)
}

func TestModuleFor_Shapes(t *testing.T) {
	css, _ := ModuleFor(ImportCSS)
	assert.Contains(t, string(css), "DOMContentLoaded")
	assert.Contains(t, string(css), "readyState === 'loading'", "an interactive document has already fired DOMContentLoaded")
	assert.Contains(t, string(css), "stylesheet")

	yaml, _ := ModuleFor(ImportYAML)
	assert.Contains(t, string(yaml), "__p('yaml')")
	assert.Contains(t, string(yaml), "export default parse(content)")

	toml, _ := ModuleFor(ImportTOML)
	assert.Contains(t, string(toml), "__p('toml')")

	json, _ := ModuleFor(ImportJSON)
	assert.Contains(t, string(json), "JSON.parse")

	url, _ := ModuleFor(ImportURL)
	assert.False(t, strings.Contains(string(url), "fetch"))
}
