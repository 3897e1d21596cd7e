// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		query string
		path  string
		want  ImportKind
	}{
		{"url beats json extension", "url", "/p/data.json", ImportURL},
		{"url beats css extension", "v=1&url", "/p/style.css", ImportURL},
		{"url beats raw", "raw&url", "/p/a.txt", ImportURL},
		{"raw beats extension", "raw", "/p/data.yaml", ImportRaw},
		{"css", "", "/p/style.css", ImportCSS},
		{"json", "", "/p/data.json", ImportJSON},
		{"toml", "", "/p/conf.toml", ImportTOML},
		{"yml", "", "/p/conf.yml", ImportYAML},
		{"yaml", "", "/p/conf.yaml", ImportYAML},
		{"uppercase extension", "", "/p/DATA.JSON", ImportJSON},
		{"binary asset", "", "/p/logo.png", ImportURL},
		{"plain script", "", "/p/index.js", ImportDefault},
		{"unknown extension", "", "/p/notes.txt", ImportDefault},
		{"no extension", "", "/p/LICENSE", ImportDefault},
		{"partial token is ignored", "rawdata", "/p/index.js", ImportDefault},
		{"partial url token is ignored", "urls=1", "/p/data.json", ImportJSON},
		{"unknown token falls through", "bogus", "/p/style.css", ImportCSS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query, tt.path, ResourceScript))
		})
	}
}

func TestClassify_NonScriptIsDefault(t *testing.T) {
	assert.Equal(t, ImportDefault, Classify("url", "/p/data.json", ResourceOther))
	assert.Equal(t, ImportDefault, Classify("", "/p/logo.png", ResourceOther))
}

func TestClassify_KnownAssetsImportAsURL(t *testing.T) {
	for ext := range knownAssets {
		t.Run(ext, func(t *testing.T) {
			got := Classify("", "/p/file."+ext, ResourceScript)
			assert.Equal(t, ImportURL, got)
			assert.NotEqual(t, ImportDefault, got)
		})
	}
}

func TestImportKind_String(t *testing.T) {
	assert.Equal(t, "yaml", ImportYAML.String())
	assert.Equal(t, "url", ImportURL.String())
	assert.Equal(t, "unknown", ImportKind(99).String())
	assert.False(t, ImportDefault.Synthesized())
	assert.True(t, ImportRaw.Synthesized())
}
