// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"embed"
	"fmt"
)

// Wrapper modules recover their own URL from import.meta.url at runtime,
// so nothing from the request is ever written into them.
//
//go:embed templates/*.js
var templatesFS embed.FS

var modules = map[ImportKind][]byte{
	ImportCSS:  mustTemplate("css"),
	ImportJSON: mustTemplate("json"),
	ImportTOML: mustTemplate("toml"),
	ImportYAML: mustTemplate("yaml"),
	ImportRaw:  mustTemplate("raw"),
	ImportURL:  mustTemplate("url"),
}

func mustTemplate(name string) []byte {
	data, err := templatesFS.ReadFile("templates/" + name + ".js")
	if err != nil {
		panic(fmt.Sprintf("missing module template %s: %v", name, err))
	}
	return data
}

// ModuleFor returns the wrapper module served for kind. It returns false
// for ImportDefault, which is served as the file itself.
func ModuleFor(kind ImportKind) ([]byte, bool) {
	m, ok := modules[kind]
	return m, ok
}
