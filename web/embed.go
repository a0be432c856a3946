package web

import _ "embed"

//go:embed static/index.html
var IndexHTML []byte

//go:embed static/styles.css
var StylesCSS []byte
