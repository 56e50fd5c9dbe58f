// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Favicon generates a round favicon from the site logo.

# Usage

	$ go tool favicon [flags]

Without flags, favicon reads "public/Logo.png", cuts a circle out of it and
writes "public/favicon.ico" with 256x256, 128x128, 64x64, 48x48, 32x32 and
16x16 icons. Paths are relative to the current directory, or to the one
given with -C.

If the logo doesn't exist, favicon says so and does nothing, also with
-watch. Conversion
errors are printed, but don't cause a non-zero exit status.

Use -sizes to choose icon sizes, for example:

	$ go tool favicon -sizes 48,32,16

With -watch, favicon keeps running and regenerates the favicon each time
the logo changes.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
