/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

// Command version generates version/current.go from RXT_VERSION and the
// Git revision.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"log"
	"os"
	"os/exec"
	"path"
	"strings"
	"text/template"
	"time"

	"github.com/andreas-jonsson/realxt/version"
)

const defaultVersion = "0.1.0"

func main() {
	file := flag.String("file", "-", "Save the generated output to file.")
	pkg := flag.String("package", "version", "Package name of the generated output.")
	variable := flag.String("variable", "RXT_VERSION", "Environment variable containing the version number.")
	flag.Parse()

	hash := strings.Repeat("0", 40)
	if res, err := exec.Command("git", "rev-parse", "HEAD").Output(); err == nil {
		hash = strings.TrimSpace(string(res))
	} else {
		log.Print("could not parse Git hash: ", err)
	}

	s := os.Getenv(*variable)
	if s == "" {
		s = defaultVersion
		log.Printf("%s is not set. Defaulting to %s", *variable, s)
	}

	v, err := version.Parse(s)
	if err != nil {
		log.Print(err)
		v, _ = version.Parse(defaultVersion)
	}

	values := map[string]interface{}{
		"hash":    hash,
		"version": v,
		"copy":    copyright(time.Now().Year()),
		"pkg":     *pkg,
	}

	var buf bytes.Buffer
	tmpl := template.Must(template.New("version").Parse(content))
	if err := tmpl.Execute(&buf, values); err != nil {
		log.Panicln(err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		log.Panicln(err)
	}

	fp := os.Stdout
	if *file != "-" {
		os.MkdirAll(path.Dir(*file), 0777)
		if fp, err = os.Create(*file); err != nil {
			log.Panicln(err)
		}
		defer fp.Close()
	}

	if _, err := fp.Write(src); err != nil {
		log.Panicln(err)
	}
}

func copyright(year int) string {
	const (
		startYear    = 2019
		copyrightFmt = "Copyright (c) %v Andreas T Jonsson"
	)
	if year == startYear {
		return fmt.Sprintf(copyrightFmt, startYear)
	}
	return fmt.Sprintf(copyrightFmt, fmt.Sprintf("%d-%d", startYear, year))
}

var content = `/*
{{.copy}}

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

// Code generated by tools/version. DO NOT EDIT.

package {{.pkg}}

var (
	Current = Version{ {{.version.Major}}, {{.version.Minor}}, {{.version.Patch}}, "{{.version.Build}}" }
	Copyright = "{{.copy}}"
	Hash = "{{.hash}}"
)
`
