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

// Command validator compares two instruction traces and reports where they
// diverge.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/validator"
	"github.com/spf13/afero"
)

var (
	traceInput = "realxt.rxt"
	refInput   = "reference.rxt"

	ignoreFlags = "0"
	maxReports  = 10
)

func init() {
	flag.StringVar(&traceInput, "trace", traceInput, "Trace to validate")
	flag.StringVar(&refInput, "reference", refInput, "Trace from the reference CPU")
	flag.StringVar(&ignoreFlags, "ignore-flags", ignoreFlags, "Hex mask of flags that are not compared")
	flag.IntVar(&maxReports, "max", maxReports, "Stop after this many diverging instructions")
}

func open(fs afero.Fs, name string) (*validator.Decoder, io.Closer) {
	fp, err := fs.Open(name)
	if err != nil {
		log.Fatal(err)
	}
	dec, err := validator.NewReader(fp)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return dec, fp
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	mask, err := strconv.ParseUint(ignoreFlags, 16, 16)
	if err != nil {
		log.Fatal("invalid flag mask: ", err)
	}

	fs := afero.NewOsFs()
	traceDec, traceFp := open(fs, traceInput)
	defer traceFp.Close()
	refDec, refFp := open(fs, refInput)
	defer refFp.Close()

	if a, b := traceDec.Header.Version(), refDec.Header.Version(); !a.Compatible(b) {
		log.Printf("traces were recorded by different versions: %v and %v", a, b)
	}

	var numEq, numDiff int
	for numDiff < maxReports {
		a, errA := traceDec.Next()
		b, errB := refDec.Next()
		if errA == io.EOF || errB == io.EOF {
			break
		}
		if errA != nil {
			log.Fatal(errA)
		}
		if errB != nil {
			log.Fatal(errB)
		}

		m := validator.Compare(a, b, processor.Flags(mask))
		if len(m) == 0 {
			numEq++
			continue
		}

		numDiff++
		fmt.Printf("#%d %v\n", numEq+numDiff, a)
		for _, v := range m {
			fmt.Println("\t", v)
		}
	}

	log.Print("Equal: ", numEq)
	if numDiff > 0 {
		os.Exit(1)
	}
}
