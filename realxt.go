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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/andreas-jonsson/realxt/emulator"
	"github.com/andreas-jonsson/realxt/emulator/loader"
	"github.com/andreas-jonsson/realxt/emulator/processor/validator"
	"github.com/andreas-jonsson/realxt/platform"
	"github.com/andreas-jonsson/realxt/version"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var (
	ver,
	textMode bool
)

var (
	pspSegment    = uint(loader.DefaultPSPSegment)
	budget        uint64
	timerInterval int
)

var (
	commandTail,
	input,
	biosImage,
	snapshotFile,
	restoreFile,
	traceFile string
)

func init() {
	if s, ok := os.LookupEnv("RXT_PSP_SEGMENT"); ok {
		if v, err := strconv.ParseUint(s, 0, 16); err == nil {
			pspSegment = uint(v)
		} else {
			log.Print("invalid RXT_PSP_SEGMENT: ", s)
		}
	}
	if s, ok := os.LookupEnv("RXT_BUDGET"); ok {
		if v, err := strconv.ParseUint(s, 0, 64); err == nil {
			budget = v
		} else {
			log.Print("invalid RXT_BUDGET: ", s)
		}
	}

	flag.BoolVar(&ver, "v", false, "Print version information")
	flag.BoolVar(&textMode, "text", false, "Show the text screen in the terminal")

	flag.UintVar(&pspSegment, "psp", pspSegment, "Segment of the program segment prefix")
	flag.Uint64Var(&budget, "budget", budget, "Stop after this many instructions (0 is unlimited)")
	flag.IntVar(&timerInterval, "timer", 0, "Instructions between timer interrupts (negative disables the timer)")

	flag.StringVar(&commandTail, "tail", "", "Command line passed to the program")
	flag.StringVar(&input, "input", "", "Keystrokes typed after the program is loaded")
	flag.StringVar(&biosImage, "bios", "", "BIOS image for segment F000")
	flag.StringVar(&snapshotFile, "snapshot", "", "Save a snapshot when the program stops")
	flag.StringVar(&restoreFile, "restore", "", "Start from a saved snapshot")
	flag.StringVar(&traceFile, "trace", "", "Record an instruction trace")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] program.com|program.exe\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if ver {
		printLogo()
		fmt.Printf("%s (%s)\n", version.Current.FullString(), version.Hash)
		return
	}

	if flag.NArg() != 1 && restoreFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run() (int, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fs := afero.NewOsFs()
	cfg := emulator.Config{
		PSPSegment:    uint16(pspSegment),
		CommandTail:   commandTail,
		Budget:        budget,
		TimerInterval: timerInterval,
		Input:         input,
		Fs:            fs,
	}

	if biosImage != "" {
		fp, err := fs.Open(biosImage)
		if err != nil {
			return 1, err
		}
		defer fp.Close()
		cfg.BIOS = fp
	}

	if traceFile != "" {
		rec, err := validator.Create(fs, traceFile)
		if err != nil {
			return 1, err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Print(err)
			}
		}()
		cfg.Tracer = rec
	}

	var (
		console *platform.TextConsole
		stdin   *platform.Terminal
	)

	switch {
	case textMode:
		var err error
		if console, err = platform.NewTextConsole(nil, nil, cancel); err != nil {
			return 1, err
		}
		defer console.Close()

		log.SetOutput(io.Discard)
		cfg.Console = console
		cfg.BlockingInput = true
	case input != "":
		cfg.Output = platform.NewOutput(os.Stdout, false)
	case platform.IsTerminal(os.Stdin):
		cfg.Output = platform.NewOutput(os.Stdout, true)
		cfg.BlockingInput = true
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return 1, errors.Wrap(err, "could not read standard input")
		}
		cfg.Input = string(data)
		cfg.Output = platform.NewOutput(os.Stdout, false)
	}

	m, err := emulator.New(cfg)
	if err != nil {
		return 1, err
	}
	defer m.Close()

	if restoreFile != "" {
		err = m.LoadSnapshot(restoreFile)
	} else {
		_, err = m.Load(flag.Arg(0))
	}
	if err != nil {
		return 1, err
	}

	if console != nil {
		console.SetKeyReceiver(m.Keyboard())
	} else if cfg.BlockingInput {
		if stdin, err = platform.NewTerminal(os.Stdin, m.Keyboard(), cancel); err != nil {
			return 1, err
		}
		defer stdin.Close()
	}

	res, runErr := m.Run(ctx)
	if snapshotFile != "" {
		if err := m.SaveSnapshot(snapshotFile); err != nil {
			log.Print(err)
		}
	}

	switch {
	case res.Reason == emulator.StopCanceled:
		return 130, nil
	case runErr != nil:
		return 1, runErr
	case res.Reason == emulator.StopExited:
		return int(res.ExitCode), nil
	case res.Reason == emulator.StopBudget:
		log.Printf("instruction budget of %d exhausted", budget)
		return 2, nil
	}
	log.Printf("processor halted after %d instructions (%d interrupts)", res.Instructions, res.Stats.NumInterrupts)
	return 0, nil
}

func printLogo() {
	fmt.Print(logo)
	fmt.Println("v" + version.Current.String())
	fmt.Println(" ───────═════ " + version.Copyright + " ══════───────")
	fmt.Println()
}

var logo = `
██████╗  ███████╗  █████╗  ██╗      ██╗  ██╗ ████████╗
██╔══██╗ ██╔════╝ ██╔══██╗ ██║      ╚██╗██╔╝ ╚══██╔══╝
██████╔╝ █████╗   ███████║ ██║       ╚███╔╝     ██║
██╔══██╗ ██╔══╝   ██╔══██║ ██║       ██╔██╗     ██║
██║  ██║ ███████╗ ██║  ██║ ███████╗ ██╔╝ ██╗    ██║
╚═╝  ╚═╝ ╚══════╝ ╚═╝  ╚═╝ ╚══════╝ ╚═╝  ╚═╝    ╚═╝`
