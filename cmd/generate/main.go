// seehuhn.de/go/fontgen - build OpenType fonts from FontForge sources
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Command generate builds an OpenType font from a font source.
//
// The source font is validated first.  If it contains errors, nothing is
// written and the command exits with status 2.  Otherwise the contextual
// alternates from "calt.fea" are merged into the font, the font version
// is set to 1.001, and the font is written to the given file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"seehuhn.de/go/fontgen"
	"seehuhn.de/go/fontgen/internal/buildinfo"
	"seehuhn.de/go/fontgen/internal/profile"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitInvalid = 2
)

const invalidMessage = "The font contains errors, generation cancelled."

type options struct {
	feaFile string
	version string
	verbose bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	flags.SetOutput(stderr)

	opt := &options{}
	flags.StringVar(&opt.feaFile, "fea", fontgen.DefaultFeatureFile, "read substitution rules from `file`")
	flags.StringVar(&opt.version, "version", fontgen.DefaultVersion, "set the font version to `v`")
	flags.BoolVar(&opt.verbose, "v", false, "list the problems found during validation")
	cpuprofile := flags.String("cpuprofile", "", "write cpu profile to `file`")
	memprofile := flags.String("memprofile", "", "write memory profile to `file`")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "generate - build an OpenType font from a font source\n")
		fmt.Fprintf(stderr, "%s\n\n", buildinfo.Short("generate"))
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  generate [options] <source_file> <font_name>\n\n")
		fmt.Fprintf(stderr, "Arguments:\n")
		fmt.Fprintf(stderr, "  source_file   FontForge source (.sfd) or OpenType font (.otf, .ttf)\n")
		fmt.Fprintf(stderr, "  font_name     name of the font file to generate\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExit status is 0 on success, 1 on errors and 2 if the\n")
		fmt.Fprintf(stderr, "source font fails validation.\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  generate MyFont.sfd MyFont.otf\n")
		fmt.Fprintf(stderr, "  generate -v -fea features/calt.fea MyFont.sfd MyFont.otf\n")
	}
	if err := flags.Parse(args); err != nil {
		return exitError
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return exitError
	}

	stop, err := profile.Start(*cpuprofile, *memprofile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer stop()

	return generate(stderr, flags.Arg(0), flags.Arg(1), opt)
}

func generate(stderr io.Writer, source, fontName string, opt *options) int {
	font, err := fontgen.Open(source)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	report := font.Validate()
	if report.ErrorCount() > 0 {
		if opt.verbose {
			for _, p := range report.Problems {
				fmt.Fprintln(stderr, p)
			}
		}
		fmt.Fprintln(stderr, invalidMessage)
		return exitInvalid
	}

	err = build(font, fontName, opt)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	return exitOK
}

func build(font *fontgen.Font, fontName string, opt *options) error {
	err := font.MergeFeature(opt.feaFile)
	if err != nil {
		return err
	}
	err = font.SetVersion(opt.version)
	if err != nil {
		return err
	}
	return font.Generate(fontName)
}
