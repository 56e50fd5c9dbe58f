// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/base/logger"
	"go.astrophena.name/roundicon/internal/favicon"
	ilogger "go.astrophena.name/roundicon/internal/logger"
)

func main() { cli.Main(new(app)) }

const (
	defaultInput  = "public/Logo.png"
	defaultOutput = "public/favicon.ico"
)

type app struct {
	dir        string
	input      string
	output     string
	sizes      sizesFlag
	autoOrient bool
	watch      bool

	stdout io.Writer // os.Stdout if nil
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.dir, "C", "", "Change to `dir` before resolving paths.")
	fs.StringVar(&a.input, "input", defaultInput, "Read the logo from `path`.")
	fs.StringVar(&a.output, "output", defaultOutput, "Write the favicon to `path`.")
	fs.Var(&a.sizes, "sizes", "Comma-separated icon `sizes`, each either N or WxH.")
	fs.BoolVar(&a.autoOrient, "auto-orient", false, "Apply the EXIF orientation of the logo.")
	fs.BoolVar(&a.watch, "watch", false, "Regenerate the favicon when the logo changes.")
}

func (a *app) Run(ctx context.Context) error {
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.input == "" {
		a.input = defaultInput
	}
	if a.output == "" {
		a.output = defaultOutput
	}

	if a.dir != "" {
		if err := os.Chdir(a.dir); err != nil {
			return fmt.Errorf("%w: %v", cli.ErrInvalidArgs, err)
		}
	}

	c := &favicon.Config{
		Sizes:      a.sizes,
		AutoOrient: a.autoOrient,
		Logf:       ilogger.FromContext(ctx),
	}

	logger.Info(ctx, "generating favicon",
		slog.String("input", a.input),
		slog.String("output", a.output),
		slog.Bool("watch", a.watch),
	)

	if _, err := os.Stat(a.input); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(a.stdout, "Input file not found: %s\n", a.input)
		return nil
	}

	if a.watch {
		return favicon.Watch(ctx, c, a.input, a.output, a.report)
	}

	a.report(favicon.Convert(c, a.input, a.output))
	return nil
}

// report prints the outcome of a conversion. Failures are reported, not
// returned.
func (a *app) report(err error) {
	if err != nil {
		fmt.Fprintf(a.stdout, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(a.stdout, "Successfully created circular favicon at %s\n", a.output)
}

// sizesFlag is a flag.Value holding a list of icon sizes.
type sizesFlag []favicon.Size

func (f *sizesFlag) String() string {
	var ss []string
	for _, s := range *f {
		ss = append(ss, s.String())
	}
	return strings.Join(ss, ",")
}

func (f *sizesFlag) Set(s string) error {
	sizes, err := favicon.ParseSizes(s)
	if err != nil {
		return err
	}
	*f = sizes
	return nil
}
