// klipper-postproc annotates sliced G-code with Klipper SET_VELOCITY_LIMIT
// directives: square corner velocity tuned to outer-wall corners, higher
// limits through long smooth curves, and lower acceleration for walls
// near top surfaces.
//
// Usage:
//
//	klipper-postproc scv <file.gcode>
//	klipper-postproc curves <file.gcode>
//	klipper-postproc topaccel <input.gcode> <output.gcode> <config.cfg>
//	klipper-postproc all <file.gcode> [-o output.gcode]
//	klipper-postproc watch <dir> --out <dir> [--mode all]
//
// Profiles may be Klipper-style INI (.cfg), TOML or YAML and are selected
// with --config. Exit status is 1 for usage errors, 2 for file I/O
// errors, 3 for configuration errors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	perrors "klipper-postproc/pkg/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return perrors.ExitCode(err)
	}
	return 0
}
