// Command pbkdf2hash generates and verifies PBKDF2 password hashes.
//
//	pbkdf2hash [-config file] generate
//	pbkdf2hash [-config file] verify <encoded>
//	pbkdf2hash [-config file] needs-rehash <encoded>
//	pbkdf2hash info <encoded>
//
// The password is read from $PBKDF2HASH_PASSWORD or from the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/hasbyte1/go-pbkdf2hash/config"
	"github.com/hasbyte1/go-pbkdf2hash/hashing"
)

// Exit codes for verify.
const (
	exitOK       = 0
	exitMismatch = 1
	exitError    = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pbkdf2hash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file with a pbkdf2 section")
	verbose := fs.Bool("v", false, "verbose logging")
	var maxIter uint32
	fs.Func("max-iterations", "refuse to verify hashes above this iteration count (0 = no limit)", func(s string) error {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return fmt.Errorf("must be an integer between 0 and %d", uint32(math.MaxUint32))
		}
		maxIter = uint32(n)
		return nil
	})
	fs.Usage = func() { printUsage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return exitError
	}

	engine, err := newEngine(*configPath, maxIter, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "generate":
		return cmdGenerate(engine, stdout, stderr)
	case "verify":
		return cmdVerify(engine, rest, stdout, stderr)
	case "needs-rehash":
		return cmdNeedsRehash(engine, rest, stdout, stderr)
	case "info":
		return cmdInfo(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", cmd)
		printUsage(stderr, fs)
		return exitError
	}
}

func newEngine(configPath string, maxIter uint32, logger *slog.Logger) (*hashing.Engine, error) {
	loader := config.FromEnv(config.WithLogger(logger))
	if configPath != "" {
		var err error
		if loader, err = config.Load(configPath, config.WithLogger(logger)); err != nil {
			return nil, err
		}
	}
	params, err := loader.ParameterSet()
	if err != nil {
		return nil, err
	}
	return hashing.NewEngine(params,
		hashing.WithLogger(logger),
		hashing.WithMaxVerifyIterations(maxIter),
	)
}

func cmdGenerate(e *hashing.Engine, stdout, stderr io.Writer) int {
	password, err := getPasswordWithConfirm("Password: ", "Confirm password: ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer zeroBytes(password)

	encoded, err := e.Generate(password)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, encoded)
	return exitOK
}

func cmdVerify(e *hashing.Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: verify needs exactly one encoded hash")
		return exitError
	}
	password, err := getPassword("Password: ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer zeroBytes(password)

	ok, err := e.Verify(password, args[0])
	switch {
	case hashing.IsDecodeError(err):
		fmt.Fprintf(stderr, "Error: stored hash is unusable: %v\n", err)
		return exitError
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	case !ok:
		fmt.Fprintln(stdout, "mismatch")
		return exitMismatch
	}
	fmt.Fprintln(stdout, "match")
	return exitOK
}

func cmdNeedsRehash(e *hashing.Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: needs-rehash needs exactly one encoded hash")
		return exitError
	}
	needs, err := e.NeedsRehash(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, needs)
	return exitOK
}

func cmdInfo(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: info needs exactly one encoded hash")
		return exitError
	}
	info, err := hashing.ParseInfo(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintf(stdout, "algorithm:  %s\niterations: %d\nsalt:       %d bytes\nkey:        %d bytes\n",
		info.Algorithm, info.Iterations, info.SaltSizeBytes, info.KeySizeBytes)
	return exitOK
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, `Usage: pbkdf2hash [flags] <command> [args]

Commands:
  generate               hash a password and print the encoded result
  verify <encoded>       check a password; exit 0 on match, 1 on mismatch
  needs-rehash <encoded> print whether the hash uses outdated parameters
  info <encoded>         print the parameters embedded in a hash

Environment:
  `+passwordEnvVar+`    password (skips the terminal prompt)
  `+config.EnvPrefix+`_PBKDF2_<KEY>  parameter override, e.g. `+config.EnvPrefix+`_PBKDF2_ITERATIONS

Flags:`)
	fs.PrintDefaults()
}
