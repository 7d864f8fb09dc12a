package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

// passwordEnvVar supplies the password non-interactively.
const passwordEnvVar = "PBKDF2HASH_PASSWORD"

// zeroBytes overwrites a byte slice with zeros
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

func getPassword(prompt string) ([]byte, error) {
	if env := os.Getenv(passwordEnvVar); env != "" {
		return []byte(env), nil
	}
	return readPassword(prompt)
}

func getPasswordWithConfirm(prompt, confirmPrompt string) ([]byte, error) {
	if env := os.Getenv(passwordEnvVar); env != "" {
		return []byte(env), nil
	}

	password, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := readPassword(confirmPrompt)
	if err != nil {
		zeroBytes(password)
		return nil, err
	}
	defer zeroBytes(confirm)

	if !bytes.Equal(password, confirm) {
		zeroBytes(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// STDIN is piped, fall back to the controlling terminal
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return nil, fmt.Errorf("cannot read password: STDIN is not a terminal; set %s", passwordEnvVar)
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return password, nil
}
