package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"qomex.backend/pkg/crypto"
)

var (
	printfFn       = fmt.Printf
	generateHashFn = crypto.HashPassword
	fatalfFn       = log.Fatalf
	getenvFn       = os.Getenv
)

var errNoPassword = errors.New("usage: hash-gen <password> (or set ADMIN_PASSWORD)")

// resolvePassword takes the first argument, falling back to ADMIN_PASSWORD.
func resolvePassword(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if v := getenvFn("ADMIN_PASSWORD"); v != "" {
		return v, nil
	}
	return "", errNoPassword
}

func main() {
	password, err := resolvePassword(os.Args[1:])
	if err != nil {
		fatalfFn("%v", err)
		return
	}

	hash, err := generateHashFn(password)
	if err != nil {
		fatalfFn("Failed to hash password: %v", err)
		return
	}

	printfFn("ADMIN_PASSWORD_HASH=%s\n", hash)
}
