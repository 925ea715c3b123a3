package main

import "errors"

var (
	errUnknownFormat   = errors.New("unknown output format")
	errUnknownLanguage = errors.New("no language for file")
)
